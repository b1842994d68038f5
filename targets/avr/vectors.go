//go:build tinygo && atmega1284p

package main

import (
	"device/avr"
	"runtime/interrupt"

	"roverbot/core"
)

// installVectors binds every interrupt vector the drivers use to the core
// dispatch tables. The hardware clears the flag on vector entry.
//
// Timer 0 belongs to echo timing. The TinyGo release pinned for this target
// keeps runtime time on the watchdog, so no runtime handler competes for
// TIMER0_OVF; a release that binds it fails to link on the duplicate vector.
func installVectors() {
	interrupt.New(avr.IRQ_INT0, func(interrupt.Interrupt) { core.Int0.Dispatch() })
	interrupt.New(avr.IRQ_INT1, func(interrupt.Interrupt) { core.Int1.Dispatch() })
	interrupt.New(avr.IRQ_INT2, func(interrupt.Interrupt) { core.Int2.Dispatch() })

	interrupt.New(avr.IRQ_TIMER0_OVF, func(interrupt.Interrupt) { core.T0.Dispatch(core.EventOverflow) })
	interrupt.New(avr.IRQ_TIMER0_COMPA, func(interrupt.Interrupt) { core.T0.Dispatch(core.EventCompareA) })

	interrupt.New(avr.IRQ_TIMER1_CAPT, func(interrupt.Interrupt) { core.T1.Dispatch(core.EventCapture) })
	interrupt.New(avr.IRQ_TIMER1_COMPA, func(interrupt.Interrupt) { core.T1.Dispatch(core.EventCompareA) })
	interrupt.New(avr.IRQ_TIMER1_COMPB, func(interrupt.Interrupt) { core.T1.Dispatch(core.EventCompareB) })
	interrupt.New(avr.IRQ_TIMER1_OVF, func(interrupt.Interrupt) { core.T1.Dispatch(core.EventOverflow) })

	interrupt.New(avr.IRQ_TIMER2_COMPA, func(interrupt.Interrupt) { core.T2.Dispatch(core.EventCompareA) })
	interrupt.New(avr.IRQ_TIMER2_OVF, func(interrupt.Interrupt) { core.T2.Dispatch(core.EventOverflow) })
}
