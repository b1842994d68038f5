//go:build tinygo && avr

package core

import (
	"device"
	"device/avr"
	"runtime/interrupt"
)

func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}

// EnableGlobalInterrupts sets the I bit in SREG.
func EnableGlobalInterrupts() {
	device.Asm("sei")
}

// DisableGlobalInterrupts clears the I bit in SREG.
func DisableGlobalInterrupts() {
	device.Asm("cli")
}

// InterruptsEnabled reports whether the I bit is set.
func InterruptsEnabled() bool {
	return avr.SREG.HasBits(1 << 7)
}
