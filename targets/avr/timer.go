//go:build tinygo && atmega1284p

package main

import (
	"device/avr"
	"runtime/volatile"

	"roverbot/core"
)

// reg16 is a 16-bit register pair. The high byte goes through the shared
// TEMP register, so it is written first and read last. 8-bit timers have
// no high byte.
type reg16 struct {
	lo, hi *volatile.Register8
}

func (r reg16) set(v uint16) {
	if r.lo == nil {
		return
	}
	if r.hi != nil {
		r.hi.Set(uint8(v >> 8))
	}
	r.lo.Set(uint8(v))
}

func (r reg16) get() uint16 {
	if r.lo == nil {
		return 0
	}
	v := uint16(r.lo.Get())
	if r.hi != nil {
		v |= uint16(r.hi.Get()) << 8
	}
	return v
}

type timerRegs struct {
	tccrA, tccrB *volatile.Register8
	timsk, tifr  *volatile.Register8
	tcnt         reg16
	ocr          [2]reg16
	icr          reg16
	wide         bool
}

var timerBank = [...]timerRegs{
	core.Timer0: {
		tccrA: avr.TCCR0A, tccrB: avr.TCCR0B,
		timsk: avr.TIMSK0, tifr: avr.TIFR0,
		tcnt: reg16{lo: avr.TCNT0},
		ocr:  [2]reg16{{lo: avr.OCR0A}, {lo: avr.OCR0B}},
	},
	core.Timer1: {
		tccrA: avr.TCCR1A, tccrB: avr.TCCR1B,
		timsk: avr.TIMSK1, tifr: avr.TIFR1,
		tcnt: reg16{avr.TCNT1L, avr.TCNT1H},
		ocr:  [2]reg16{{avr.OCR1AL, avr.OCR1AH}, {avr.OCR1BL, avr.OCR1BH}},
		icr:  reg16{avr.ICR1L, avr.ICR1H},
		wide: true,
	},
	core.Timer2: {
		tccrA: avr.TCCR2A, tccrB: avr.TCCR2B,
		timsk: avr.TIMSK2, tifr: avr.TIFR2,
		tcnt: reg16{lo: avr.TCNT2},
		ocr:  [2]reg16{{lo: avr.OCR2A}, {lo: avr.OCR2B}},
	},
}

// Bit positions in TIMSKn and TIFRn.
var eventBit = [...]uint8{
	core.EventOverflow: 0,
	core.EventCompareA: 1,
	core.EventCompareB: 2,
	core.EventCapture:  5,
}

const (
	csMask    = 0x07
	wgmLoMask = 0x03
	wgmHiMask = 0x18 // WGMn2 (and WGM13) in TCCRnB
)

// AVRTimerDriver implements core.TimerHardware on timers 0, 1 and 2.
type AVRTimerDriver struct{}

func (AVRTimerDriver) regs(id core.TimerID) *timerRegs {
	if int(id) < len(timerBank) {
		return &timerBank[id]
	}
	return nil
}

func (d AVRTimerDriver) Configure(id core.TimerID, mode core.TimerMode) {
	r := d.regs(id)
	if r == nil {
		return
	}
	width := uint8(8)
	if r.wide {
		width = 16
	}
	wgm := mode.Info(width).WGM
	a := r.tccrA.Get()&^wgmLoMask | wgm&wgmLoMask
	b := r.tccrB.Get()&^wgmHiMask | (wgm>>2)<<3&wgmHiMask
	r.tccrA.Set(a)
	r.tccrB.Set(b)
}

func (d AVRTimerDriver) SetClock(id core.TimerID, clock core.Prescaler) {
	r := d.regs(id)
	if r == nil {
		return
	}
	cs, ok := core.ClockSelect(id, clock)
	if !ok {
		cs = 0
	}
	r.tccrB.Set(r.tccrB.Get()&^csMask | cs)
}

func (d AVRTimerDriver) SetCounter(id core.TimerID, value uint16) {
	if r := d.regs(id); r != nil {
		r.tcnt.set(value)
	}
}

func (d AVRTimerDriver) Counter(id core.TimerID) uint16 {
	if r := d.regs(id); r != nil {
		return r.tcnt.get()
	}
	return 0
}

func (d AVRTimerDriver) SetCompare(id core.TimerID, ch core.Channel, value uint16) {
	if r := d.regs(id); r != nil && ch <= core.ChannelB {
		r.ocr[ch].set(value)
	}
}

func (d AVRTimerDriver) Compare(id core.TimerID, ch core.Channel) uint16 {
	if r := d.regs(id); r != nil && ch <= core.ChannelB {
		return r.ocr[ch].get()
	}
	return 0
}

func (d AVRTimerDriver) SetCapture(id core.TimerID, value uint16) {
	if r := d.regs(id); r != nil {
		r.icr.set(value)
	}
}

// SetCompareOutput writes COMnx1:0. The OutputCompareMode values follow
// the datasheet encoding.
func (d AVRTimerDriver) SetCompareOutput(id core.TimerID, ch core.Channel, mode core.OutputCompareMode) {
	r := d.regs(id)
	if r == nil || ch > core.ChannelB {
		return
	}
	shift := 6 - 2*uint8(ch)
	r.tccrA.Set(r.tccrA.Get()&^(3<<shift) | uint8(mode)&3<<shift)
}

func (d AVRTimerDriver) SetInterruptEnabled(id core.TimerID, ev core.TimerEvent, enabled bool) {
	r := d.regs(id)
	if r == nil || int(ev) >= len(eventBit) {
		return
	}
	if enabled {
		r.timsk.SetBits(1 << eventBit[ev])
	} else {
		r.timsk.ClearBits(1 << eventBit[ev])
	}
}

func (d AVRTimerDriver) InterruptEnabled(id core.TimerID, ev core.TimerEvent) bool {
	r := d.regs(id)
	if r == nil || int(ev) >= len(eventBit) {
		return false
	}
	return r.timsk.HasBits(1 << eventBit[ev])
}

// ClearFlag writes a one to the flag bit, which is how TIFRn bits clear.
func (d AVRTimerDriver) ClearFlag(id core.TimerID, ev core.TimerEvent) {
	r := d.regs(id)
	if r == nil || int(ev) >= len(eventBit) {
		return
	}
	r.tifr.Set(1 << eventBit[ev])
}

func (d AVRTimerDriver) Flag(id core.TimerID, ev core.TimerEvent) bool {
	r := d.regs(id)
	if r == nil || int(ev) >= len(eventBit) {
		return false
	}
	return r.tifr.HasBits(1 << eventBit[ev])
}
