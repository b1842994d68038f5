//go:build tinygo && atmega1284p

package main

import (
	"device/avr"

	"roverbot/core"
)

// AVRExtIntDriver implements core.ExtIntHardware with EICRA and EIMSK.
// The Sense values match the ISCn1:0 encoding.
type AVRExtIntDriver struct{}

func (AVRExtIntDriver) SetSense(line core.IntLine, sense core.Sense) {
	shift := 2 * uint8(line)
	avr.EICRA.Set(avr.EICRA.Get()&^(3<<shift) | uint8(sense)&3<<shift)
	// changing the sense can raise a spurious flag
	avr.EIFR.Set(1 << uint8(line))
}

func (AVRExtIntDriver) SetEnabled(line core.IntLine, enabled bool) {
	if enabled {
		avr.EIMSK.SetBits(1 << uint8(line))
	} else {
		avr.EIMSK.ClearBits(1 << uint8(line))
	}
}

func (AVRExtIntDriver) Enabled(line core.IntLine) bool {
	return avr.EIMSK.HasBits(1 << uint8(line))
}
