//go:build tinygo && atmega1284p

package main

import (
	"device"
	"time"
)

// busyDelay spins for short waits, where the runtime sleep granularity is
// far too coarse for trigger pulses and LCD strobes, and sleeps otherwise.
func busyDelay(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	for us := d / time.Microsecond; us > 0; us-- {
		spinMicrosecond()
	}
}

// spinMicrosecond burns about 16 cycles at 16 MHz, counting the loop
// overhead of the caller.
func spinMicrosecond() {
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
	device.Asm("nop")
}
