package core

import "time"

// Delayer blocks the caller for a fixed time. On bare metal this is a busy
// wait; a simulator advances its virtual clock instead.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to the Delayer interface.
type DelayFunc func(d time.Duration)

func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

var delayer Delayer = DelayFunc(time.Sleep)

// SetDelayer replaces the delay primitive. nil restores time.Sleep.
func SetDelayer(d Delayer) {
	if d == nil {
		d = DelayFunc(time.Sleep)
	}
	delayer = d
}

// Delay blocks for d using the installed primitive.
func Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	delayer.Delay(d)
}

// DelayMs blocks for ms milliseconds.
func DelayMs(ms uint32) {
	Delay(time.Duration(ms) * time.Millisecond)
}

// DelayUs blocks for us microseconds.
func DelayUs(us uint32) {
	Delay(time.Duration(us) * time.Microsecond)
}
