//go:build !tinygo

package sim

import "time"

// Pacer is a core.Delayer that runs the machine in step with the wall
// clock, so a simulated robot can be watched or mirrored onto hardware.
type Pacer struct {
	m *Machine

	speed float64 // simulated time per real time
	slice time.Duration

	// OnSlice runs after every slice of simulated time, on the caller's
	// goroutine.
	OnSlice func()

	origin  time.Time
	elapsed time.Duration // simulated time since origin
}

// NewPacer returns a pacer advancing the machine in slices of 10 ms.
// speed 2 runs twice as fast as real time; zero or less means 1.
func (m *Machine) NewPacer(speed float64) *Pacer {
	if speed <= 0 {
		speed = 1
	}
	return &Pacer{m: m, speed: speed, slice: 10 * time.Millisecond}
}

// SetSlice changes the simulated time between wall clock checks.
func (p *Pacer) SetSlice(d time.Duration) {
	if d > 0 {
		p.slice = d
	}
}

func (p *Pacer) Delay(d time.Duration) {
	if p.origin.IsZero() {
		p.origin = time.Now()
	}
	for d > 0 {
		step := min(d, p.slice)
		p.m.Advance(step)
		d -= step
		p.elapsed += step
		if p.OnSlice != nil {
			p.OnSlice()
		}
		target := p.origin.Add(time.Duration(float64(p.elapsed) / p.speed))
		if wait := time.Until(target); wait > 0 {
			time.Sleep(wait)
		}
	}
}
