//go:build !tinygo

package sim

import (
	"time"

	"roverbot/core"
)

// Scope records the waveform of one pin, like a logic analyser channel.
type Scope struct {
	m       *Machine
	pin     core.Pin
	start   uint64
	initial bool
	edges   []uint64 // cycles of every level change
}

// NewScope starts recording pin from now on.
func (m *Machine) NewScope(pin core.Pin) *Scope {
	p := &Scope{m: m, pin: pin}
	p.Reset()
	m.Watch(pin, func(bool) {
		p.edges = append(p.edges, m.now)
	})
	return p
}

// Reset discards the recording and restarts it at the current level.
func (p *Scope) Reset() {
	p.start = p.m.now
	p.initial = p.m.Level(p.pin)
	p.edges = p.edges[:0]
}

// Edges returns the number of level changes recorded.
func (p *Scope) Edges() int {
	return len(p.edges)
}

// HighTime returns how long the pin was high since the last Reset.
func (p *Scope) HighTime() time.Duration {
	return p.m.toDuration(p.highCycles())
}

func (p *Scope) highCycles() uint64 {
	var high uint64
	level := p.initial
	last := p.start
	for _, at := range p.edges {
		if level {
			high += at - last
		}
		level = !level
		last = at
	}
	if level {
		high += p.m.now - last
	}
	return high
}

// Duty returns the fraction of time the pin was high since the last Reset.
func (p *Scope) Duty() float64 {
	total := p.m.now - p.start
	if total == 0 {
		return 0
	}
	return float64(p.highCycles()) / float64(total)
}

// Pulses returns the widths of the complete high pulses recorded.
func (p *Scope) Pulses() []time.Duration {
	var out []time.Duration
	level := p.initial
	var rise uint64
	seen := false
	for _, at := range p.edges {
		level = !level
		if level {
			rise, seen = at, true
			continue
		}
		if seen {
			out = append(out, p.m.toDuration(at-rise))
		}
	}
	return out
}

// Periods returns the times between consecutive rising edges.
func (p *Scope) Periods() []time.Duration {
	var out []time.Duration
	level := p.initial
	var prev uint64
	seen := false
	for _, at := range p.edges {
		level = !level
		if !level {
			continue
		}
		if seen {
			out = append(out, p.m.toDuration(at-prev))
		}
		prev, seen = at, true
	}
	return out
}
