//go:build !tinygo

package sim

import "roverbot/core"

type lineState struct {
	pin     core.Pin
	sense   core.Sense
	armed   bool // sense programmed at least once
	enabled bool
	flag    bool
}

// extIntBank implements core.ExtIntHardware.
type extIntBank struct {
	m     *Machine
	lines [3]lineState
}

func (b *extIntBank) init(m *Machine) {
	b.m = m
	for id := core.INT0; id <= core.INT2; id++ {
		b.lines[id].pin = core.IntLineByID(id).Pin()
	}
}

func (b *extIntBank) line(id core.IntLine) *lineState {
	if int(id) >= len(b.lines) {
		return nil
	}
	return &b.lines[id]
}

func (b *extIntBank) SetSense(id core.IntLine, s core.Sense) {
	if l := b.line(id); l != nil {
		l.sense = s
		l.armed = true
	}
}

func (b *extIntBank) SetEnabled(id core.IntLine, on bool) {
	if l := b.line(id); l != nil {
		l.enabled = on
	}
}

func (b *extIntBank) Enabled(id core.IntLine) bool {
	if l := b.line(id); l != nil {
		return l.enabled
	}
	return false
}

// pinsChanged latches edge flags. Flags are set whether or not the line
// is enabled, like the hardware flag register.
func (b *extIntBank) pinsChanged(port core.Port, changed, levels uint8) {
	for i := range b.lines {
		l := &b.lines[i]
		bit := uint8(1) << l.pin.Bit
		if l.pin.Port != port || changed&bit == 0 || !l.armed {
			continue
		}
		high := levels&bit != 0
		switch l.sense {
		case core.SenseAnyChange:
			l.flag = true
		case core.SenseRising:
			l.flag = l.flag || high
		case core.SenseFalling:
			l.flag = l.flag || !high
		}
	}
}

// take reports and clears a serviceable request. A low level line requests
// service for as long as the pin stays low.
func (b *extIntBank) take(id core.IntLine) bool {
	l := b.line(id)
	if l == nil || !l.enabled {
		return false
	}
	if l.armed && l.sense == core.SenseLowLevel && !b.m.Level(l.pin) {
		return true
	}
	if l.flag {
		l.flag = false
		return true
	}
	return false
}

// Pending reports whether the flag of line id is set.
func (m *Machine) Pending(id core.IntLine) bool {
	l := m.lines.line(id)
	return l != nil && l.flag
}
