//go:build !tinygo

package sim

import "roverbot/core"

type portState struct {
	ddr    uint8
	out    uint8
	driven uint8 // bits forced by external circuitry
	ext    uint8 // level of driven bits
	level  uint8 // last computed pin levels
}

// gpioBank implements core.GPIODriver.
type gpioBank struct {
	m     *Machine
	ports [4]portState
}

func (g *gpioBank) port(p core.Port) *portState {
	if int(p) >= len(g.ports) {
		return nil
	}
	return &g.ports[p]
}

// levels resolves pin levels: external drive wins, then outputs, then
// pull-ups. Undriven inputs read low.
func (s *portState) levels() uint8 {
	own := s.out & s.ddr
	pull := s.out &^ s.ddr
	return s.ext&s.driven | (own|pull)&^s.driven
}

func (g *gpioBank) update(p core.Port) {
	s := g.port(p)
	next := s.levels()
	changed := next ^ s.level
	s.level = next
	if changed != 0 {
		g.m.notify(p, changed, next)
	}
}

func (g *gpioBank) SetDirection(p core.Port, mask uint8) {
	if s := g.port(p); s != nil {
		s.ddr = mask
		g.update(p)
	}
}

func (g *gpioBank) Direction(p core.Port) uint8 {
	if s := g.port(p); s != nil {
		return s.ddr
	}
	return 0
}

func (g *gpioBank) SetOutput(p core.Port, v uint8) {
	if s := g.port(p); s != nil {
		s.out = v
		g.update(p)
	}
}

func (g *gpioBank) Output(p core.Port) uint8 {
	if s := g.port(p); s != nil {
		return s.out
	}
	return 0
}

func (g *gpioBank) Input(p core.Port) uint8 {
	if s := g.port(p); s != nil {
		return s.level
	}
	return 0
}

// Level returns the current level of pin.
func (m *Machine) Level(pin core.Pin) bool {
	s := m.ports.port(pin.Port)
	return s != nil && s.level&(1<<pin.Bit) != 0
}

// IsOutput reports whether pin is configured as an output.
func (m *Machine) IsOutput(pin core.Pin) bool {
	s := m.ports.port(pin.Port)
	return s != nil && s.ddr&(1<<pin.Bit) != 0
}

// PullupEnabled reports whether pin is an input with its pull-up on.
func (m *Machine) PullupEnabled(pin core.Pin) bool {
	s := m.ports.port(pin.Port)
	return s != nil && s.ddr&(1<<pin.Bit) == 0 && s.out&(1<<pin.Bit) != 0
}

// Drive forces pin to a level from outside, as a sensor output would.
func (m *Machine) Drive(pin core.Pin, high bool) {
	s := m.ports.port(pin.Port)
	if s == nil {
		return
	}
	bit := uint8(1) << pin.Bit
	s.driven |= bit
	if high {
		s.ext |= bit
	} else {
		s.ext &^= bit
	}
	m.ports.update(pin.Port)
}

// Release stops driving pin from outside.
func (m *Machine) Release(pin core.Pin) {
	s := m.ports.port(pin.Port)
	if s == nil {
		return
	}
	s.driven &^= 1 << pin.Bit
	m.ports.update(pin.Port)
}

// setOutputBit changes one output latch bit, for OC pins driven by the
// waveform generator.
func (m *Machine) setOutputBit(pin core.Pin, high bool) {
	s := m.ports.port(pin.Port)
	if s == nil {
		return
	}
	v := s.out
	if high {
		v |= 1 << pin.Bit
	} else {
		v &^= 1 << pin.Bit
	}
	m.ports.SetOutput(pin.Port, v)
}
