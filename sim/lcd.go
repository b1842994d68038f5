//go:build !tinygo

package sim

import "roverbot/core"

// LCDBus names the pins of an HD44780 module. Data holds D4..D7 for a
// 4-bit wiring or D0..D7 for an 8-bit one.
type LCDBus struct {
	RS, E core.Pin
	Data  []core.Pin
}

// LCDDecoder listens to an HD44780 bus and replays what the controller
// would do onto a TextDisplay. Bytes are latched on the falling edge of E.
type LCDDecoder struct {
	m       *Machine
	bus     LCDBus
	display *TextDisplay

	fourBit   bool // controller interface width, not the wiring
	half      bool // high nibble latched, waiting for the low one
	high      uint8
	backward  bool
	displayOn bool

	instructions []uint8
	chars        int
}

// NewLCDDecoder attaches a decoder that renders onto d.
func (m *Machine) NewLCDDecoder(bus LCDBus, d *TextDisplay) *LCDDecoder {
	dec := &LCDDecoder{m: m, bus: bus, display: d}
	m.Watch(bus.E, func(high bool) {
		if !high {
			dec.latch()
		}
	})
	return dec
}

func (d *LCDDecoder) latch() {
	var v uint8
	for i, p := range d.bus.Data {
		if d.m.Level(p) {
			v |= 1 << i
		}
	}
	rs := d.m.Level(d.bus.RS)

	if len(d.bus.Data) == 8 {
		d.process(rs, v)
		return
	}
	if !d.fourBit {
		// Only D4..D7 are wired; D0..D3 read as zero.
		d.process(rs, v<<4)
		return
	}
	if !d.half {
		d.high = v
		d.half = true
		return
	}
	d.half = false
	d.process(rs, d.high<<4|v)
}

func (d *LCDDecoder) process(rs bool, b uint8) {
	if rs {
		d.chars++
		d.display.mu.Lock()
		d.display.put(b)
		d.display.mu.Unlock()
		return
	}
	d.instructions = append(d.instructions, b)
	switch {
	case b&0x80 != 0:
		addr := int(b & 0x7F)
		row := 0
		if addr >= 0x40 {
			row, addr = 1, addr-0x40
		}
		d.display.setCursor(row, addr, d.backward)
	case b&0x40 != 0:
		// Character generator RAM is not modelled.
	case b&0x20 != 0:
		if len(d.bus.Data) == 4 {
			d.fourBit = b&0x10 == 0
			d.half = false
		}
	case b&0x10 != 0:
		if b&0x08 == 0 {
			row, col := d.display.cursor()
			if b&0x04 != 0 {
				col++
			} else {
				col--
			}
			d.display.setCursor(row, col, d.backward)
		}
	case b&0x08 != 0:
		d.displayOn = b&0x04 != 0
	case b&0x04 != 0:
		d.backward = b&0x02 == 0
		row, col := d.display.cursor()
		d.display.setCursor(row, col, d.backward)
	case b&0x02 != 0:
		d.display.setCursor(0, 0, d.backward)
	case b&0x01 != 0:
		_ = d.display.Clear()
		d.display.setCursor(0, 0, d.backward)
	}
}

// FourBit reports whether the controller has switched to the 4-bit
// interface.
func (d *LCDDecoder) FourBit() bool { return d.fourBit }

// DisplayOn reports the display enable bit.
func (d *LCDDecoder) DisplayOn() bool { return d.displayOn }

// Instructions returns every instruction byte received.
func (d *LCDDecoder) Instructions() []uint8 { return d.instructions }

// Chars counts data bytes received.
func (d *LCDDecoder) Chars() int { return d.chars }
