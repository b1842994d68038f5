//go:build tinygo && atmega1284p

package main

import (
	"machine"
	"strconv"

	"tinygo.org/x/drivers/hd44780"

	"roverbot/core"
)

// machinePin maps a port/bit pair to TinyGo's pin numbering, which counts
// eight pins per port starting at port A.
func machinePin(p core.Pin) machine.Pin {
	return machine.Pin(uint8(p.Port)*8 + p.Bit)
}

// lcdDisplay adapts the hd44780 driver to core.Display.
type lcdDisplay struct {
	dev hd44780.Device
}

func newLCDDisplay(cfg core.LCDConfig) (*lcdDisplay, error) {
	data := make([]machine.Pin, len(cfg.Data))
	for i, p := range cfg.Data {
		data[i] = machinePin(p)
	}
	var (
		dev hd44780.Device
		err error
	)
	if len(data) == 4 {
		dev, err = hd44780.NewGPIO4Bit(data, machinePin(cfg.E), machinePin(cfg.RS), machinePin(cfg.RW))
	} else {
		dev, err = hd44780.NewGPIO8Bit(data, machinePin(cfg.E), machinePin(cfg.RS), machinePin(cfg.RW))
	}
	if err != nil {
		return nil, err
	}
	if err := dev.Configure(hd44780.Config{Width: int16(cfg.Cols), Height: int16(cfg.Rows)}); err != nil {
		return nil, err
	}
	return &lcdDisplay{dev: dev}, nil
}

func (d *lcdDisplay) Clear() error {
	d.dev.ClearDisplay()
	return nil
}

func (d *lcdDisplay) GoTo(row, col uint8) error {
	d.dev.SetCursor(col, row)
	return nil
}

func (d *lcdDisplay) WriteString(s string) error {
	if _, err := d.dev.Write([]byte(s)); err != nil {
		return err
	}
	return d.dev.Display()
}

func (d *lcdDisplay) WriteNumber(n int32) error {
	return d.WriteString(strconv.Itoa(int(n)))
}
