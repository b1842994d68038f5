//go:build !tinygo

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// ErrNoDevice is returned by Open when the configuration names no device.
var ErrNoDevice = errors.New("serial: no device configured")

// NativePort is an operating system serial device.
type NativePort struct {
	port *serial.Port
	cfg  Config
}

// Open opens the device named by cfg. A zero baud rate means DefaultBaud.
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	c := *cfg
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        c.Device,
		Baud:        c.Baud,
		ReadTimeout: time.Duration(c.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Device, err)
	}
	return &NativePort{port: port, cfg: c}, nil
}

// Device returns the path the port was opened with.
func (p *NativePort) Device() string { return p.cfg.Device }

func (p *NativePort) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *NativePort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}

// Flush discards unread input so a new session starts clean.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}
