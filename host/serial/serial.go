// Package serial opens the link between the host and the robot.
package serial

import (
	"io"
	"net"
)

// Port is a byte stream to the robot. The firmware talks over its UART;
// the simulator and the tests use an in-memory pipe instead.
type Port interface {
	io.ReadWriteCloser

	// Flush pushes out anything the driver still holds.
	Flush() error
}

// Config selects and tunes a serial device.
type Config struct {
	// Device path, e.g. "/dev/ttyUSB0" or "COM3".
	Device string `env:"ROBOT_PORT" envDefault:"/dev/ttyUSB0"`

	// Baud must match the firmware UART setting.
	Baud int `env:"ROBOT_BAUD" envDefault:"38400"`

	// ReadTimeout in milliseconds, 0 blocks.
	ReadTimeout int `env:"ROBOT_READ_TIMEOUT" envDefault:"100"`
}

// DefaultBaud is the rate the firmware programs into its UART.
const DefaultBaud = 38400

// DefaultConfig returns the settings matching the stock firmware.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

type pipePort struct {
	net.Conn
}

func (pipePort) Flush() error { return nil }

// Pipe returns two connected ports. Bytes written to one are read from
// the other, with no buffering in between.
func Pipe() (Port, Port) {
	a, b := net.Pipe()
	return pipePort{a}, pipePort{b}
}
