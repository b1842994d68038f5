//go:build tinygo && atmega1284p

package main

import (
	"device/avr"
	"runtime/volatile"

	"roverbot/core"
)

// portRegs are the DDR, PORT and PIN registers of one port.
type portRegs struct {
	ddr, port, pin *volatile.Register8
}

var ports = [...]portRegs{
	core.PortA: {avr.DDRA, avr.PORTA, avr.PINA},
	core.PortB: {avr.DDRB, avr.PORTB, avr.PINB},
	core.PortC: {avr.DDRC, avr.PORTC, avr.PINC},
	core.PortD: {avr.DDRD, avr.PORTD, avr.PIND},
}

// AVRGPIODriver implements core.GPIODriver on the port registers.
type AVRGPIODriver struct{}

func (AVRGPIODriver) SetDirection(port core.Port, mask uint8) {
	if int(port) < len(ports) {
		ports[port].ddr.Set(mask)
	}
}

func (AVRGPIODriver) Direction(port core.Port) uint8 {
	if int(port) < len(ports) {
		return ports[port].ddr.Get()
	}
	return 0
}

func (AVRGPIODriver) SetOutput(port core.Port, value uint8) {
	if int(port) < len(ports) {
		ports[port].port.Set(value)
	}
}

func (AVRGPIODriver) Output(port core.Port) uint8 {
	if int(port) < len(ports) {
		return ports[port].port.Get()
	}
	return 0
}

func (AVRGPIODriver) Input(port core.Port) uint8 {
	if int(port) < len(ports) {
		return ports[port].pin.Get()
	}
	return 0
}
