//go:build tinygo && atmega1284p

// Command avr is the robot firmware for the ATmega1284P board: register
// level HAL drivers, interrupt vectors, the HD44780 display and the serial
// link to the host.
//
// Build with TinyGo 0.30.0:
//
//	tinygo build -target=atmega1284p -o robot.hex ./targets/avr
package main

import (
	"machine"
	"time"

	"roverbot/config"
	"roverbot/core"
	"roverbot/robot"
)

const baudRate = 38400

func main() {
	core.SetGPIODriver(AVRGPIODriver{})
	core.SetTimerHardware(AVRTimerDriver{})
	core.SetExtIntHardware(AVRExtIntDriver{})
	core.SetDelayer(core.DelayFunc(busyDelay))
	installVectors()

	machine.Serial.Configure(machine.UARTConfig{BaudRate: baudRate})
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s + "\r\n"))
	})

	mgr, err := robot.NewManager(config.Default())
	if err != nil {
		halt(err)
	}

	// The robot drives without a screen if the module does not answer.
	var display core.Display
	if lc, err := mgr.Config().LCDConfig(); err == nil {
		if d, err := newLCDDisplay(lc); err == nil {
			display = d
		}
	}
	if err := mgr.Initialize(display); err != nil {
		halt(err)
	}
	mgr.Attach(machine.Serial, machine.Serial)

	core.EnableGlobalInterrupts()
	if err := mgr.Start(); err != nil {
		halt(err)
	}
	mgr.Run(nil)
}

// halt reports a startup failure on the console and parks the CPU with
// the motors released.
func halt(err error) {
	machine.Serial.Write([]byte("error: " + err.Error() + "\r\n"))
	core.DumpTimingRing()
	for {
		time.Sleep(time.Second)
	}
}
