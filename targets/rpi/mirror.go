//go:build linux && !tinygo

package main

import (
	"math"

	"github.com/stianeikeland/go-rpio/v4"

	"roverbot/core"
	"roverbot/sim"
)

// BCM lines the bench H-bridge and servo are wired to.
var (
	motor1Lines = [3]int{23, 24, 25} // enable, x, y
	motor2Lines = [3]int{22, 27, 17}
	servoLine   = 18 // hardware PWM capable
)

const (
	servoFreq  = 50
	servoCycle = 2000 // PWM steps per period
)

// Mirror copies the simulated H-bridge pins onto GPIO lines and follows
// the simulated servo with the hardware PWM of the Pi.
type Mirror struct {
	arena *sim.Arena
	servo rpio.Pin
	angle float64
	moves int
}

// NewMirror makes the lines outputs and starts following the pins.
func NewMirror(m *sim.Machine, arena *sim.Arena, motor1, motor2 core.HBridgeChannel) *Mirror {
	for i, ch := range []core.HBridgeChannel{motor1, motor2} {
		lines := motor1Lines
		if i == 1 {
			lines = motor2Lines
		}
		for j, p := range []core.Pin{ch.Enable, ch.X, ch.Y} {
			follow(m, p, rpio.Pin(lines[j]))
		}
	}

	mi := &Mirror{arena: arena, servo: rpio.Pin(servoLine), angle: math.NaN()}
	mi.servo.Mode(rpio.Pwm)
	mi.servo.Freq(servoFreq * servoCycle)
	mi.Update()
	return mi
}

func follow(m *sim.Machine, p core.Pin, line rpio.Pin) {
	line.Output()
	line.Low()
	m.Watch(p, func(high bool) {
		if high {
			line.High()
		} else {
			line.Low()
		}
	})
}

// Update moves the real servo when the simulated one has turned. The
// pulse spans 1 to 2 ms over -90..90 degrees.
func (mi *Mirror) Update() {
	a := mi.arena.ServoAngle()
	if a == mi.angle {
		return
	}
	mi.angle = a
	mi.moves++
	duty := uint32(100 + (a+90)/180*100)
	mi.servo.DutyCycle(duty, servoCycle)
}

// Moves counts servo updates sent to the hardware.
func (mi *Mirror) Moves() int {
	return mi.moves
}
