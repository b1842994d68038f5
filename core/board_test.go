package core_test

import (
	"testing"

	"roverbot/core"
	"roverbot/sim"
)

var (
	triggerPin = core.Pin{Port: core.PortB, Bit: 0}
	servoPin   = core.Pin{Port: core.PortA, Bit: 7}
	motor1     = core.HBridgeChannel{
		Enable: core.Pin{Port: core.PortC, Bit: 0},
		X:      core.Pin{Port: core.PortC, Bit: 1},
		Y:      core.Pin{Port: core.PortC, Bit: 2},
	}
	motor2 = core.HBridgeChannel{
		Enable: core.Pin{Port: core.PortC, Bit: 3},
		X:      core.Pin{Port: core.PortC, Bit: 4},
		Y:      core.Pin{Port: core.PortC, Bit: 5},
	}
)

// board is a simulated robot with every peripheral initialized.
type board struct {
	m      *sim.Machine
	sonar  *sim.Sonar
	ranger *core.Ranger
	car    *core.Car
	servo  *core.Servo
}

func newBoard(t *testing.T, mode core.SpeedMode) *board {
	t.Helper()
	m := sim.New(sim.Config{})
	m.Install()
	t.Cleanup(m.Uninstall)

	b := &board{m: m}
	b.sonar = m.NewSonar(sim.SonarConfig{Trigger: triggerPin, Echo: core.Int0.Pin()}, nil)

	var err error
	b.ranger, err = core.NewRanger(core.RangerConfig{
		Trigger:       triggerPin,
		Echo:          core.Int0,
		Timer:         core.T0,
		Clock:         core.Clock64,
		CPUFrequency:  m.CPUFrequency(),
		SoundVelocity: 34300,
		MaxDistance:   400,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ranger.Init(); err != nil {
		t.Fatal(err)
	}

	b.car, err = core.NewCar(core.CarConfig{
		Motor1:      motor1,
		Motor2:      motor2,
		Shared:      core.T2,
		Motor1Timer: core.T1,
		Clock:       core.Clock8,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.car.Init(mode); err != nil {
		t.Fatal(err)
	}

	b.servo, err = core.NewServo(core.ServoConfig{Signal: servoPin, Timer: core.T1, Clock: core.Clock256})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.servo.Init(); err != nil {
		t.Fatal(err)
	}
	return b
}
