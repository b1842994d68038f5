// Package config holds the robot pin map and calibration. Defaults match the
// reference board; every physical constant can be overridden from a file on
// the host side.
package config

import (
	"time"

	"roverbot/core"
)

// MotorPins wires one L293 channel.
type MotorPins struct {
	Enable string `json:"enable" yaml:"enable"`
	X      string `json:"x" yaml:"x"`
	Y      string `json:"y" yaml:"y"`
}

// LCDPins wires an HD44780 module. Data lists D4..D7 or D0..D7.
type LCDPins struct {
	RS   string   `json:"rs" yaml:"rs"`
	RW   string   `json:"rw" yaml:"rw"`
	E    string   `json:"e" yaml:"e"`
	Data []string `json:"data" yaml:"data,flow"`
}

// PinMap names every signal by port and bit, e.g. "PD2".
type PinMap struct {
	Trigger string    `json:"trigger" yaml:"trigger"`
	Echo    string    `json:"echo" yaml:"echo"` // must be an INTn pin
	Motor1  MotorPins `json:"motor1" yaml:"motor1"`
	Motor2  MotorPins `json:"motor2" yaml:"motor2"`
	Servo   string    `json:"servo" yaml:"servo"`
	LCD     LCDPins   `json:"lcd" yaml:"lcd"`
}

// Calibration holds the physical constants and open-loop timings. Zero
// fields take the defaults.
type Calibration struct {
	CPUFrequency   uint32  `json:"cpu_frequency" yaml:"cpu_frequency"`
	SoundVelocity  float32 `json:"sound_velocity" yaml:"sound_velocity"` // cm/s
	MaxDistance    float32 `json:"max_distance" yaml:"max_distance"`     // cm
	EchoPrescaler  uint32  `json:"echo_prescaler" yaml:"echo_prescaler"`
	TriggerPulseUs uint32  `json:"trigger_pulse_us" yaml:"trigger_pulse_us"`
	SettleMs       uint32  `json:"settle_ms" yaml:"settle_ms"`

	SpeedMode    string `json:"speed_mode" yaml:"speed_mode"` // "same" or "different"
	PWMPrescaler uint32 `json:"pwm_prescaler" yaml:"pwm_prescaler"`
	Speed1       uint8  `json:"speed1" yaml:"speed1"`
	Speed2       uint8  `json:"speed2" yaml:"speed2"`

	ServoPrescaler uint32 `json:"servo_prescaler" yaml:"servo_prescaler"`
	ServoTop       uint16 `json:"servo_top" yaml:"servo_top"`
	ServoCenter    uint16 `json:"servo_center" yaml:"servo_center"`
	ServoCW90      uint16 `json:"servo_cw90" yaml:"servo_cw90"`
	ServoCCW90     uint16 `json:"servo_ccw90" yaml:"servo_ccw90"`
	ServoMoveMs    uint32 `json:"servo_move_ms" yaml:"servo_move_ms"`
	ServoSettleMs  uint32 `json:"servo_settle_ms" yaml:"servo_settle_ms"`

	Threshold    float32 `json:"threshold" yaml:"threshold"` // cm
	CruiseMs     uint32  `json:"cruise_ms" yaml:"cruise_ms"`
	TurnRightMs  uint32  `json:"turn_right_ms" yaml:"turn_right_ms"`
	TurnLeftMs   uint32  `json:"turn_left_ms" yaml:"turn_left_ms"`
	TurnAroundMs uint32  `json:"turn_around_ms" yaml:"turn_around_ms"`
}

// Config is a complete robot description.
type Config struct {
	Name        string      `json:"name" yaml:"name"`
	Pins        PinMap      `json:"pins" yaml:"pins"`
	Calibration Calibration `json:"calibration" yaml:"calibration"`
}

// DefaultPins is the reference board wiring. The trigger sits on PD6
// because PD0/PD1 carry the telemetry UART.
func DefaultPins() PinMap {
	return PinMap{
		Trigger: "PD6",
		Echo:    "PD2",
		Motor1:  MotorPins{Enable: "PD4", X: "PC3", Y: "PC4"},
		Motor2:  MotorPins{Enable: "PD5", X: "PC5", Y: "PC6"},
		Servo:   "PD7",
		LCD: LCDPins{
			RS:   "PB1",
			RW:   "PB2",
			E:    "PB3",
			Data: []string{"PA4", "PA5", "PA6", "PA7"},
		},
	}
}

// DefaultCalibration returns the constants of the reference robot.
func DefaultCalibration() Calibration {
	return Calibration{
		CPUFrequency:   16000000,
		SoundVelocity:  34300,
		MaxDistance:    400,
		EchoPrescaler:  64,
		TriggerPulseUs: uint32(core.DefaultTriggerPulse / time.Microsecond),
		SettleMs:       uint32(core.DefaultRangingSettle / time.Millisecond),

		SpeedMode:    core.SameSpeed.String(),
		PWMPrescaler: 8,
		Speed1:       core.DefaultSpeed1,
		Speed2:       core.DefaultSpeed2,

		ServoPrescaler: 256,
		ServoTop:       core.DefaultServoTop,
		ServoCenter:    core.DefaultServoCenter,
		ServoCW90:      core.DefaultServoCW90,
		ServoCCW90:     core.DefaultServoCCW90,
		ServoMoveMs:    uint32(core.DefaultServoMove / time.Millisecond),
		ServoSettleMs:  uint32(core.DefaultServoSettle / time.Millisecond),

		Threshold:    core.DefaultObstacleThreshold,
		CruiseMs:     uint32(core.DefaultCruiseDelay / time.Millisecond),
		TurnRightMs:  uint32(core.DefaultTurnRight / time.Millisecond),
		TurnLeftMs:   uint32(core.DefaultTurnLeft / time.Millisecond),
		TurnAroundMs: uint32(core.DefaultTurnAround / time.Millisecond),
	}
}

// Default returns the reference robot.
func Default() *Config {
	return &Config{
		Name:        "roverbot",
		Pins:        DefaultPins(),
		Calibration: DefaultCalibration(),
	}
}

// applyDefaults fills in empty pins and zero calibration values.
func applyDefaults(c *Config) {
	if c.Name == "" {
		c.Name = "roverbot"
	}

	p, dp := &c.Pins, DefaultPins()
	for _, f := range []struct {
		v *string
		d string
	}{
		{&p.Trigger, dp.Trigger},
		{&p.Echo, dp.Echo},
		{&p.Motor1.Enable, dp.Motor1.Enable},
		{&p.Motor1.X, dp.Motor1.X},
		{&p.Motor1.Y, dp.Motor1.Y},
		{&p.Motor2.Enable, dp.Motor2.Enable},
		{&p.Motor2.X, dp.Motor2.X},
		{&p.Motor2.Y, dp.Motor2.Y},
		{&p.Servo, dp.Servo},
		{&p.LCD.RS, dp.LCD.RS},
		{&p.LCD.RW, dp.LCD.RW},
		{&p.LCD.E, dp.LCD.E},
	} {
		if *f.v == "" {
			*f.v = f.d
		}
	}
	if len(p.LCD.Data) == 0 {
		p.LCD.Data = dp.LCD.Data
	}

	cal, d := &c.Calibration, DefaultCalibration()
	setU32 := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	setU16 := func(v *uint16, def uint16) {
		if *v == 0 {
			*v = def
		}
	}
	setF32 := func(v *float32, def float32) {
		if *v == 0 {
			*v = def
		}
	}

	setU32(&cal.CPUFrequency, d.CPUFrequency)
	setF32(&cal.SoundVelocity, d.SoundVelocity)
	setF32(&cal.MaxDistance, d.MaxDistance)
	setU32(&cal.EchoPrescaler, d.EchoPrescaler)
	setU32(&cal.TriggerPulseUs, d.TriggerPulseUs)
	setU32(&cal.SettleMs, d.SettleMs)

	if cal.SpeedMode == "" {
		cal.SpeedMode = d.SpeedMode
	}
	setU32(&cal.PWMPrescaler, d.PWMPrescaler)
	if cal.Speed1 == 0 {
		cal.Speed1 = d.Speed1
	}
	if cal.Speed2 == 0 {
		cal.Speed2 = d.Speed2
	}

	setU32(&cal.ServoPrescaler, d.ServoPrescaler)
	setU16(&cal.ServoTop, d.ServoTop)
	setU16(&cal.ServoCenter, d.ServoCenter)
	setU16(&cal.ServoCW90, d.ServoCW90)
	setU16(&cal.ServoCCW90, d.ServoCCW90)
	setU32(&cal.ServoMoveMs, d.ServoMoveMs)
	setU32(&cal.ServoSettleMs, d.ServoSettleMs)

	setF32(&cal.Threshold, d.Threshold)
	setU32(&cal.CruiseMs, d.CruiseMs)
	setU32(&cal.TurnRightMs, d.TurnRightMs)
	setU32(&cal.TurnLeftMs, d.TurnLeftMs)
	setU32(&cal.TurnAroundMs, d.TurnAroundMs)
}

// ApplyDefaults fills in everything left empty.
func (c *Config) ApplyDefaults() {
	applyDefaults(c)
}
