package config

import (
	"time"

	"roverbot/core"
)

const ErrCalibration = core.Error("distances, velocity and frequency must be positive")

// Validate checks the pin map and calibration. Call it after defaults are
// applied; zero values are errors here.
func (c *Config) Validate() error {
	if _, err := c.Pins.resolve(); err != nil {
		return err
	}
	cal := c.Calibration
	if cal.CPUFrequency == 0 || cal.SoundVelocity <= 0 || cal.MaxDistance <= 0 || cal.Threshold <= 0 {
		return fieldErr("calibration", ErrCalibration)
	}
	if _, err := c.SpeedMode(); err != nil {
		return err
	}
	if _, err := clockFor("calibration.echo_prescaler", cal.EchoPrescaler, core.T0); err != nil {
		return err
	}
	if _, err := clockFor("calibration.pwm_prescaler", cal.PWMPrescaler, core.T1, core.T2); err != nil {
		return err
	}
	if _, err := clockFor("calibration.servo_prescaler", cal.ServoPrescaler, core.T1); err != nil {
		return err
	}
	if cal.Speed1 == 0 || cal.Speed1 > 100 {
		return fieldErr("calibration.speed1", ErrSpeedPercent)
	}
	if cal.Speed2 == 0 || cal.Speed2 > 100 {
		return fieldErr("calibration.speed2", ErrSpeedPercent)
	}
	if !(cal.ServoCW90 < cal.ServoCenter && cal.ServoCenter < cal.ServoCCW90 && cal.ServoCCW90 < cal.ServoTop) {
		return fieldErr("calibration.servo", ErrServoRange)
	}
	return nil
}

func clockFor(field string, divisor uint32, timers ...*core.TimerUnit) (core.Prescaler, error) {
	p, ok := core.PrescalerFor(divisor)
	if !ok {
		return core.ClockStop, fieldErr(field, ErrPrescaler)
	}
	for _, t := range timers {
		if !t.SupportsClock(p) {
			return core.ClockStop, fieldErr(field, ErrPrescaler)
		}
	}
	return p, nil
}

func ms(v uint32) time.Duration { return time.Duration(v) * time.Millisecond }

// SpeedMode parses the configured motor timer sharing.
func (c *Config) SpeedMode() (core.SpeedMode, error) {
	switch c.Calibration.SpeedMode {
	case core.SameSpeed.String():
		return core.SameSpeed, nil
	case core.DifferentSpeeds.String():
		return core.DifferentSpeeds, nil
	}
	return core.SameSpeed, fieldErr("calibration.speed_mode", ErrSpeedMode)
}

// RangerConfig wires the sensor to timer 0 and the INT line of the echo pin.
func (c *Config) RangerConfig() (core.RangerConfig, error) {
	pins, err := c.Pins.resolve()
	if err != nil {
		return core.RangerConfig{}, err
	}
	cal := c.Calibration
	clock, err := clockFor("calibration.echo_prescaler", cal.EchoPrescaler, core.T0)
	if err != nil {
		return core.RangerConfig{}, err
	}
	echo, _ := IntLineFor(pins.echo)
	return core.RangerConfig{
		Trigger:       pins.trigger,
		Echo:          echo,
		Timer:         core.T0,
		Clock:         clock,
		CPUFrequency:  cal.CPUFrequency,
		SoundVelocity: cal.SoundVelocity,
		MaxDistance:   cal.MaxDistance,
		TriggerPulse:  time.Duration(cal.TriggerPulseUs) * time.Microsecond,
		Settle:        ms(cal.SettleMs),
	}, nil
}

// CarConfig puts both motors on timer 2, with timer 1 taking motor 1 in
// the different-speeds mode.
func (c *Config) CarConfig() (core.CarConfig, error) {
	pins, err := c.Pins.resolve()
	if err != nil {
		return core.CarConfig{}, err
	}
	clock, err := clockFor("calibration.pwm_prescaler", c.Calibration.PWMPrescaler, core.T1, core.T2)
	if err != nil {
		return core.CarConfig{}, err
	}
	return core.CarConfig{
		Motor1:      pins.motor1,
		Motor2:      pins.motor2,
		Shared:      core.T2,
		Motor1Timer: core.T1,
		Clock:       clock,
	}, nil
}

// ServoConfig drives the sweep servo from timer 1.
func (c *Config) ServoConfig() (core.ServoConfig, error) {
	pins, err := c.Pins.resolve()
	if err != nil {
		return core.ServoConfig{}, err
	}
	cal := c.Calibration
	clock, err := clockFor("calibration.servo_prescaler", cal.ServoPrescaler, core.T1)
	if err != nil {
		return core.ServoConfig{}, err
	}
	return core.ServoConfig{
		Signal:     pins.servo,
		Timer:      core.T1,
		Clock:      clock,
		Top:        cal.ServoTop,
		Center:     cal.ServoCenter,
		CW90:       cal.ServoCW90,
		CCW90:      cal.ServoCCW90,
		MoveTime:   ms(cal.ServoMoveMs),
		SettleTime: ms(cal.ServoSettleMs),
	}, nil
}

// LCDConfig describes a 16x2 module.
func (c *Config) LCDConfig() (core.LCDConfig, error) {
	pins, err := c.Pins.resolve()
	if err != nil {
		return core.LCDConfig{}, err
	}
	return core.LCDConfig{
		RS:   pins.rs,
		RW:   pins.rw,
		E:    pins.e,
		Data: pins.data,
		Rows: 2,
		Cols: 16,
	}, nil
}

func (c *Config) NavConfig() core.NavConfig {
	cal := c.Calibration
	return core.NavConfig{
		Threshold:   cal.Threshold,
		CruiseDelay: ms(cal.CruiseMs),
		TurnRight:   ms(cal.TurnRightMs),
		TurnLeft:    ms(cal.TurnLeftMs),
		TurnAround:  ms(cal.TurnAroundMs),
	}
}
