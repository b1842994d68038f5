package config

import (
	"errors"
	"testing"
	"time"

	"roverbot/core"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	mode, err := c.SpeedMode()
	if err != nil || mode != core.SameSpeed {
		t.Errorf("speed mode = %v, %v; want same", mode, err)
	}
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		in   string
		want core.Pin
		err  bool
	}{
		{"PA0", core.Pin{Port: core.PortA, Bit: 0}, false},
		{"PD7", core.Pin{Port: core.PortD, Bit: 7}, false},
		{"pb2", core.Pin{Port: core.PortB, Bit: 2}, false},
		{"PE1", core.NoPin, true},
		{"PA8", core.NoPin, true},
		{"D2", core.NoPin, true},
		{"", core.NoPin, true},
		{"XB1", core.NoPin, true},
	}
	for _, tt := range tests {
		got, err := ParsePin(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParsePin(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePin(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestApplyDefaultsKeepsOverrides(t *testing.T) {
	c := &Config{}
	c.Pins.Trigger = "PB0"
	c.Calibration.Threshold = 30
	c.Calibration.SpeedMode = "different"
	applyDefaults(c)

	if c.Pins.Trigger != "PB0" || c.Pins.Echo != "PD2" {
		t.Errorf("pins = %q/%q", c.Pins.Trigger, c.Pins.Echo)
	}
	if c.Calibration.Threshold != 30 {
		t.Errorf("threshold = %v", c.Calibration.Threshold)
	}
	if c.Calibration.ServoTop != core.DefaultServoTop || c.Calibration.CPUFrequency != 16000000 {
		t.Errorf("calibration defaults not applied: %+v", c.Calibration)
	}
	if len(c.Pins.LCD.Data) != 4 {
		t.Errorf("lcd data = %v", c.Pins.LCD.Data)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
		field  string
	}{
		{"bad pin", func(c *Config) { c.Pins.Servo = "PX1" }, ErrBadPin, "pins.servo"},
		{"echo not on INT", func(c *Config) { c.Pins.Echo = "PD6"; c.Pins.Trigger = "PB0" }, ErrEchoLine, "pins.echo"},
		{"reused pin", func(c *Config) { c.Pins.Servo = "PD4" }, ErrPinReused, "pins.servo"},
		{"lcd bus", func(c *Config) { c.Pins.LCD.Data = c.Pins.LCD.Data[:3] }, ErrLCDBus, "pins.lcd.data"},
		{"speed mode", func(c *Config) { c.Calibration.SpeedMode = "fast" }, ErrSpeedMode, "calibration.speed_mode"},
		{"echo prescaler", func(c *Config) { c.Calibration.EchoPrescaler = 32 }, ErrPrescaler, "calibration.echo_prescaler"},
		{"pwm prescaler", func(c *Config) { c.Calibration.PWMPrescaler = 128 }, ErrPrescaler, "calibration.pwm_prescaler"},
		{"speed", func(c *Config) { c.Calibration.Speed2 = 101 }, ErrSpeedPercent, "calibration.speed2"},
		{"servo order", func(c *Config) { c.Calibration.ServoCW90 = 200 }, ErrServoRange, "calibration.servo"},
		{"velocity", func(c *Config) { c.Calibration.SoundVelocity = -1 }, ErrCalibration, "calibration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("error %v carries no field", err)
			}
			// a reused pin names the later field first, then the owner
			if tt.want == ErrPinReused {
				var inner *FieldError
				if !errors.As(fe.Err, &inner) || inner.Field != tt.field {
					t.Errorf("reuse owner = %v, want %s", fe.Err, tt.field)
				}
				return
			}
			if fe.Field != tt.field {
				t.Errorf("field = %q, want %q", fe.Field, tt.field)
			}
		})
	}
}

func TestBuilders(t *testing.T) {
	c := Default()

	rc, err := c.RangerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if rc.Echo != core.Int0 || rc.Timer != core.T0 || rc.Clock != core.Clock64 {
		t.Errorf("ranger config = %+v", rc)
	}
	if rc.Trigger != (core.Pin{Port: core.PortD, Bit: 6}) {
		t.Errorf("trigger = %v", rc.Trigger)
	}
	if rc.TriggerPulse != core.DefaultTriggerPulse || rc.Settle != core.DefaultRangingSettle {
		t.Errorf("ranger timings = %v/%v", rc.TriggerPulse, rc.Settle)
	}

	cc, err := c.CarConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cc.Shared != core.T2 || cc.Motor1Timer != core.T1 || cc.Clock != core.Clock8 {
		t.Errorf("car config = %+v", cc)
	}
	if cc.Motor1.Enable != (core.Pin{Port: core.PortD, Bit: 4}) || cc.Motor2.Y != (core.Pin{Port: core.PortC, Bit: 6}) {
		t.Errorf("bridge pins = %+v / %+v", cc.Motor1, cc.Motor2)
	}

	sc, err := c.ServoConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Clock != core.Clock256 || sc.Top != 1249 || sc.MoveTime != 1700*time.Millisecond {
		t.Errorf("servo config = %+v", sc)
	}

	lc, err := c.LCDConfig()
	if err != nil {
		t.Fatal(err)
	}
	if len(lc.Data) != 4 || lc.Data[0] != (core.Pin{Port: core.PortA, Bit: 4}) || lc.Cols != 16 {
		t.Errorf("lcd config = %+v", lc)
	}

	nc := c.NavConfig()
	if nc.Threshold != core.DefaultObstacleThreshold || nc.TurnAround != core.DefaultTurnAround {
		t.Errorf("nav config = %+v", nc)
	}
}

func TestBuildersWithConfiguredHardware(t *testing.T) {
	c := Default()
	rc, err := c.RangerConfig()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := core.NewRanger(rc); err != nil {
		t.Errorf("NewRanger: %v", err)
	}
	sc, _ := c.ServoConfig()
	if _, err := core.NewServo(sc); err != nil {
		t.Errorf("NewServo: %v", err)
	}
	cc, _ := c.CarConfig()
	if _, err := core.NewCar(cc); err != nil {
		t.Errorf("NewCar: %v", err)
	}
	lc, _ := c.LCDConfig()
	if _, err := core.NewLCD(lc); err != nil {
		t.Errorf("NewLCD: %v", err)
	}
}
