package config

import (
	"roverbot/core"
)

const (
	ErrBadPin       = core.Error("pin must be written as P<port><bit>, e.g. PD2")
	ErrPinReused    = core.Error("pin assigned to more than one signal")
	ErrEchoLine     = core.Error("echo pin is not an external interrupt input")
	ErrLCDBus       = core.Error("lcd data bus must have 4 or 8 pins")
	ErrSpeedMode    = core.Error("speed mode must be \"same\" or \"different\"")
	ErrPrescaler    = core.Error("prescaler not available on this timer")
	ErrServoRange   = core.Error("servo pulses must satisfy cw90 < center < ccw90 < top")
	ErrSpeedPercent = core.Error("speed must be within 1..100 percent")
)

// FieldError ties a validation failure to the config field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

// ParsePin reads a pin name such as "PD2" or "pb0".
func ParsePin(s string) (core.Pin, error) {
	if len(s) != 3 {
		return core.NoPin, ErrBadPin
	}
	if s[0] != 'P' && s[0] != 'p' {
		return core.NoPin, ErrBadPin
	}
	port := s[1]
	if port >= 'a' && port <= 'z' {
		port -= 'a' - 'A'
	}
	if port < 'A' || s[2] < '0' || s[2] > '7' {
		return core.NoPin, ErrBadPin
	}
	p := core.Pin{Port: core.Port(port - 'A'), Bit: s[2] - '0'}
	if !p.Valid() {
		return core.NoPin, ErrBadPin
	}
	return p, nil
}

// IntLineFor returns the external interrupt line sensing p.
func IntLineFor(p core.Pin) (*core.ExternalInterruptLine, bool) {
	for id := core.INT0; id <= core.INT2; id++ {
		if l := core.IntLineByID(id); l != nil && l.Pin() == p {
			return l, true
		}
	}
	return nil, false
}

// resolved is a PinMap with every name parsed.
type resolved struct {
	trigger, echo, servo core.Pin
	motor1, motor2       core.HBridgeChannel
	rs, rw, e            core.Pin
	data                 []core.Pin
}

func (m PinMap) resolve() (resolved, error) {
	var r resolved
	seen := make(map[core.Pin]string)
	parse := func(field, name string, dst *core.Pin) error {
		p, err := ParsePin(name)
		if err != nil {
			return fieldErr(field, err)
		}
		if prev, dup := seen[p]; dup {
			return fieldErr(field, &FieldError{Field: prev, Err: ErrPinReused})
		}
		seen[p] = field
		*dst = p
		return nil
	}

	fields := []struct {
		name string
		pin  string
		dst  *core.Pin
	}{
		{"pins.trigger", m.Trigger, &r.trigger},
		{"pins.echo", m.Echo, &r.echo},
		{"pins.servo", m.Servo, &r.servo},
		{"pins.motor1.enable", m.Motor1.Enable, &r.motor1.Enable},
		{"pins.motor1.x", m.Motor1.X, &r.motor1.X},
		{"pins.motor1.y", m.Motor1.Y, &r.motor1.Y},
		{"pins.motor2.enable", m.Motor2.Enable, &r.motor2.Enable},
		{"pins.motor2.x", m.Motor2.X, &r.motor2.X},
		{"pins.motor2.y", m.Motor2.Y, &r.motor2.Y},
		{"pins.lcd.rs", m.LCD.RS, &r.rs},
		{"pins.lcd.rw", m.LCD.RW, &r.rw},
		{"pins.lcd.e", m.LCD.E, &r.e},
	}
	for _, f := range fields {
		if err := parse(f.name, f.pin, f.dst); err != nil {
			return r, err
		}
	}

	if n := len(m.LCD.Data); n != 4 && n != 8 {
		return r, fieldErr("pins.lcd.data", ErrLCDBus)
	}
	r.data = make([]core.Pin, len(m.LCD.Data))
	for i, name := range m.LCD.Data {
		if err := parse("pins.lcd.data["+string(rune('0'+i))+"]", name, &r.data[i]); err != nil {
			return r, err
		}
	}

	if _, ok := IntLineFor(r.echo); !ok {
		return r, fieldErr("pins.echo", ErrEchoLine)
	}
	return r, nil
}
