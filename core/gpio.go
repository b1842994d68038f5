package core

// Pin addresses a single bit of a port.
type Pin struct {
	Port Port
	Bit  uint8
}

// NoPin marks an unused signal in a pin map.
var NoPin = Pin{Port: 0xFF, Bit: 0xFF}

func (p Pin) Valid() bool {
	return p.Port < numPorts && p.Bit < 8
}

func (p Pin) mask() uint8 {
	return 1 << p.Bit
}

func (p Pin) String() string {
	if !p.Valid() {
		return "none"
	}
	return p.Port.String() + itoa(int(p.Bit))
}

// SetPinDirection configures one pin as input or output.
func SetPinDirection(p Pin, dir PinDirection) error {
	if !p.Valid() {
		return ErrInvalidPin
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	gpio := MustGPIO()
	ddr := gpio.Direction(p.Port)
	if dir == Output {
		ddr |= p.mask()
	} else {
		ddr &^= p.mask()
	}
	gpio.SetDirection(p.Port, ddr)
	return nil
}

// SetPinValue drives an output pin high or low.
func SetPinValue(p Pin, high bool) error {
	if !p.Valid() {
		return ErrInvalidPin
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	gpio := MustGPIO()
	out := gpio.Output(p.Port)
	if high {
		out |= p.mask()
	} else {
		out &^= p.mask()
	}
	gpio.SetOutput(p.Port, out)
	return nil
}

// TogglePin inverts an output pin.
func TogglePin(p Pin) error {
	if !p.Valid() {
		return ErrInvalidPin
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	gpio := MustGPIO()
	gpio.SetOutput(p.Port, gpio.Output(p.Port)^p.mask())
	return nil
}

// GetPinValue samples the level of a pin.
func GetPinValue(p Pin) (bool, error) {
	if !p.Valid() {
		return false, ErrInvalidPin
	}
	return MustGPIO().Input(p.Port)&p.mask() != 0, nil
}

// EnablePullup turns on the pull-up of an input pin. Writing a one to the
// output register of an input bit selects the pull-up on AVR parts.
func EnablePullup(p Pin) error {
	if err := SetPinDirection(p, Input); err != nil {
		return err
	}
	return SetPinValue(p, true)
}

// SetPortDirection writes a whole port direction register.
func SetPortDirection(port Port, mask uint8) error {
	if port >= numPorts {
		return ErrInvalidPin
	}
	MustGPIO().SetDirection(port, mask)
	return nil
}

// SetPortValue writes a whole port output register.
func SetPortValue(port Port, value uint8) error {
	if port >= numPorts {
		return ErrInvalidPin
	}
	MustGPIO().SetOutput(port, value)
	return nil
}

// TogglePort inverts every output bit of a port.
func TogglePort(port Port) error {
	if port >= numPorts {
		return ErrInvalidPin
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	gpio := MustGPIO()
	gpio.SetOutput(port, ^gpio.Output(port))
	return nil
}

// GetPortValue samples all pins of a port.
func GetPortValue(port Port) (uint8, error) {
	if port >= numPorts {
		return 0, ErrInvalidPin
	}
	return MustGPIO().Input(port), nil
}

// High drives the pin high, ignoring invalid pins. Interrupt callbacks use
// these helpers because they have nowhere to return an error to.
func (p Pin) High() {
	_ = SetPinValue(p, true)
}

// Low drives the pin low.
func (p Pin) Low() {
	_ = SetPinValue(p, false)
}

// Get returns the sampled pin level, false for invalid pins.
func (p Pin) Get() bool {
	v, _ := GetPinValue(p)
	return v
}

// ConfigureOutput sets the pin as an output driven low.
func (p Pin) ConfigureOutput() error {
	if err := SetPinValue(p, false); err != nil {
		return err
	}
	return SetPinDirection(p, Output)
}
