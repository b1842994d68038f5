package core

// Port identifies one of the 8-bit I/O port groups.
type Port uint8

const (
	PortA Port = iota
	PortB
	PortC
	PortD

	numPorts
)

func (p Port) String() string {
	if p >= numPorts {
		return "P?"
	}
	return "P" + string(rune('A'+p))
}

// PinDirection is the data direction of a pin or port bit.
type PinDirection uint8

const (
	Input PinDirection = iota
	Output
)

// GPIODriver is the register-level DIO interface that core code uses.
// Each port has a direction register, an output/pull-up register and an
// input register, as on the AVR family.
type GPIODriver interface {
	// SetDirection writes the direction register of a port.
	SetDirection(port Port, mask uint8)

	// Direction reads the direction register (1 = output).
	Direction(port Port) uint8

	// SetOutput writes the output register. For input bits a 1 enables
	// the pull-up resistor.
	SetOutput(port Port, value uint8)

	// Output reads back the output register.
	Output(port Port) uint8

	// Input samples the pin levels of a port.
	Input(port Port) uint8
}

var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
