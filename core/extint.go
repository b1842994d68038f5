package core

// IntLine names an external interrupt input.
type IntLine uint8

const (
	INT0 IntLine = iota
	INT1
	INT2

	numIntLines
)

// Sense selects what the line reacts to.
type Sense uint8

const (
	SenseLowLevel Sense = iota
	SenseAnyChange
	SenseFalling
	SenseRising
)

// ExtIntHardware is the register-level external interrupt interface.
type ExtIntHardware interface {
	SetSense(line IntLine, sense Sense)
	SetEnabled(line IntLine, enabled bool)
	Enabled(line IntLine) bool
}

var extIntHardware ExtIntHardware

// SetExtIntHardware is called by target-specific code to register its driver.
func SetExtIntHardware(hw ExtIntHardware) {
	extIntHardware = hw
}

// MustExtInt returns the configured driver or panics if missing.
func MustExtInt() ExtIntHardware {
	if extIntHardware == nil {
		panic("external interrupt hardware not configured")
	}
	return extIntHardware
}

// ExternalInterruptLine is one external interrupt input with its callback.
type ExternalInterruptLine struct {
	line      IntLine
	pin       Pin
	edgesOnly bool
	// masked lines run their handler inside a critical section so a
	// second edge cannot nest while the first is being handled.
	masked bool

	handler Handler
	sense   Sense
}

var (
	Int0 = &ExternalInterruptLine{line: INT0, pin: Pin{PortD, 2}, masked: true}
	Int1 = &ExternalInterruptLine{line: INT1, pin: Pin{PortD, 3}}
	Int2 = &ExternalInterruptLine{line: INT2, pin: Pin{PortB, 2}, edgesOnly: true}
)

// IntLineByID returns the line object for id, or nil.
func IntLineByID(id IntLine) *ExternalInterruptLine {
	switch id {
	case INT0:
		return Int0
	case INT1:
		return Int1
	case INT2:
		return Int2
	}
	return nil
}

func (l *ExternalInterruptLine) Line() IntLine {
	return l.line
}

// Pin returns the input pin of the line.
func (l *ExternalInterruptLine) Pin() Pin {
	return l.pin
}

// Sense returns the last programmed sense mode.
func (l *ExternalInterruptLine) Sense() Sense {
	return l.sense
}

// SetSense programs level or edge sensitivity. INT2 only knows edges.
func (l *ExternalInterruptLine) SetSense(s Sense) error {
	if s > SenseRising {
		return ErrUnsupportedSense
	}
	if l.edgesOnly && (s == SenseLowLevel || s == SenseAnyChange) {
		return ErrUnsupportedSense
	}
	MustExtInt().SetSense(l.line, s)
	l.sense = s
	return nil
}

func (l *ExternalInterruptLine) Enable() {
	MustExtInt().SetEnabled(l.line, true)
}

func (l *ExternalInterruptLine) Disable() {
	MustExtInt().SetEnabled(l.line, false)
}

func (l *ExternalInterruptLine) Enabled() bool {
	return MustExtInt().Enabled(l.line)
}

// SetCallback binds fn, replacing the previous handler.
func (l *ExternalInterruptLine) SetCallback(fn Handler) {
	state := disableInterrupts()
	l.handler = fn
	restoreInterrupts(state)
}

// ClearCallback unbinds the handler.
func (l *ExternalInterruptLine) ClearCallback() {
	l.SetCallback(nil)
}

// Dispatch runs the bound handler. Interrupt vectors call this.
func (l *ExternalInterruptLine) Dispatch() {
	fn := l.handler
	if fn == nil {
		return
	}
	if l.masked {
		defer MaskInterrupts()()
	}
	fn()
}

func (l *ExternalInterruptLine) reset() {
	l.handler = nil
	l.sense = SenseLowLevel
}

// ResetPeripherals unbinds every timer and external interrupt callback.
// Targets call it once at boot; tests call it between cases.
func ResetPeripherals() {
	for _, t := range Timers() {
		t.reset()
	}
	for id := INT0; id < numIntLines; id++ {
		IntLineByID(id).reset()
	}
}
