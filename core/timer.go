package core

// Handler is an interrupt callback bound to a timer event or external line.
type Handler func()

// TimerUnit is one hardware counter together with the callbacks bound to
// its interrupt events. There is one unit per hardware timer; see T0, T1
// and T2.
type TimerUnit struct {
	id     TimerID
	width  uint8
	events uint8  // supported events, bit per TimerEvent
	modes  uint32 // supported modes, bit per TimerMode
	clocks uint16 // supported clocks, bit per Prescaler

	ocPins [2]Pin
	slots  [numTimerEvents]Handler

	mode  TimerMode
	clock Prescaler
}

const (
	basicModes = 1<<ModeNormal | 1<<ModePhaseCorrect | 1<<ModeCTC | 1<<ModeFastPWM
	wideModes  = 1<<numModes - 1

	standardClocks = 1<<ClockStop | 1<<Clock1 | 1<<Clock8 | 1<<Clock64 |
		1<<Clock256 | 1<<Clock1024 | 1<<ClockExtFalling | 1<<ClockExtRising
	extendedClocks = 1<<ClockStop | 1<<Clock1 | 1<<Clock8 | 1<<Clock32 |
		1<<Clock64 | 1<<Clock128 | 1<<Clock256 | 1<<Clock1024
)

var (
	// T0 is the 8-bit timer used for echo timing.
	T0 = &TimerUnit{
		id:     Timer0,
		width:  8,
		events: 1<<EventOverflow | 1<<EventCompareA,
		modes:  basicModes,
		clocks: standardClocks,
		ocPins: [2]Pin{{PortB, 3}, NoPin},
	}

	// T1 is the 16-bit timer with input capture, shared by motor 1 PWM
	// and the servo.
	T1 = &TimerUnit{
		id:     Timer1,
		width:  16,
		events: 1<<EventOverflow | 1<<EventCompareA | 1<<EventCompareB | 1<<EventCapture,
		modes:  wideModes,
		clocks: standardClocks,
		ocPins: [2]Pin{{PortD, 5}, {PortD, 4}},
	}

	// T2 is the 8-bit timer with the extended prescaler, used for motor PWM.
	T2 = &TimerUnit{
		id:     Timer2,
		width:  8,
		events: 1<<EventOverflow | 1<<EventCompareA,
		modes:  basicModes,
		clocks: extendedClocks,
		ocPins: [2]Pin{{PortD, 7}, NoPin},
	}
)

// Timers returns the units indexed by TimerID.
func Timers() [3]*TimerUnit {
	return [3]*TimerUnit{T0, T1, T2}
}

// TimerByID returns the unit for id, or nil.
func TimerByID(id TimerID) *TimerUnit {
	switch id {
	case Timer0:
		return T0
	case Timer1:
		return T1
	case Timer2:
		return T2
	}
	return nil
}

func (t *TimerUnit) ID() TimerID      { return t.id }
func (t *TimerUnit) Width() uint8     { return t.width }
func (t *TimerUnit) Mode() TimerMode  { return t.mode }
func (t *TimerUnit) Clock() Prescaler { return t.clock }
func (t *TimerUnit) Running() bool    { return t.clock != ClockStop }
func (t *TimerUnit) Max() uint16      { return uint16(1)<<(t.width-1)<<1 - 1 }

// Supports reports whether the unit can raise ev.
func (t *TimerUnit) Supports(ev TimerEvent) bool {
	return ev < numTimerEvents && t.events&(1<<ev) != 0
}

// SupportsMode reports whether the unit implements m.
func (t *TimerUnit) SupportsMode(m TimerMode) bool {
	return m < numModes && t.modes&(1<<m) != 0
}

// SupportsClock reports whether the unit can be clocked from p.
func (t *TimerUnit) SupportsClock(p Prescaler) bool {
	return p <= ClockExtRising && t.clocks&(1<<p) != 0
}

// Init programs the waveform mode and clock source and resets the counter.
// The counter starts as soon as a clock other than ClockStop is selected.
func (t *TimerUnit) Init(mode TimerMode, clock Prescaler) error {
	if !t.SupportsMode(mode) {
		return ErrUnsupportedMode
	}
	if !t.SupportsClock(clock) {
		return ErrUnsupportedClock
	}
	hw := MustTimerHardware()

	state := disableInterrupts()
	defer restoreInterrupts(state)

	hw.SetClock(t.id, ClockStop)
	hw.Configure(t.id, mode)
	hw.SetCounter(t.id, 0)
	hw.SetClock(t.id, clock)
	t.mode = mode
	t.clock = clock
	return nil
}

// Stop clears the clock select bits. Mode and registers are kept.
func (t *TimerUnit) Stop() {
	MustTimerHardware().SetClock(t.id, ClockStop)
	t.clock = ClockStop
}

// SetCallback binds fn to ev, replacing any previous handler. A nil fn
// disables dispatch while leaving the interrupt source untouched.
func (t *TimerUnit) SetCallback(ev TimerEvent, fn Handler) error {
	if !t.Supports(ev) {
		return ErrUnsupportedEvent
	}
	state := disableInterrupts()
	t.slots[ev] = fn
	restoreInterrupts(state)
	return nil
}

// ClearCallback unbinds the handler of ev.
func (t *TimerUnit) ClearCallback(ev TimerEvent) {
	_ = t.SetCallback(ev, nil)
}

// EnableInterrupt lets the hardware raise ev.
func (t *TimerUnit) EnableInterrupt(ev TimerEvent) error {
	if !t.Supports(ev) {
		return ErrUnsupportedEvent
	}
	MustTimerHardware().SetInterruptEnabled(t.id, ev, true)
	return nil
}

// DisableInterrupt masks ev at the source. The callback stays bound.
func (t *TimerUnit) DisableInterrupt(ev TimerEvent) error {
	if !t.Supports(ev) {
		return ErrUnsupportedEvent
	}
	MustTimerHardware().SetInterruptEnabled(t.id, ev, false)
	return nil
}

// InterruptEnabled reports whether ev is unmasked at the source.
func (t *TimerUnit) InterruptEnabled(ev TimerEvent) bool {
	if !t.Supports(ev) {
		return false
	}
	return MustTimerHardware().InterruptEnabled(t.id, ev)
}

func (t *TimerUnit) SetCounter(v uint16) error {
	if v > t.Max() {
		return ErrCompareRange
	}
	MustTimerHardware().SetCounter(t.id, v)
	return nil
}

func (t *TimerUnit) Counter() uint16 {
	return MustTimerHardware().Counter(t.id)
}

// SetCompare writes the output compare register of ch.
func (t *TimerUnit) SetCompare(ch Channel, v uint16) error {
	if !t.Supports(ch.Event()) {
		return ErrUnsupportedEvent
	}
	if v > t.Max() {
		return ErrCompareRange
	}
	MustTimerHardware().SetCompare(t.id, ch, v)
	return nil
}

// Compare reads back the output compare register of ch.
func (t *TimerUnit) Compare(ch Channel) uint16 {
	if !t.Supports(ch.Event()) {
		return 0
	}
	return MustTimerHardware().Compare(t.id, ch)
}

// SetTop writes the input capture register, which is TOP in the ICR modes.
func (t *TimerUnit) SetTop(v uint16) error {
	if !t.Supports(EventCapture) {
		return ErrNoTopRegister
	}
	MustTimerHardware().SetCapture(t.id, v)
	return nil
}

// MapOutputCompare overrides the pin wired to the OC output of ch.
// Boards other than the reference part route OC pins differently.
func (t *TimerUnit) MapOutputCompare(ch Channel, p Pin) {
	if ch <= ChannelB {
		t.ocPins[ch] = p
	}
}

// InitOutputCompare connects the OC pin of ch to the waveform generator
// and makes it an output, so the pin follows matches without software.
func (t *TimerUnit) InitOutputCompare(ch Channel, mode OutputCompareMode) error {
	if !t.Supports(ch.Event()) {
		return ErrUnsupportedEvent
	}
	if mode != OCDisconnected {
		if err := SetPinDirection(t.ocPins[ch], Output); err != nil {
			return err
		}
	}
	MustTimerHardware().SetCompareOutput(t.id, ch, mode)
	return nil
}

// ClearFlag drops a pending ev that has not been dispatched yet.
func (t *TimerUnit) ClearFlag(ev TimerEvent) error {
	if !t.Supports(ev) {
		return ErrUnsupportedEvent
	}
	MustTimerHardware().ClearFlag(t.id, ev)
	return nil
}

// Flag reports whether ev is raised but not yet serviced.
func (t *TimerUnit) Flag(ev TimerEvent) bool {
	if !t.Supports(ev) {
		return false
	}
	return MustTimerHardware().Flag(t.id, ev)
}

// PollWait clears the flag of ev and spins until the hardware sets it
// again. The interrupt of ev must be disabled, otherwise its vector
// clears the flag first and the wait never ends.
func (t *TimerUnit) PollWait(ev TimerEvent) error {
	if !t.Supports(ev) {
		return ErrUnsupportedEvent
	}
	hw := MustTimerHardware()
	hw.ClearFlag(t.id, ev)
	for !hw.Flag(t.id, ev) {
	}
	return nil
}

// Dispatch runs the handler bound to ev. Interrupt vectors call this; an
// unbound slot is ignored.
func (t *TimerUnit) Dispatch(ev TimerEvent) {
	if ev >= numTimerEvents {
		return
	}
	if fn := t.slots[ev]; fn != nil {
		fn()
	}
}

// reset unbinds every slot and forgets the cached configuration.
func (t *TimerUnit) reset() {
	for i := range t.slots {
		t.slots[i] = nil
	}
	t.mode = ModeNormal
	t.clock = ClockStop
}
