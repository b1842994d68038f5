package core

// TimerID names one of the three hardware counters.
type TimerID uint8

const (
	Timer0 TimerID = iota // 8-bit
	Timer1                // 16-bit with input capture
	Timer2                // 8-bit with extended prescaler

	numTimers
)

func (id TimerID) String() string {
	switch id {
	case Timer0:
		return "timer0"
	case Timer1:
		return "timer1"
	case Timer2:
		return "timer2"
	}
	return "timer?"
}

// TimerEvent is an interrupt source of a timer.
type TimerEvent uint8

const (
	EventOverflow TimerEvent = iota
	EventCompareA
	EventCompareB
	EventCapture

	numTimerEvents
)

func (e TimerEvent) String() string {
	switch e {
	case EventOverflow:
		return "overflow"
	case EventCompareA:
		return "compare-a"
	case EventCompareB:
		return "compare-b"
	case EventCapture:
		return "capture"
	}
	return "event?"
}

// Channel selects an output compare unit.
type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
)

// Event returns the compare match event raised by the channel.
func (c Channel) Event() TimerEvent {
	if c == ChannelB {
		return EventCompareB
	}
	return EventCompareA
}

// TimerMode is a waveform generation mode.
type TimerMode uint8

const (
	ModeNormal TimerMode = iota
	ModePhaseCorrect
	ModeCTC
	ModeFastPWM

	// 16-bit timer only
	ModePhaseCorrect9
	ModePhaseCorrect10
	ModeFastPWM9
	ModeFastPWM10
	ModePhaseFreqCorrectICR
	ModePhaseFreqCorrectOCR
	ModePhaseCorrectICR
	ModePhaseCorrectOCR
	ModeCTCICR
	ModeFastPWMICR
	ModeFastPWMOCR

	numModes
)

// TopSource tells where the counter TOP value comes from.
type TopSource uint8

const (
	TopFixed    TopSource = iota // width maximum or a fixed 8/9/10-bit top
	TopCompareA                  // OCRxA
	TopCapture                   // ICR1
)

// ModeInfo describes how a counter behaves in a waveform mode. Hardware
// backends use it to program WGM bits and simulators to emulate counting.
type ModeInfo struct {
	WGM       uint8 // waveform generation bits, datasheet numbering
	Top       TopSource
	FixedTop  uint16
	DualSlope bool // counts up then down
	// OverflowAtTop is set for single-slope PWM modes, where the overflow
	// flag is raised when the counter reaches TOP rather than MAX.
	OverflowAtTop bool
}

// Info returns the counting rules of m for a counter of the given width.
func (m TimerMode) Info(width uint8) ModeInfo {
	max := uint16(0xFF)
	if width == 16 {
		max = 0xFFFF
	}
	switch m {
	case ModeNormal:
		return ModeInfo{WGM: 0, Top: TopFixed, FixedTop: max}
	case ModePhaseCorrect:
		return ModeInfo{WGM: 1, Top: TopFixed, FixedTop: 0xFF, DualSlope: true}
	case ModeCTC:
		wgm := uint8(2)
		if width == 16 {
			wgm = 4
		}
		return ModeInfo{WGM: wgm, Top: TopCompareA}
	case ModeFastPWM:
		wgm := uint8(3)
		if width == 16 {
			wgm = 5
		}
		return ModeInfo{WGM: wgm, Top: TopFixed, FixedTop: 0xFF, OverflowAtTop: true}
	case ModePhaseCorrect9:
		return ModeInfo{WGM: 2, Top: TopFixed, FixedTop: 0x1FF, DualSlope: true}
	case ModePhaseCorrect10:
		return ModeInfo{WGM: 3, Top: TopFixed, FixedTop: 0x3FF, DualSlope: true}
	case ModeFastPWM9:
		return ModeInfo{WGM: 6, Top: TopFixed, FixedTop: 0x1FF, OverflowAtTop: true}
	case ModeFastPWM10:
		return ModeInfo{WGM: 7, Top: TopFixed, FixedTop: 0x3FF, OverflowAtTop: true}
	case ModePhaseFreqCorrectICR:
		return ModeInfo{WGM: 8, Top: TopCapture, DualSlope: true}
	case ModePhaseFreqCorrectOCR:
		return ModeInfo{WGM: 9, Top: TopCompareA, DualSlope: true}
	case ModePhaseCorrectICR:
		return ModeInfo{WGM: 10, Top: TopCapture, DualSlope: true}
	case ModePhaseCorrectOCR:
		return ModeInfo{WGM: 11, Top: TopCompareA, DualSlope: true}
	case ModeCTCICR:
		return ModeInfo{WGM: 12, Top: TopCapture}
	case ModeFastPWMICR:
		return ModeInfo{WGM: 14, Top: TopCapture, OverflowAtTop: true}
	case ModeFastPWMOCR:
		return ModeInfo{WGM: 15, Top: TopCompareA, OverflowAtTop: true}
	}
	return ModeInfo{Top: TopFixed, FixedTop: max}
}

// Prescaler selects the counter clock.
type Prescaler uint8

const (
	ClockStop Prescaler = iota
	Clock1
	Clock8
	Clock32
	Clock64
	Clock128
	Clock256
	Clock1024
	ClockExtFalling
	ClockExtRising
)

// Divisor returns the system clock divider, or 0 for stopped and
// external clock sources.
func (p Prescaler) Divisor() uint32 {
	switch p {
	case Clock1:
		return 1
	case Clock8:
		return 8
	case Clock32:
		return 32
	case Clock64:
		return 64
	case Clock128:
		return 128
	case Clock256:
		return 256
	case Clock1024:
		return 1024
	}
	return 0
}

// PrescalerFor maps a numeric divider to its Prescaler, for configuration
// files that spell the divider out.
func PrescalerFor(divisor uint32) (Prescaler, bool) {
	for p := Clock1; p <= Clock1024; p++ {
		if p.Divisor() == divisor {
			return p, true
		}
	}
	return ClockStop, false
}

// ClockSelect returns the CS bit pattern of p on timer id.
func ClockSelect(id TimerID, p Prescaler) (uint8, bool) {
	if id == Timer2 {
		switch p {
		case ClockStop:
			return 0, true
		case Clock1:
			return 1, true
		case Clock8:
			return 2, true
		case Clock32:
			return 3, true
		case Clock64:
			return 4, true
		case Clock128:
			return 5, true
		case Clock256:
			return 6, true
		case Clock1024:
			return 7, true
		}
		return 0, false
	}
	switch p {
	case ClockStop:
		return 0, true
	case Clock1:
		return 1, true
	case Clock8:
		return 2, true
	case Clock64:
		return 3, true
	case Clock256:
		return 4, true
	case Clock1024:
		return 5, true
	case ClockExtFalling:
		return 6, true
	case ClockExtRising:
		return 7, true
	}
	return 0, false
}

// OutputCompareMode is the passive behaviour of an OC pin on match.
type OutputCompareMode uint8

const (
	OCDisconnected OutputCompareMode = iota
	OCToggle
	OCNonInverting // clear on match
	OCInverting    // set on match
)

// TimerHardware is the register-level timer interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type TimerHardware interface {
	// Configure writes the waveform generation bits.
	Configure(id TimerID, mode TimerMode)

	// SetClock writes the clock select bits. ClockStop halts the counter.
	SetClock(id TimerID, clock Prescaler)

	SetCounter(id TimerID, value uint16)
	Counter(id TimerID) uint16

	SetCompare(id TimerID, ch Channel, value uint16)
	Compare(id TimerID, ch Channel) uint16

	// SetCapture writes the input capture register, used as TOP in the
	// ICR waveform modes.
	SetCapture(id TimerID, value uint16)

	SetCompareOutput(id TimerID, ch Channel, mode OutputCompareMode)

	SetInterruptEnabled(id TimerID, ev TimerEvent, enabled bool)
	InterruptEnabled(id TimerID, ev TimerEvent) bool

	// ClearFlag clears a pending event flag; Flag reads it.
	ClearFlag(id TimerID, ev TimerEvent)
	Flag(id TimerID, ev TimerEvent) bool
}

var timerHardware TimerHardware

// SetTimerHardware is called by target-specific code to register its driver.
func SetTimerHardware(hw TimerHardware) {
	timerHardware = hw
}

// MustTimerHardware returns the configured driver or panics if missing.
func MustTimerHardware() TimerHardware {
	if timerHardware == nil {
		panic("timer hardware not configured")
	}
	return timerHardware
}
