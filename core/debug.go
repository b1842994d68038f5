package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// ClockSource returns a free-running timestamp used to stamp timing events.
type ClockSource func() uint32

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Unit      uint8  // Peripheral the event belongs to (timer or motor index)
	Clock     uint32 // Clock source value at the event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTrigger      = 1 // ranging pulse sent
	EvtEchoRise     = 2 // echo pulse started
	EvtEchoFall     = 3 // echo pulse ended, distance computed
	EvtEchoTimeout  = 4 // overflow budget exhausted
	EvtEchoDesync   = 5 // edge contradicted the expected edge
	EvtMotorRestart = 6 // PWM restarted with new direction/duty
	EvtMotorStop    = 7 // PWM halted
	EvtServoMove    = 8 // servo pulse width changed
	EvtNavDecision  = 9 // control loop picked a manoeuvre
)

const (
	TimingRingSize = 32
)

var (
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled gates DebugPrintln; timing capture is independent.
	debugEnabled bool = false

	clockSource ClockSource = func() uint32 { return 0 }

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// SetClockSource installs the timestamp used by RecordTiming.
func SetClockSource(src ClockSource) {
	if src == nil {
		src = func() uint32 { return 0 }
	}
	clockSource = src
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer
func RecordTiming(eventType, unit uint8, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Unit:      unit,
		Clock:     clockSource(),
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the recorded events from oldest to newest.
func TimingEvents() []TimingEvent {
	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// String renders e on one line, as DumpTimingRing prints it.
func (e TimingEvent) String() string {
	return timingEventName(e.EventType) +
		" unit=" + itoa(int(e.Unit)) +
		" clock=" + utoa(e.Clock) +
		" v1=" + utoa(e.Value1) +
		" v2=" + utoa(e.Value2)
}

func timingEventName(code uint8) string {
	switch code {
	case EvtTrigger:
		return "TRIGGER"
	case EvtEchoRise:
		return "ECHO_RISE"
	case EvtEchoFall:
		return "ECHO_FALL"
	case EvtEchoTimeout:
		return "ECHO_TIMEOUT!"
	case EvtEchoDesync:
		return "ECHO_DESYNC!"
	case EvtMotorRestart:
		return "PWM_RESTART"
	case EvtMotorStop:
		return "PWM_STOP"
	case EvtServoMove:
		return "SERVO"
	case EvtNavDecision:
		return "NAV"
	}
	return "UNKNOWN"
}

// DumpTimingRing writes the timing ring through the debug writer,
// regardless of whether debug output is enabled.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + evt.String())
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
