package core

import (
	"math"
	"sync/atomic"
	"time"
)

// RangerState is the state of an echo session.
type RangerState uint32

const (
	RangerOff RangerState = iota
	RangerOn
)

func (s RangerState) String() string {
	if s == RangerOn {
		return "on"
	}
	return "off"
}

// Edge is the echo edge the ranger waits for next.
type Edge uint32

const (
	EdgeRising Edge = iota
	EdgeFalling
)

func (e Edge) String() string {
	if e == EdgeFalling {
		return "falling"
	}
	return "rising"
}

const (
	DefaultTriggerPulse  = 15 * time.Microsecond
	DefaultRangingSettle = 30 * time.Millisecond
)

// RangerConfig wires an HC-SR04 style sensor to a timer and an
// external interrupt line.
type RangerConfig struct {
	Trigger Pin
	Echo    *ExternalInterruptLine // must be armed on the echo pin
	Timer   *TimerUnit
	Clock   Prescaler

	CPUFrequency  uint32  // Hz
	SoundVelocity float32 // cm/s
	MaxDistance   float32 // cm, also the value reported on timeout

	TriggerPulse time.Duration // zero selects DefaultTriggerPulse
	Settle       time.Duration // zero selects DefaultRangingSettle
}

// Ranger measures distance from the width of the echo pulse. The timer is
// restarted on the rising edge and read on the falling edge; overflows of
// the 8-bit counter are accumulated to extend the range.
type Ranger struct {
	cfg RangerConfig

	period       uint32  // counter ticks per overflow
	maxOverflows uint16  // overflow budget before the session times out
	cmPerTick    float32 // one-way distance per counter tick

	state    atomic.Uint32 // RangerState
	edge     atomic.Uint32 // Edge
	distance atomic.Uint32 // float32 bits, centimeters
	timeouts atomic.Uint32
	desyncs  atomic.Uint32

	// overflows is written only from interrupt context while a session
	// is ON, and by TriggerSend while it is OFF.
	overflows uint16
}

// NewRanger validates cfg and precomputes the conversion constants.
func NewRanger(cfg RangerConfig) (*Ranger, error) {
	if !cfg.Trigger.Valid() || cfg.Echo == nil || cfg.Timer == nil {
		return nil, ErrNotConfigured
	}
	if !cfg.Timer.Supports(EventOverflow) {
		return nil, ErrUnsupportedEvent
	}
	if !cfg.Timer.SupportsClock(cfg.Clock) || cfg.Clock.Divisor() == 0 {
		return nil, ErrUnsupportedClock
	}
	if cfg.CPUFrequency == 0 || cfg.SoundVelocity <= 0 || cfg.MaxDistance <= 0 {
		return nil, ErrNotConfigured
	}
	if cfg.TriggerPulse == 0 {
		cfg.TriggerPulse = DefaultTriggerPulse
	}
	if cfg.Settle == 0 {
		cfg.Settle = DefaultRangingSettle
	}

	r := &Ranger{cfg: cfg}
	r.period = uint32(cfg.Timer.Max()) + 1
	div := float32(cfg.Clock.Divisor())
	cpu := float32(cfg.CPUFrequency)
	r.cmPerTick = cfg.SoundVelocity * div / cpu / 2
	// Round trip: twice the maximum distance at the speed of sound,
	// expressed in counter periods.
	r.maxOverflows = uint16(2 * cpu * cfg.MaxDistance / (cfg.SoundVelocity * div * float32(r.period)))
	r.setDistance(0)
	return r, nil
}

// Init configures the pins, arms the echo line for any edge and binds the
// echo and overflow handlers. It does not start a measurement.
func (r *Ranger) Init() error {
	if err := r.cfg.Trigger.ConfigureOutput(); err != nil {
		return err
	}
	if err := EnablePullup(r.cfg.Echo.Pin()); err != nil {
		return err
	}
	if err := r.cfg.Echo.SetSense(SenseAnyChange); err != nil {
		return err
	}
	r.cfg.Echo.SetCallback(r.onEcho)
	if err := r.cfg.Timer.SetCallback(EventOverflow, r.onOverflow); err != nil {
		return err
	}
	r.cfg.Echo.Enable()
	return nil
}

// TriggerSend starts an echo session. It returns false without touching
// the sensor when a session is already in flight.
func (r *Ranger) TriggerSend() bool {
	if !r.state.CompareAndSwap(uint32(RangerOff), uint32(RangerOn)) {
		return false
	}
	r.edge.Store(uint32(EdgeRising))
	r.overflows = 0

	r.cfg.Trigger.High()
	Delay(r.cfg.TriggerPulse)
	r.cfg.Trigger.Low()

	_ = r.cfg.Timer.Init(ModeNormal, r.cfg.Clock)
	_ = r.cfg.Timer.EnableInterrupt(EventOverflow)
	RecordTiming(EvtTrigger, uint8(r.cfg.Timer.ID()), 0, 0)
	return true
}

// Measure triggers a session, waits out the measurement window and
// returns the result, so the asynchronous measurement looks synchronous.
func (r *Ranger) Measure() float32 {
	r.TriggerSend()
	Delay(r.cfg.Settle)
	return r.Distance()
}

// Distance returns the last computed distance in centimeters. It is stale
// while a session is in flight.
func (r *Ranger) Distance() float32 {
	return math.Float32frombits(r.distance.Load())
}

func (r *Ranger) State() RangerState {
	return RangerState(r.state.Load())
}

func (r *Ranger) ExpectedEdge() Edge {
	return Edge(r.edge.Load())
}

// Overflows returns the overflow count of the current session.
func (r *Ranger) Overflows() uint16 {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	return r.overflows
}

// MaxOverflows returns the overflow budget of a session.
func (r *Ranger) MaxOverflows() uint16 {
	return r.maxOverflows
}

// CentimetersPerTick is the one-way distance one counter tick represents.
func (r *Ranger) CentimetersPerTick() float32 {
	return r.cmPerTick
}

// Timeouts counts sessions that ended without a falling edge.
func (r *Ranger) Timeouts() uint32 {
	return r.timeouts.Load()
}

// Desyncs counts edges whose level contradicted the expected edge.
func (r *Ranger) Desyncs() uint32 {
	return r.desyncs.Load()
}

func (r *Ranger) setDistance(cm float32) {
	r.distance.Store(math.Float32bits(cm))
}

// onEcho runs on every echo edge. The pin level tells which edge it was,
// which lets the handler recover when an edge was lost.
func (r *Ranger) onEcho() {
	if RangerState(r.state.Load()) != RangerOn {
		return
	}
	high := r.cfg.Echo.Pin().Get()

	switch Edge(r.edge.Load()) {
	case EdgeRising:
		if !high {
			r.desync(0)
			return
		}
		r.pulseStarted()
	case EdgeFalling:
		if high {
			// The falling edge of an earlier pulse went missing; time
			// from this rising edge instead.
			r.desync(1)
			r.pulseStarted()
			return
		}
		r.pulseEnded()
	}
}

func (r *Ranger) pulseStarted() {
	_ = r.cfg.Timer.SetCounter(0)
	// A wrap just before the reset belongs to no pulse.
	_ = r.cfg.Timer.ClearFlag(EventOverflow)
	r.overflows = 0
	r.edge.Store(uint32(EdgeFalling))
	RecordTiming(EvtEchoRise, uint8(r.cfg.Timer.ID()), 0, 0)
}

func (r *Ranger) pulseEnded() {
	t := r.cfg.Timer
	_ = t.DisableInterrupt(EventOverflow)
	counter := t.Counter()
	t.Stop()
	// The edge can land on a wrap whose vector has not run yet. A low
	// counter means the wrap happened inside this pulse.
	if t.Flag(EventOverflow) {
		if uint32(counter) < r.period/2 {
			r.overflows++
		}
		_ = t.ClearFlag(EventOverflow)
	}

	ticks := uint32(r.overflows)*r.period + uint32(counter)
	r.setDistance(float32(ticks) * r.cmPerTick)
	RecordTiming(EvtEchoFall, uint8(t.ID()), uint32(r.overflows), uint32(counter))

	r.overflows = 0
	r.edge.Store(uint32(EdgeRising))
	r.state.Store(uint32(RangerOff))
}

func (r *Ranger) desync(expected uint32) {
	r.desyncs.Add(1)
	RecordTiming(EvtEchoDesync, uint8(r.cfg.Timer.ID()), expected, uint32(r.overflows))
}

// onOverflow extends the 8-bit counter and enforces the session timeout.
func (r *Ranger) onOverflow() {
	if RangerState(r.state.Load()) != RangerOn {
		return
	}
	r.overflows++
	if r.overflows <= r.maxOverflows {
		return
	}

	t := r.cfg.Timer
	_ = t.DisableInterrupt(EventOverflow)
	t.Stop()
	_ = t.SetCounter(0)

	r.setDistance(r.cfg.MaxDistance)
	r.timeouts.Add(1)
	RecordTiming(EvtEchoTimeout, uint8(t.ID()), uint32(r.overflows), 0)

	r.overflows = 0
	r.edge.Store(uint32(EdgeRising))
	r.state.Store(uint32(RangerOff))
}
