package core_test

import (
	"math"
	"testing"
	"time"

	"roverbot/core"
)

func TestRangerConstants(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if got := b.ranger.MaxOverflows(); got != 22 {
		t.Errorf("MaxOverflows() = %d, expected 22", got)
	}
	if got := b.ranger.CentimetersPerTick(); math.Abs(float64(got)-0.0686) > 1e-6 {
		t.Errorf("CentimetersPerTick() = %v, expected 0.0686", got)
	}
}

func TestRangerMeasuresEchoWidth(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	// 50 counter ticks of 4µs between the edges.
	b.sonar.Script(20*time.Microsecond, 220*time.Microsecond)

	cm := b.ranger.Measure()
	if math.Abs(float64(cm)-3.43) > 1e-3 {
		t.Errorf("Measure() = %v, expected 3.43", cm)
	}
	if b.ranger.State() != core.RangerOff {
		t.Errorf("state = %v after the falling edge", b.ranger.State())
	}
	if b.ranger.ExpectedEdge() != core.EdgeRising {
		t.Errorf("expected edge = %v", b.ranger.ExpectedEdge())
	}
	if b.m.TimerRunning(core.Timer0) {
		t.Error("timer still running after the measurement")
	}
}

func TestRangerRisingEdgeOnCounterWrap(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	// The timer wraps at 1024µs, the same instant the echo rises.
	b.sonar.Script(1024*time.Microsecond, 1224*time.Microsecond)

	cm := b.ranger.Measure()
	if math.Abs(float64(cm)-3.43) > 1e-3 {
		t.Errorf("Measure() = %v, expected 3.43", cm)
	}
}

func TestRangerFallingEdgeOnCounterWrap(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	// Exactly one counter period between the edges: the echo falls on the
	// wrap, before the overflow vector runs.
	b.sonar.Script(20*time.Microsecond, 1044*time.Microsecond)

	cm := b.ranger.Measure()
	want := 256 * 0.0686
	if math.Abs(float64(cm)-want) > 0.1 {
		t.Errorf("Measure() = %v, expected about %.2f", cm, want)
	}
	if n := b.ranger.Timeouts(); n != 0 {
		t.Errorf("Timeouts() = %d", n)
	}
}

func TestRangerLongEchoUsesOverflows(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	b.sonar.SetDistance(150)

	cm := b.ranger.Measure()
	// One counter tick is 0.0686 cm; allow a couple of ticks of slack.
	if math.Abs(float64(cm)-150) > 0.2 {
		t.Errorf("Measure() = %v, expected about 150", cm)
	}
}

func TestRangerTimeout(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	b.sonar.Script() // no echo at all

	cm := b.ranger.Measure()
	if cm != 400 {
		t.Errorf("Measure() = %v, expected the 400 cm timeout value", cm)
	}
	if b.ranger.State() != core.RangerOff {
		t.Errorf("state = %v after timeout", b.ranger.State())
	}
	if b.ranger.Timeouts() != 1 {
		t.Errorf("Timeouts() = %d", b.ranger.Timeouts())
	}
	if b.ranger.Overflows() != 0 {
		t.Errorf("Overflows() = %d after timeout", b.ranger.Overflows())
	}
}

func TestRangerIgnoresTriggerInFlight(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	b.sonar.SetDistance(100)

	if !b.ranger.TriggerSend() {
		t.Fatal("first trigger refused")
	}
	if b.ranger.TriggerSend() {
		t.Error("second trigger accepted while a session is on")
	}
	if b.sonar.Pings() != 1 {
		t.Errorf("sonar saw %d pings", b.sonar.Pings())
	}
	b.m.Advance(core.DefaultRangingSettle)
	if b.ranger.State() != core.RangerOff {
		t.Fatal("session did not finish")
	}
	if !b.ranger.TriggerSend() {
		t.Error("trigger refused after the session ended")
	}
}

func TestRangerRecoversFromLostFallingEdge(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	b.sonar.Script()
	echo := core.Int0.Pin()

	b.ranger.TriggerSend()
	b.m.Drive(echo, true)
	b.m.Advance(100 * time.Microsecond)

	// Two edges inside a critical section leave one pending request,
	// seen with the pin already high again.
	restore := core.MaskInterrupts()
	b.m.Drive(echo, false)
	b.m.Drive(echo, true)
	restore()
	b.m.Advance(0)
	if b.ranger.Desyncs() != 1 {
		t.Fatalf("Desyncs() = %d, expected 1", b.ranger.Desyncs())
	}
	if b.ranger.ExpectedEdge() != core.EdgeFalling {
		t.Errorf("expected edge = %v", b.ranger.ExpectedEdge())
	}

	b.m.Advance(200 * time.Microsecond)
	b.m.Drive(echo, false)
	b.m.Advance(0)
	cm := b.ranger.Distance()
	if math.Abs(float64(cm)-3.43) > 0.07 {
		t.Errorf("distance timed from the new rising edge = %v, expected about 3.43", cm)
	}
}

func TestRangerRejectsFallingEdgeFirst(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	b.sonar.Script()
	echo := core.Int0.Pin()

	b.ranger.TriggerSend()
	restore := core.MaskInterrupts()
	b.m.Drive(echo, true)
	b.m.Drive(echo, false)
	restore()
	b.m.Advance(0)

	if b.ranger.Desyncs() != 1 {
		t.Errorf("Desyncs() = %d, expected 1", b.ranger.Desyncs())
	}
	if b.ranger.ExpectedEdge() != core.EdgeRising || b.ranger.State() != core.RangerOn {
		t.Errorf("edge %v state %v", b.ranger.ExpectedEdge(), b.ranger.State())
	}
}

func TestNewRangerValidates(t *testing.T) {
	newBoard(t, core.SameSpeed)
	cfg := core.RangerConfig{
		Trigger: triggerPin, Echo: core.Int0, Timer: core.T0, Clock: core.Clock32,
		CPUFrequency: 16000000, SoundVelocity: 34300, MaxDistance: 400,
	}
	if _, err := core.NewRanger(cfg); err != core.ErrUnsupportedClock {
		t.Errorf("Clock32 on timer 0: %v", err)
	}
	cfg.Clock = core.Clock64
	cfg.Echo = nil
	if _, err := core.NewRanger(cfg); err != core.ErrNotConfigured {
		t.Errorf("nil echo line: %v", err)
	}
}
