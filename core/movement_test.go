package core_test

import (
	"math"
	"testing"
	"time"

	"roverbot/core"
)

// pwmWindow is 100 periods of an 8-bit counter at clock/8.
const pwmWindow = 12800 * time.Microsecond

func expectDuty(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("%s duty = %.4f, expected %.4f", name, got, want)
	}
}

func TestCarSameSpeedDuty(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if err := b.car.Drive(core.Forward, 54); err != nil {
		t.Fatal(err)
	}
	right := b.m.NewScope(motor1.Y) // CW drives Y
	left := b.m.NewScope(motor2.X)  // CCW drives X
	b.m.Advance(pwmWindow)

	expectDuty(t, "motor 1", right.Duty(), 137.0/256)
	expectDuty(t, "motor 2", left.Duty(), 137.0/256)
	if !b.car.Moving() || b.car.Direction() != core.Forward {
		t.Errorf("moving %v direction %v", b.car.Moving(), b.car.Direction())
	}
	if s1, s2 := b.car.Speeds(); s1 != 54 || s2 != 54 {
		t.Errorf("Speeds() = %d, %d", s1, s2)
	}
}

func TestCarDifferentSpeedsDuty(t *testing.T) {
	b := newBoard(t, core.DifferentSpeeds)
	if err := b.car.DriveEach(core.Forward, 54, 50); err != nil {
		t.Fatal(err)
	}
	right := b.m.NewScope(motor1.Y)
	left := b.m.NewScope(motor2.X)
	b.m.Advance(pwmWindow)

	expectDuty(t, "motor 1", right.Duty(), 137.0/256)
	expectDuty(t, "motor 2", left.Duty(), 127.0/256)
	if !b.m.TimerRunning(core.Timer1) || !b.m.TimerRunning(core.Timer2) {
		t.Error("both PWM timers should run")
	}
}

func TestCarDifferentSpeedsDefaultForward(t *testing.T) {
	b := newBoard(t, core.DifferentSpeeds)
	if err := b.car.SetDefaultSpeeds(54, 50); err != nil {
		t.Fatal(err)
	}
	if err := b.car.Forward(); err != nil {
		t.Fatal(err)
	}
	right := b.m.NewScope(motor1.Y)
	left := b.m.NewScope(motor2.X)
	wrong1 := b.m.NewScope(motor1.X)
	wrong2 := b.m.NewScope(motor2.Y)

	// Every sample is either the drive pattern or the brake between
	// phases; nothing else may appear on either bridge.
	var cw, ccw, samples int
	for elapsed := time.Duration(0); elapsed < pwmWindow; elapsed += 2 * time.Microsecond {
		b.m.Advance(2 * time.Microsecond)
		samples++
		switch p := b.car.Pattern(1); p {
		case core.PatternCW:
			cw++
		case core.PatternFastStop:
		default:
			t.Fatalf("motor 1 in %v at %v", p, elapsed)
		}
		switch p := b.car.Pattern(2); p {
		case core.PatternCCW:
			ccw++
		case core.PatternFastStop:
		default:
			t.Fatalf("motor 2 in %v at %v", p, elapsed)
		}
	}

	expectDuty(t, "motor 1", right.Duty(), 137.0/256)
	expectDuty(t, "motor 2", left.Duty(), 127.0/256)
	if got := float64(cw) / float64(samples); math.Abs(got-0.54) > 0.02 {
		t.Errorf("motor 1 CW for %.3f of the samples", got)
	}
	if got := float64(ccw) / float64(samples); math.Abs(got-0.50) > 0.02 {
		t.Errorf("motor 2 CCW for %.3f of the samples", got)
	}
	if wrong1.Edges() != 0 || wrong2.Edges() != 0 {
		t.Errorf("reverse outputs toggled: %d, %d edges", wrong1.Edges(), wrong2.Edges())
	}
	if s1, s2 := b.car.Speeds(); s1 != 54 || s2 != 50 {
		t.Errorf("Speeds() = %d, %d", s1, s2)
	}
}

func TestCarSameSpeedRejectsTwoSpeeds(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if err := b.car.DriveEach(core.Forward, 54, 50); err != core.ErrSpeedMode {
		t.Errorf("DriveEach = %v, expected ErrSpeedMode", err)
	}
	if err := b.car.SetDefaultSpeeds(70, 40); err != core.ErrSpeedMode {
		t.Errorf("SetDefaultSpeeds = %v", err)
	}
	if err := b.car.Drive(core.Forward, 101); err != core.ErrDutyOutOfRange {
		t.Errorf("Drive(101) = %v", err)
	}
}

func TestCarDefaultSpeed(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if err := b.car.Forward(); err != nil {
		t.Fatal(err)
	}
	p := b.m.NewScope(motor1.Y)
	b.m.Advance(pwmWindow)
	expectDuty(t, "default", p.Duty(), 153.0/256)
}

func TestCarFullAndZeroDuty(t *testing.T) {
	b := newBoard(t, core.SameSpeed)

	_ = b.car.Drive(core.Backward, 100)
	p := b.m.NewScope(motor1.X) // CCW on motor 1
	b.m.Advance(pwmWindow)
	if p.Duty() != 1 || p.Edges() != 0 {
		t.Errorf("100%%: duty %v with %d edges", p.Duty(), p.Edges())
	}

	_ = b.car.Drive(core.Forward, 0)
	if b.car.Moving() {
		t.Error("zero duty reports moving")
	}
	if b.m.TimerRunning(core.Timer2) {
		t.Error("timer runs at zero duty")
	}
	if b.car.Pattern(1) != core.PatternFastStop || b.car.Pattern(2) != core.PatternFastStop {
		t.Errorf("patterns %v %v", b.car.Pattern(1), b.car.Pattern(2))
	}
}

func TestCarDirections(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	cases := []struct {
		dir    core.Direction
		m1, m2 core.BridgePattern
	}{
		{core.Forward, core.PatternCW, core.PatternCCW},
		{core.Backward, core.PatternCCW, core.PatternCW},
		{core.Right, core.PatternCCW, core.PatternCCW},
		{core.Left, core.PatternCW, core.PatternCW},
	}
	for _, c := range cases {
		if err := b.car.SetDirection(c.dir); err != nil {
			t.Fatal(err)
		}
		// Sample inside the drive phase.
		b.m.Advance(50 * time.Microsecond)
		if got1, got2 := b.car.Pattern(1), b.car.Pattern(2); got1 != c.m1 || got2 != c.m2 {
			t.Errorf("%v: patterns %v %v, expected %v %v", c.dir, got1, got2, c.m1, c.m2)
		}
	}
}

func TestCarRepeatedDirectionKeepsDuty(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	_ = b.car.Drive(core.Forward, 54)
	b.m.Advance(time.Millisecond)
	_ = b.car.SetSpeed(54)
	_ = b.car.Drive(core.Forward, 54)

	p := b.m.NewScope(motor1.Y)
	b.m.Advance(pwmWindow)
	expectDuty(t, "after restart", p.Duty(), 137.0/256)
}

func TestCarSetDirectionTwice(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if err := b.car.SetDefaultSpeed(54); err != nil {
		t.Fatal(err)
	}
	if err := b.car.SetDirection(core.Left); err != nil {
		t.Fatal(err)
	}
	b.m.Advance(time.Millisecond)
	if err := b.car.SetDirection(core.Left); err != nil {
		t.Fatal(err)
	}

	p := b.m.NewScope(motor1.Y)
	b.m.Advance(pwmWindow)
	expectDuty(t, "after the second call", p.Duty(), 137.0/256)
	if b.car.Direction() != core.Left || !b.car.Moving() {
		t.Errorf("direction %v moving %v", b.car.Direction(), b.car.Moving())
	}
	if s1, s2 := b.car.Speeds(); s1 != 54 || s2 != 54 {
		t.Errorf("Speeds() = %d, %d", s1, s2)
	}
}

func TestCarStop(t *testing.T) {
	b := newBoard(t, core.DifferentSpeeds)
	_ = b.car.DriveEach(core.Left, 80, 30)
	b.m.Advance(time.Millisecond)
	b.car.Stop()

	if b.car.Moving() {
		t.Error("Moving() after Stop")
	}
	for _, id := range []core.TimerID{core.Timer1, core.Timer2} {
		if b.m.TimerRunning(id) {
			t.Errorf("%v still running", id)
		}
	}
	if b.car.Pattern(1) != core.PatternFastStop || b.car.Pattern(2) != core.PatternFastStop {
		t.Errorf("patterns %v %v", b.car.Pattern(1), b.car.Pattern(2))
	}
	before := b.m.Dispatched()
	b.m.Advance(time.Millisecond)
	if b.m.Dispatched() != before {
		t.Error("interrupts dispatched after Stop")
	}

	// Stop is safe to repeat and before any drive.
	b.car.Stop()
	b.car.Coast()
	if b.car.Pattern(1) != core.PatternFree {
		t.Errorf("Coast left motor 1 in %v", b.car.Pattern(1))
	}
}

func TestCarSwitchesSpeedMode(t *testing.T) {
	b := newBoard(t, core.DifferentSpeeds)
	_ = b.car.DriveEach(core.Forward, 54, 50)
	if err := b.car.Init(core.SameSpeed); err != nil {
		t.Fatal(err)
	}
	if b.m.TimerRunning(core.Timer1) || b.m.TimerRunning(core.Timer2) {
		t.Error("timers left running across a mode change")
	}
	if b.car.Mode() != core.SameSpeed {
		t.Errorf("Mode() = %v", b.car.Mode())
	}
}

func TestCarMotorIndex(t *testing.T) {
	b := newBoard(t, core.SameSpeed)
	if err := b.car.MotorFullSpeed(3, core.CW); err != core.ErrMotorIndex {
		t.Errorf("MotorFullSpeed(3) = %v", err)
	}
	if err := b.car.MotorFullSpeed(2, core.CW); err != nil {
		t.Fatal(err)
	}
	if b.car.Pattern(2) != core.PatternCW {
		t.Errorf("Pattern(2) = %v", b.car.Pattern(2))
	}
	if err := b.car.MotorBrake(2); err != nil || b.car.Pattern(2) != core.PatternFastStop {
		t.Errorf("MotorBrake(2): %v, %v", err, b.car.Pattern(2))
	}
}
