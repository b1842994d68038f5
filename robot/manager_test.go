package robot_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"roverbot/config"
	"roverbot/core"
	"roverbot/protocol"
	"roverbot/robot"
	"roverbot/sim"
)

// queue is a polled serial receiver.
type queue struct {
	bytes.Buffer
}

func (q *queue) Buffered() int { return q.Len() }

type rig struct {
	m     *sim.Machine
	sonar *sim.Sonar
	mgr   *robot.Manager
	in    *queue
	out   *bytes.Buffer
	lcd   *sim.TextDisplay
}

func newRig(t *testing.T, distance float32) *rig {
	t.Helper()
	m := sim.New(sim.Config{})
	m.Install()
	t.Cleanup(m.Uninstall)

	cfg := config.Default()
	rc, err := cfg.RangerConfig()
	if err != nil {
		t.Fatal(err)
	}
	r := &rig{m: m, in: &queue{}, out: &bytes.Buffer{}, lcd: sim.NewTextDisplay(2, 16)}
	r.sonar = m.NewSonar(sim.SonarConfig{Trigger: rc.Trigger, Echo: rc.Echo.Pin()}, func() float32 { return distance })

	r.mgr, err = robot.NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.mgr.Initialize(r.lcd); err != nil {
		t.Fatal(err)
	}
	r.mgr.Attach(r.in, r.out)
	return r
}

// send feeds text through the polled input and returns what came back.
func (r *rig) send(s string) string {
	r.out.Reset()
	r.in.WriteString(s)
	r.mgr.Poll()
	return r.out.String()
}

func TestManagerLifecycle(t *testing.T) {
	m := sim.New(sim.Config{})
	m.Install()
	t.Cleanup(m.Uninstall)

	mgr, err := robot.NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}
	if mgr.Config().Name != "roverbot" {
		t.Errorf("name = %q", mgr.Config().Name)
	}
	if err := mgr.Start(); !errors.Is(err, robot.ErrNotInitialized) {
		t.Errorf("Start before Initialize = %v", err)
	}
	if s := mgr.Status(); s != (core.Status{}) {
		t.Errorf("status before Initialize = %+v", s)
	}
	mgr.EmergencyStop()

	if err := mgr.Initialize(nil); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Initialize(nil); !errors.Is(err, robot.ErrInitialized) {
		t.Errorf("second Initialize = %v", err)
	}
	if err := mgr.Start(); err != nil {
		t.Fatal(err)
	}
	if !mgr.Running() || mgr.Servo.Angle() != 0 || mgr.Car.Moving() {
		t.Errorf("after Start: running=%v angle=%d moving=%v", mgr.Running(), mgr.Servo.Angle(), mgr.Car.Moving())
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Pins.Echo = "PA0"
	if _, err := robot.NewManager(cfg); !errors.Is(err, config.ErrEchoLine) {
		t.Errorf("NewManager = %v, want %v", err, config.ErrEchoLine)
	}
}

func TestConsoleDrive(t *testing.T) {
	r := newRig(t, 100)

	if got := r.send("fwd 50\n"); got != "ok\n" {
		t.Fatalf("reply = %q", got)
	}
	car := r.mgr.Car
	if !car.Moving() || car.Direction() != core.Forward {
		t.Errorf("car moving=%v direction=%v", car.Moving(), car.Direction())
	}
	if s1, s2 := car.Speeds(); s1 != 50 || s2 != 50 {
		t.Errorf("speeds = %d/%d", s1, s2)
	}
	if r.mgr.Nav.Autonomous() {
		t.Error("manual drive left the robot autonomous")
	}

	if got := r.send("LEFT\r\n"); got != "ok\n" {
		t.Fatalf("reply = %q", got)
	}
	if car.Direction() != core.Left {
		t.Errorf("direction = %v", car.Direction())
	}
	if s1, _ := car.Speeds(); s1 != core.DefaultSpeed1 {
		t.Errorf("default speed = %d", s1)
	}

	if got := r.send("STOP\n"); got != "ok\n" || car.Moving() {
		t.Errorf("stop reply = %q moving = %v", got, car.Moving())
	}
}

func TestConsoleServoAndMode(t *testing.T) {
	r := newRig(t, 100)

	if got := r.send("SERVO -45\n"); got != "ok\n" {
		t.Fatalf("reply = %q", got)
	}
	if r.mgr.Servo.Angle() != -45 {
		t.Errorf("angle = %d", r.mgr.Servo.Angle())
	}
	if got := r.send("auto on\n"); got != "ok\n" || !r.mgr.Nav.Autonomous() {
		t.Errorf("auto on: %q autonomous=%v", got, r.mgr.Nav.Autonomous())
	}
	if got := r.send("AUTO OFF ; park\n"); got != "ok\n" || r.mgr.Nav.Autonomous() {
		t.Errorf("auto off: %q autonomous=%v", got, r.mgr.Nav.Autonomous())
	}
}

func TestConsoleStatus(t *testing.T) {
	r := newRig(t, 150)

	got := r.send("STATUS\n")
	if !strings.HasPrefix(got, "dist=0cm dir=stopped mode=auto ") || !strings.HasSuffix(got, "\nok\n") {
		t.Errorf("status = %q", got)
	}

	got = r.send("MEASURE\n")
	if !strings.HasPrefix(got, "dist=1") || !strings.HasSuffix(got, "\nok\n") {
		t.Errorf("measure = %q", got)
	}
	if d := r.mgr.Nav.Distance(); d < 148 || d > 150 {
		t.Errorf("distance = %d", d)
	}
	if r.sonar.Pings() != 1 {
		t.Errorf("pings = %d", r.sonar.Pings())
	}
}

func TestConsoleTiming(t *testing.T) {
	r := newRig(t, 150)
	if got := r.send("TIMING CLEAR\n"); got != "ok\n" {
		t.Fatalf("clear = %q", got)
	}
	r.send("MEASURE\n")

	got := r.send("TIMING\n")
	for _, want := range []string{"TRIGGER unit=0", "ECHO_RISE", "ECHO_FALL"} {
		if !strings.Contains(got, want) {
			t.Errorf("timing dump lacks %q:\n%s", want, got)
		}
	}
	if got := r.send("TIMING NOW\n"); got != "error: bad argument\n" {
		t.Errorf("bad argument = %q", got)
	}
}

func TestConsoleErrors(t *testing.T) {
	r := newRig(t, 100)

	tests := []struct {
		line string
		want error
	}{
		{"JUMP\n", robot.ErrUnknownVerb},
		{"SERVO 120\n", core.ErrAngleOutOfRange},
		{"SERVO\n", robot.ErrArgument},
		{"SERVO left\n", robot.ErrArgument},
		{"FWD 150\n", core.ErrDutyOutOfRange},
		{"FWD 1 2 3\n", robot.ErrArgument},
		{"AUTO maybe\n", robot.ErrArgument},
		{strings.Repeat("x", 70) + "\n", robot.ErrLineTooLong},
	}
	for _, tt := range tests {
		want := "error: " + tt.want.Error() + "\n"
		if got := r.send(tt.line); got != want {
			t.Errorf("%q -> %q, want %q", tt.line, got, want)
		}
	}

	// one timer drives both motors, so the first speed wins
	if got := r.send("FWD 40 60\n"); got != "ok\n" {
		t.Errorf("uneven speeds -> %q", got)
	}
	if s1, s2 := r.mgr.Car.Speeds(); s1 != 40 || s2 != 40 {
		t.Errorf("speeds = %d/%d", s1, s2)
	}
}

func TestConsoleIgnoresBlankLines(t *testing.T) {
	r := newRig(t, 100)
	if got := r.send("STOP\r\n"); got != "ok\n" {
		t.Fatalf("stop -> %q", got)
	}
	if got := r.send("\r\n\n"); got != "" {
		t.Errorf("blank lines -> %q", got)
	}
	if got := r.send("status ; with a comment\n"); !strings.HasPrefix(got, "dist=") {
		t.Errorf("status -> %q", got)
	}
	if r.mgr.Link().Received() != 0 || r.mgr.Link().Desyncs() != 0 {
		t.Error("console input reached the frame link")
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want *robot.Request
	}{
		{"", nil},
		{"   ", nil},
		{"; comment", nil},
		{"fwd", &robot.Request{Verb: "FWD"}},
		{"Fwd 50\t60", &robot.Request{Verb: "FWD", Args: []string{"50", "60"}}},
		{"auto off;why", &robot.Request{Verb: "AUTO", Args: []string{"OFF"}, Comment: ";why"}},
	}
	for _, tt := range tests {
		got := robot.ParseLine(tt.line)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("ParseLine(%q) = %+v", tt.line, got)
			continue
		}
		if got == nil {
			continue
		}
		if got.Verb != tt.want.Verb || got.Comment != tt.want.Comment || strings.Join(got.Args, ",") != strings.Join(tt.want.Args, ",") {
			t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestFramesAndTextShareThePort(t *testing.T) {
	r := newRig(t, 100)

	enc := protocol.NewEncoder()
	enc.PutUint(uint32(protocol.MsgIdentify))
	frame := protocol.AppendFrame(nil, protocol.MessageDest, enc.Bytes())

	got := r.send(string(frame))
	if !strings.Contains(got, protocol.Version) {
		t.Errorf("identify reply % x does not carry the version", got)
	}
	link := r.mgr.Link()
	if link.Received() != 1 || link.HandlerErrors() != 0 {
		t.Errorf("received=%d errors=%d", link.Received(), link.HandlerErrors())
	}

	if got := r.send("STOP\n"); got != "ok\n" {
		t.Errorf("text after frame -> %q", got)
	}

	enc.Reset()
	enc.PutUint(uint32(protocol.MsgStop))
	frame = protocol.AppendFrame(nil, protocol.NextSeq(protocol.MessageDest), enc.Bytes())
	r.send(string(frame))
	if link.Received() != 2 || link.Desyncs() != 0 {
		t.Errorf("received=%d desyncs=%d", link.Received(), link.Desyncs())
	}
}

func TestRunPollsBetweenSteps(t *testing.T) {
	r := newRig(t, 200)
	if err := r.mgr.Start(); err != nil {
		t.Fatal(err)
	}
	r.in.WriteString("AUTO OFF\n")

	stop := make(chan struct{})
	r.m.After(50*time.Millisecond, func() { close(stop) })
	r.mgr.Run(stop)

	if r.out.String() != "ok\n" {
		t.Errorf("output = %q", r.out.String())
	}
	if r.mgr.Nav.Autonomous() || r.mgr.Car.Moving() {
		t.Errorf("autonomous=%v moving=%v", r.mgr.Nav.Autonomous(), r.mgr.Car.Moving())
	}
	if r.mgr.Nav.Steps() != 1 {
		t.Errorf("steps = %d", r.mgr.Nav.Steps())
	}
	if r.mgr.Running() {
		t.Error("still running after stop")
	}
}

func TestRunDrivesAutonomously(t *testing.T) {
	r := newRig(t, 200)
	if err := r.mgr.Start(); err != nil {
		t.Fatal(err)
	}
	stop := make(chan struct{})
	r.m.After(50*time.Millisecond, func() { close(stop) })
	r.mgr.Run(stop)

	if r.mgr.Nav.LastAction() != core.ActionCruise {
		t.Errorf("last action = %v", r.mgr.Nav.LastAction())
	}
	if r.mgr.Car.Moving() {
		t.Error("Run left the car moving")
	}
	if !strings.HasPrefix(r.lcd.Line(0), "Dir: Forward") {
		t.Errorf("screen line 0 = %q", r.lcd.Line(0))
	}
}
