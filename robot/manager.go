// Package robot assembles the drivers into a running robot from a
// configuration and serves the serial port, both framed telemetry and the
// plain-text console.
package robot

import (
	"io"

	"roverbot/config"
	"roverbot/core"
	"roverbot/protocol"
)

const (
	ErrInitialized    = core.Error("robot already initialized")
	ErrNotInitialized = core.Error("robot not initialized")
)

// Input is a byte source polled from the control loop. machine.UART
// satisfies it on the board.
type Input interface {
	Buffered() int
	ReadByte() (byte, error)
}

// Manager owns every driver of one robot.
type Manager struct {
	config *config.Config

	Ranger   *core.Ranger
	Car      *core.Car
	Servo    *core.Servo
	Nav      *core.Navigator
	Commands *core.CommandRegistry

	telemetry *core.Telemetry
	link      *protocol.Link
	console   *Console
	in        Input
	one       [1]byte

	// textMode is set while the console owns the port, so line
	// terminators between lines are not taken for frame lengths.
	textMode bool

	initialized bool
	running     bool
}

// NewManager validates cfg. A nil cfg selects the reference robot.
func NewManager(cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		config:   cfg,
		Commands: core.NewCommandRegistry(),
	}, nil
}

// Config returns the configuration the robot was built from.
func (m *Manager) Config() *config.Config {
	return m.config
}

// Initialize builds and initializes the drivers. The HAL drivers must be
// registered before. A nil display disables screen output.
func (m *Manager) Initialize(display core.Display) error {
	if m.initialized {
		return ErrInitialized
	}
	cfg := m.config

	rc, err := cfg.RangerConfig()
	if err != nil {
		return err
	}
	if m.Ranger, err = core.NewRanger(rc); err != nil {
		return err
	}
	if err := m.Ranger.Init(); err != nil {
		return err
	}

	cc, err := cfg.CarConfig()
	if err != nil {
		return err
	}
	if m.Car, err = core.NewCar(cc); err != nil {
		return err
	}
	mode, err := cfg.SpeedMode()
	if err != nil {
		return err
	}
	if err := m.Car.Init(mode); err != nil {
		return err
	}
	s1, s2 := cfg.Calibration.Speed1, cfg.Calibration.Speed2
	if mode == core.SameSpeed {
		s2 = s1
	}
	if err := m.Car.SetDefaultSpeeds(s1, s2); err != nil {
		return err
	}

	sc, err := cfg.ServoConfig()
	if err != nil {
		return err
	}
	if m.Servo, err = core.NewServo(sc); err != nil {
		return err
	}
	if err := m.Servo.Init(); err != nil {
		return err
	}

	m.Nav = core.NewNavigator(m.Car, m.Ranger, m.Servo, display, cfg.NavConfig())
	if m.telemetry, err = core.NewTelemetry(m.Commands, m, m.Nav, m.Car, m.Ranger, m.Servo); err != nil {
		return err
	}
	m.initialized = true
	core.DebugPrintln("[ROBOT] " + cfg.Name + " initialized, speed mode " + mode.String())
	return nil
}

// Attach connects the serial port. Frames go to the telemetry link and
// lines starting with a letter to the console; both answer on w.
func (m *Manager) Attach(in Input, w io.Writer) {
	m.in = in
	m.link = protocol.NewLink(w, m.Handle)
	m.link.OnReset(func() {
		core.DebugPrintln("[ROBOT] host restarted the link")
	})
	m.console = NewConsole(m, w)
}

// Link returns the telemetry link, nil before Attach.
func (m *Manager) Link() *protocol.Link {
	return m.link
}

// Handle dispatches one telemetry message.
func (m *Manager) Handle(id uint16, args *protocol.Decoder) error {
	return m.Commands.Dispatch(id, args)
}

// Send carries telemetry replies to the attached link. Replies are dropped
// while no link is attached.
func (m *Manager) Send(id uint16, fill func(e *protocol.Encoder)) error {
	if m.link == nil {
		return nil
	}
	return m.link.Send(id, fill)
}

// Status returns the telemetry snapshot.
func (m *Manager) Status() core.Status {
	if m.telemetry == nil {
		return core.Status{}
	}
	return m.telemetry.Snapshot()
}

// Poll drains the attached input.
func (m *Manager) Poll() {
	if m.in == nil {
		return
	}
	for m.in.Buffered() > 0 {
		b, err := m.in.ReadByte()
		if err != nil {
			return
		}
		m.Feed(b)
	}
}

// Feed routes one received byte. Frame lengths never exceed
// protocol.MessageMax, which is below 'A', so a letter on an idle link
// opens a console line.
func (m *Manager) Feed(b byte) {
	if m.console == nil {
		return
	}
	switch {
	case m.console.Busy():
		m.console.Feed(b)
	case m.link.Idle() && isLetter(b):
		m.textMode = true
		m.console.Feed(b)
	case m.textMode && m.link.Idle() && (b == '\n' || b == '\r'):
		m.console.Feed(b)
	default:
		m.textMode = false
		m.one[0] = b
		m.link.Feed(m.one[:])
	}
}

// Start draws the screen, centers the sensor and leaves the car stopped.
func (m *Manager) Start() error {
	if !m.initialized {
		return ErrNotInitialized
	}
	if err := m.Nav.Start(); err != nil {
		return err
	}
	m.running = true
	return nil
}

// Run alternates serial polling and navigator steps until stop is closed.
func (m *Manager) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			m.Car.Stop()
			m.running = false
			return
		default:
		}
		m.Poll()
		if _, err := m.Nav.Step(); err != nil {
			core.DebugPrintln("[NAV] step failed: " + err.Error())
		}
	}
}

// Serve attaches rw as the serial port and runs until stop is closed.
// A goroutine copies received bytes into a Queue so that the drivers are
// only touched from the calling goroutine; it ends when rw is closed.
func (m *Manager) Serve(rw io.ReadWriter, stop <-chan struct{}) error {
	if !m.running {
		if err := m.Start(); err != nil {
			return err
		}
	}
	q := NewQueue(0)
	go io.Copy(q, rw)
	m.Attach(q, rw)
	m.Run(stop)
	return nil
}

func (m *Manager) Running() bool {
	return m.running
}

// EmergencyStop leaves autonomous mode and brakes both motors.
func (m *Manager) EmergencyStop() {
	if !m.initialized {
		return
	}
	m.Nav.SetAutonomous(false)
	m.Car.Stop()
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
