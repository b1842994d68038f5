package core

import (
	"sync/atomic"
	"time"
)

// Mover is the drive interface the control loop needs.
type Mover interface {
	Forward() error
	Right() error
	Left() error
	Stop()
	Moving() bool
	Direction() Direction
}

// RangeFinder takes a blocking distance measurement in centimeters.
type RangeFinder interface {
	Measure() float32
}

// Sweeper points the range finder.
type Sweeper interface {
	Center() error
	RotateCW90() error
	RotateCCW90() error
}

// Action is the manoeuvre chosen by one control loop step.
type Action uint8

const (
	ActionIdle Action = iota // manual mode, nothing decided
	ActionCruise
	ActionTurnRight
	ActionTurnLeft
	ActionTurnAround
)

func (a Action) String() string {
	switch a {
	case ActionCruise:
		return "cruise"
	case ActionTurnRight:
		return "turn-right"
	case ActionTurnLeft:
		return "turn-left"
	case ActionTurnAround:
		return "turn-around"
	}
	return "idle"
}

// Control loop defaults.
const (
	DefaultObstacleThreshold float32 = 45
	DefaultCruiseDelay               = 100 * time.Millisecond
	DefaultTurnRight                 = 450 * time.Millisecond
	DefaultTurnLeft                  = 430 * time.Millisecond
	DefaultTurnAround                = 790 * time.Millisecond
)

// NavConfig holds the obstacle threshold and the open-loop turn timings,
// which depend on battery, floor and motors and are tuned per robot.
type NavConfig struct {
	Threshold   float32 // cm; anything farther counts as clear
	CruiseDelay time.Duration
	TurnRight   time.Duration // about 90 degrees
	TurnLeft    time.Duration // about 90 degrees
	TurnAround  time.Duration // about 180 degrees, turning right
}

func (c *NavConfig) applyDefaults() {
	if c.Threshold == 0 {
		c.Threshold = DefaultObstacleThreshold
	}
	if c.CruiseDelay == 0 {
		c.CruiseDelay = DefaultCruiseDelay
	}
	if c.TurnRight == 0 {
		c.TurnRight = DefaultTurnRight
	}
	if c.TurnLeft == 0 {
		c.TurnLeft = DefaultTurnLeft
	}
	if c.TurnAround == 0 {
		c.TurnAround = DefaultTurnAround
	}
}

// Screen layout on a 16x2 display.
const (
	dirColumn   = 5
	distColumn  = 6
	unitsColumn = 9
	dirWidth    = 9
)

// Navigator is the sense-decide-act loop: drive forward while the way is
// clear, otherwise stop, look right then left and turn toward the first
// clear side, or turn around when both are blocked.
type Navigator struct {
	car     Mover
	ranger  RangeFinder
	servo   Sweeper
	display Display
	cfg     NavConfig

	autonomous atomic.Bool
	distance   atomic.Uint32 // last reading, whole centimeters
	lastAction atomic.Uint32 // Action
	steps      atomic.Uint32
}

// NewNavigator wires the loop. A nil display is replaced by NopDisplay.
// The navigator starts in autonomous mode.
func NewNavigator(car Mover, ranger RangeFinder, servo Sweeper, display Display, cfg NavConfig) *Navigator {
	if display == nil {
		display = NopDisplay{}
	}
	cfg.applyDefaults()
	n := &Navigator{
		car:     car,
		ranger:  ranger,
		servo:   servo,
		display: display,
		cfg:     cfg,
	}
	n.autonomous.Store(true)
	return n
}

// Start draws the static screen and centers the sensor.
func (n *Navigator) Start() error {
	d := n.display
	if err := d.Clear(); err != nil {
		return err
	}
	_ = d.GoTo(0, 0)
	_ = d.WriteString("Dir: ")
	_ = d.GoTo(1, 0)
	_ = d.WriteString("Dist= ")
	_ = d.GoTo(1, unitsColumn)
	_ = d.WriteString("cm")
	n.car.Stop()
	return n.servo.Center()
}

// SetAutonomous switches between autonomous driving and manual control.
// Leaving autonomous mode stops the car.
func (n *Navigator) SetAutonomous(on bool) {
	if n.autonomous.Swap(on) && !on {
		n.car.Stop()
		n.showDirection("Manual")
	}
}

func (n *Navigator) Autonomous() bool {
	return n.autonomous.Load()
}

// Distance returns the last distance reading in whole centimeters.
func (n *Navigator) Distance() uint32 {
	return n.distance.Load()
}

// LastAction returns the manoeuvre of the last step.
func (n *Navigator) LastAction() Action {
	return Action(n.lastAction.Load())
}

// Steps counts completed loop iterations.
func (n *Navigator) Steps() uint32 {
	return n.steps.Load()
}

// Step runs one loop iteration and returns the manoeuvre it made.
func (n *Navigator) Step() (Action, error) {
	action, err := n.step()
	n.lastAction.Store(uint32(action))
	n.steps.Add(1)
	if action != ActionIdle {
		RecordTiming(EvtNavDecision, uint8(action), n.distance.Load(), 0)
	}
	return action, err
}

func (n *Navigator) step() (Action, error) {
	clear := n.look()
	if !n.autonomous.Load() {
		Delay(n.cfg.CruiseDelay)
		return ActionIdle, nil
	}
	if clear {
		if !n.car.Moving() || n.car.Direction() != Forward {
			n.showDirection(Forward.String())
			if err := n.car.Forward(); err != nil {
				return ActionCruise, err
			}
		}
		Delay(n.cfg.CruiseDelay)
		return ActionCruise, nil
	}

	n.car.Stop()
	n.showDirection("Stopped")

	action, err := n.chooseTurn()
	n.car.Stop()
	if cerr := n.servo.Center(); err == nil {
		err = cerr
	}
	return action, err
}

// chooseTurn scans right, then left, and performs the turn.
func (n *Navigator) chooseTurn() (Action, error) {
	if err := n.servo.RotateCW90(); err != nil {
		return ActionIdle, err
	}
	if n.look() {
		n.showDirection(Right.String())
		return ActionTurnRight, n.turn(n.car.Right, n.cfg.TurnRight)
	}

	if err := n.servo.RotateCCW90(); err != nil {
		return ActionIdle, err
	}
	if n.look() {
		n.showDirection(Left.String())
		return ActionTurnLeft, n.turn(n.car.Left, n.cfg.TurnLeft)
	}

	n.showDirection("U-turn")
	return ActionTurnAround, n.turn(n.car.Right, n.cfg.TurnAround)
}

func (n *Navigator) turn(start func() error, d time.Duration) error {
	if err := start(); err != nil {
		return err
	}
	Delay(d)
	return nil
}

// Refresh takes a measurement and shows it without acting on it.
func (n *Navigator) Refresh() {
	n.look()
}

// look measures, shows the reading and reports whether the way is clear.
func (n *Navigator) look() bool {
	cm := n.ranger.Measure()
	n.distance.Store(uint32(cm))
	_ = n.display.GoTo(1, distColumn)
	_ = n.display.WriteString(FormatCentimeters(cm))
	return cm > n.cfg.Threshold
}

func (n *Navigator) showDirection(name string) {
	_ = n.display.GoTo(0, dirColumn)
	_ = n.display.WriteString(padRight(name, dirWidth))
}

// Run steps the loop until stop is closed. Errors are reported through
// the debug writer and the loop carries on.
func (n *Navigator) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			n.car.Stop()
			return
		default:
		}
		if _, err := n.Step(); err != nil {
			DebugPrintln("[NAV] step failed: " + err.Error())
		}
	}
}
