package core

// SpeedMode selects how the PWM timers are shared between the motors.
type SpeedMode uint8

const (
	// SameSpeed drives both motors from the 8-bit timer with one duty cycle.
	SameSpeed SpeedMode = iota
	// DifferentSpeeds gives motor 1 the 16-bit timer and motor 2 the
	// 8-bit timer, each with its own duty cycle.
	DifferentSpeeds
)

func (m SpeedMode) String() string {
	if m == DifferentSpeeds {
		return "different"
	}
	return "same"
}

// Direction is a drive direction of the car.
type Direction uint8

const (
	Forward Direction = iota
	Backward
	Right
	Left

	numDirections
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "Forward"
	case Backward:
		return "Backward"
	case Right:
		return "Right"
	case Left:
		return "Left"
	}
	return "?"
}

// Letter is the one-character code used on the wire.
func (d Direction) Letter() byte {
	return "FBRL?"[min(int(d), 4)]
}

// DirectionFromLetter parses a wire code.
func DirectionFromLetter(c byte) (Direction, bool) {
	switch c {
	case 'F', 'f':
		return Forward, true
	case 'B', 'b':
		return Backward, true
	case 'R', 'r':
		return Right, true
	case 'L', 'l':
		return Left, true
	}
	return Forward, false
}

// motorRotations lists the rotation of motor 1 and motor 2 per direction.
// The motors face each other, so going straight turns them oppositely.
var motorRotations = [numDirections][2]Rotation{
	Forward:  {CW, CCW},
	Backward: {CCW, CW},
	Right:    {CCW, CCW},
	Left:     {CW, CW},
}

// Default duty cycles applied by the direction calls.
const (
	DefaultSpeed  uint8 = 60
	DefaultSpeed1 uint8 = 60
	DefaultSpeed2 uint8 = 60
)

// CarConfig wires two H-bridge channels to the PWM timers.
type CarConfig struct {
	Motor1, Motor2 HBridgeChannel

	// Shared is the 8-bit timer: both motors in SameSpeed, motor 2 in
	// DifferentSpeeds.
	Shared *TimerUnit
	// Motor1Timer is the 16-bit timer running motor 1 in DifferentSpeeds.
	// Its input capture register is used as TOP.
	Motor1Timer *TimerUnit
	Clock       Prescaler
}

// pwmLeg is one timer generating one duty cycle: the full event opens a
// period in the drive phase, the compare match ends it.
type pwmLeg struct {
	timer  *TimerUnit
	mode   TimerMode
	useTop bool
	full   TimerEvent
	stop   Channel
}

// Car is the motor PWM and direction controller.
//
// Every direction or speed change halts the running configuration,
// rebinds the callbacks and restarts the timers from zero, all with
// interrupts masked. A callback is therefore never rebound while its
// interrupt can fire.
type Car struct {
	cfg  CarConfig
	legs [2]pwmLeg

	// prebuilt handlers, so changing direction does not allocate
	carFull    [numDirections]Handler
	motorFull  [numDirections][2]Handler
	carBrake   Handler
	motorBrake [2]Handler

	mode        SpeedMode
	initialized bool
	defaults    [2]uint8
	speeds      [2]uint8
	dir         Direction
	moving      bool
}

// NewCar validates cfg and prepares the callback tables.
func NewCar(cfg CarConfig) (*Car, error) {
	if cfg.Shared == nil || cfg.Motor1Timer == nil {
		return nil, ErrNotConfigured
	}
	if !cfg.Shared.SupportsClock(cfg.Clock) || !cfg.Motor1Timer.SupportsClock(cfg.Clock) {
		return nil, ErrUnsupportedClock
	}
	if cfg.Shared.Width() != 8 || !cfg.Motor1Timer.Supports(EventCapture) {
		return nil, ErrUnsupportedMode
	}

	c := &Car{
		cfg:      cfg,
		defaults: [2]uint8{DefaultSpeed1, DefaultSpeed2},
	}
	c.legs[0] = pwmLeg{timer: cfg.Motor1Timer, mode: ModeFastPWMICR, useTop: true, full: EventCapture, stop: ChannelA}
	c.legs[1] = pwmLeg{timer: cfg.Shared, mode: ModeFastPWM, full: EventOverflow, stop: ChannelA}

	motors := [2]HBridgeChannel{cfg.Motor1, cfg.Motor2}
	c.carBrake = func() {
		motors[0].FastStop()
		motors[1].FastStop()
	}
	for m := range motors {
		ch := motors[m]
		c.motorBrake[m] = ch.FastStop
	}
	for d := Forward; d < numDirections; d++ {
		r := motorRotations[d]
		c.carFull[d] = func() {
			motors[0].Drive(r[0])
			motors[1].Drive(r[1])
		}
		for m := range motors {
			ch, rot := motors[m], r[m]
			c.motorFull[d][m] = func() { ch.Drive(rot) }
		}
	}
	return c, nil
}

// Init sets up both H-bridge channels, selects the speed mode and leaves
// the motors braked.
func (c *Car) Init(mode SpeedMode) error {
	if err := c.cfg.Motor1.Init(); err != nil {
		return err
	}
	if err := c.cfg.Motor2.Init(); err != nil {
		return err
	}
	// Release whatever the previous mode left running.
	if c.initialized {
		haltLegs(c.legs[:])
	}
	c.mode = mode
	c.initialized = true
	c.carBrake()
	c.moving = false
	return nil
}

func (c *Car) Mode() SpeedMode {
	return c.mode
}

func (c *Car) Direction() Direction {
	return c.dir
}

// Moving reports whether a drive command is in effect.
func (c *Car) Moving() bool {
	return c.moving
}

// Speeds returns the duty cycles of motor 1 and motor 2.
func (c *Car) Speeds() (uint8, uint8) {
	return c.speeds[0], c.speeds[1]
}

// Defaults returns the duty cycles the direction calls use.
func (c *Car) Defaults() (uint8, uint8) {
	return c.defaults[0], c.defaults[1]
}

// SetDefaultSpeed sets the duty cycle used by the direction calls for
// both motors.
func (c *Car) SetDefaultSpeed(percent uint8) error {
	return c.SetDefaultSpeeds(percent, percent)
}

// SetDefaultSpeeds sets per-motor default duty cycles.
func (c *Car) SetDefaultSpeeds(p1, p2 uint8) error {
	if p1 > 100 || p2 > 100 {
		return ErrDutyOutOfRange
	}
	if c.mode == SameSpeed && p1 != p2 {
		return ErrSpeedMode
	}
	c.defaults = [2]uint8{p1, p2}
	return nil
}

// SetDirection drives in d at the default speeds.
func (c *Car) SetDirection(d Direction) error {
	return c.restart(d, c.defaults[0], c.defaults[1])
}

func (c *Car) Forward() error  { return c.SetDirection(Forward) }
func (c *Car) Backward() error { return c.SetDirection(Backward) }
func (c *Car) Right() error    { return c.SetDirection(Right) }
func (c *Car) Left() error     { return c.SetDirection(Left) }

// SetSpeed changes the duty cycle of both motors, keeping the direction.
func (c *Car) SetSpeed(percent uint8) error {
	return c.restart(c.dir, percent, percent)
}

// SetSpeeds changes the per-motor duty cycles, keeping the direction.
func (c *Car) SetSpeeds(p1, p2 uint8) error {
	return c.restart(c.dir, p1, p2)
}

// Drive sets direction and a shared duty cycle in one restart.
func (c *Car) Drive(d Direction, percent uint8) error {
	return c.restart(d, percent, percent)
}

// DriveEach sets direction and per-motor duty cycles in one restart.
func (c *Car) DriveEach(d Direction, p1, p2 uint8) error {
	return c.restart(d, p1, p2)
}

// Stop halts the PWM timers, disables their interrupts and brakes both
// motors. It is safe in any state.
func (c *Car) Stop() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if c.initialized {
		c.halt()
	}
	c.carBrake()
	c.moving = false
	RecordTiming(EvtMotorStop, uint8(c.mode), 0, 0)
}

// FullSpeed halts PWM and drives both motors continuously in d.
func (c *Car) FullSpeed(d Direction) error {
	if d >= numDirections {
		return ErrInvalidDirection
	}
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if c.initialized {
		c.halt()
	}
	c.carFull[d]()
	c.dir = d
	c.speeds = [2]uint8{100, 100}
	c.moving = true
	return nil
}

// MotorFullSpeed drives one motor (1 or 2) at full torque without touching
// the timers. These are the handlers PWM binds to the start of a period.
func (c *Car) MotorFullSpeed(motor int, r Rotation) error {
	ch, err := c.channel(motor)
	if err != nil {
		return err
	}
	ch.Drive(r)
	return nil
}

// Brake fast-stops both motors without touching the timers.
func (c *Car) Brake() {
	c.carBrake()
}

// MotorBrake fast-stops one motor without touching the timers.
func (c *Car) MotorBrake(motor int) error {
	ch, err := c.channel(motor)
	if err != nil {
		return err
	}
	ch.FastStop()
	return nil
}

// Coast lets both motors run free.
func (c *Car) Coast() {
	c.Stop()
	c.cfg.Motor1.FreeStop()
	c.cfg.Motor2.FreeStop()
}

// Pattern returns the H-bridge state of motor 1 or 2.
func (c *Car) Pattern(motor int) BridgePattern {
	ch, err := c.channel(motor)
	if err != nil {
		return PatternFree
	}
	return ch.Pattern()
}

func (c *Car) channel(motor int) (HBridgeChannel, error) {
	switch motor {
	case 1:
		return c.cfg.Motor1, nil
	case 2:
		return c.cfg.Motor2, nil
	}
	return HBridgeChannel{}, ErrMotorIndex
}

// halt stops the timers of the current mode and masks their interrupts.
func (c *Car) halt() {
	if c.mode == DifferentSpeeds {
		haltLegs(c.legs[:])
		return
	}
	haltLegs(c.legs[1:])
}

func haltLegs(legs []pwmLeg) {
	for _, leg := range legs {
		leg.timer.Stop()
		_ = leg.timer.DisableInterrupt(leg.stop.Event())
		_ = leg.timer.DisableInterrupt(leg.full)
	}
}

func (c *Car) restart(d Direction, p1, p2 uint8) error {
	if !c.initialized {
		return ErrNotConfigured
	}
	if d >= numDirections {
		return ErrInvalidDirection
	}
	if c.mode == SameSpeed && p1 != p2 {
		return ErrSpeedMode
	}
	cmp1, on1, err := DutyCompare(p1)
	if err != nil {
		return err
	}
	cmp2, on2, err := DutyCompare(p2)
	if err != nil {
		return err
	}

	state := disableInterrupts()
	defer restoreInterrupts(state)

	c.halt()
	if c.mode == SameSpeed {
		err = c.startLeg(c.legs[1], cmp2, on2, p2, c.carFull[d], c.carBrake)
	} else {
		err = c.startLeg(c.legs[0], cmp1, on1, p1, c.motorFull[d][0], c.motorBrake[0])
		if err == nil {
			err = c.startLeg(c.legs[1], cmp2, on2, p2, c.motorFull[d][1], c.motorBrake[1])
		}
	}
	if err != nil {
		c.halt()
		c.carBrake()
		c.moving = false
		return err
	}

	c.dir = d
	c.speeds = [2]uint8{p1, p2}
	c.moving = on1 || on2
	RecordTiming(EvtMotorRestart, uint8(d), uint32(p1), uint32(p2))
	return nil
}

// startLeg binds and starts one PWM timer. A zero duty cycle leaves the
// motor braked and the timer halted; a full one never arms the compare
// interrupt, so there is no stop phase.
func (c *Car) startLeg(leg pwmLeg, compare uint8, on bool, percent uint8, full, stop Handler) error {
	if !on {
		stop()
		return nil
	}
	t := leg.timer
	if err := t.SetCallback(leg.full, full); err != nil {
		return err
	}
	if err := t.SetCallback(leg.stop.Event(), stop); err != nil {
		return err
	}
	if leg.useTop {
		if err := t.SetTop(0xFF); err != nil {
			return err
		}
	}
	if err := t.SetCompare(leg.stop, uint16(compare)); err != nil {
		return err
	}

	// The counter restarts at BOTTOM, which is the drive phase.
	full()
	if err := t.EnableInterrupt(leg.full); err != nil {
		return err
	}
	if percent < 100 {
		if err := t.EnableInterrupt(leg.stop.Event()); err != nil {
			return err
		}
	}
	return t.Init(leg.mode, c.cfg.Clock)
}
