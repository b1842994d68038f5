package core

import "time"

// Calibrated servo pulse widths, in counter ticks of a 50 Hz period
// (prescaler 256, TOP 1249 at 16 MHz).
const (
	DefaultServoTop    uint16 = 1249
	DefaultServoCenter uint16 = 93
	DefaultServoCW90   uint16 = 30
	DefaultServoCCW90  uint16 = 150

	DefaultServoMove   = 1700 * time.Millisecond
	DefaultServoSettle = 500 * time.Millisecond
)

// ServoConfig wires a hobby servo to the 16-bit timer.
type ServoConfig struct {
	Signal Pin
	Timer  *TimerUnit
	Clock  Prescaler

	Top    uint16 // period in ticks, written to the capture register
	Center uint16 // pulse width at 0 degrees
	CW90   uint16 // pulse width at -90 degrees (turned right)
	CCW90  uint16 // pulse width at +90 degrees (turned left)

	MoveTime   time.Duration // how long the pulse train is kept up
	SettleTime time.Duration // pause after the pulse train stops
}

// Servo positions the sensor sweep actuator. The pulse is generated in
// software: the capture event (TOP) raises the signal and compare A drops
// it. Moves block for MoveTime+SettleTime and leave the timer stopped, so
// the timer can be shared with motor PWM as long as the car is stopped.
type Servo struct {
	cfg   ServoConfig
	angle int
}

// NewServo validates cfg.
func NewServo(cfg ServoConfig) (*Servo, error) {
	if !cfg.Signal.Valid() || cfg.Timer == nil {
		return nil, ErrNotConfigured
	}
	if !cfg.Timer.Supports(EventCapture) {
		return nil, ErrNoTopRegister
	}
	if !cfg.Timer.SupportsClock(cfg.Clock) {
		return nil, ErrUnsupportedClock
	}
	if cfg.Top == 0 {
		cfg.Top = DefaultServoTop
	}
	if cfg.Center == 0 {
		cfg.Center = DefaultServoCenter
	}
	if cfg.CW90 == 0 {
		cfg.CW90 = DefaultServoCW90
	}
	if cfg.CCW90 == 0 {
		cfg.CCW90 = DefaultServoCCW90
	}
	if cfg.MoveTime == 0 {
		cfg.MoveTime = DefaultServoMove
	}
	if cfg.SettleTime == 0 {
		cfg.SettleTime = DefaultServoSettle
	}
	return &Servo{cfg: cfg}, nil
}

// Init makes the signal pin an output.
func (s *Servo) Init() error {
	return s.cfg.Signal.ConfigureOutput()
}

// Angle returns the last commanded angle.
func (s *Servo) Angle() int {
	return s.angle
}

func (s *Servo) Center() error      { return s.RotateTo(0) }
func (s *Servo) RotateCW90() error  { return s.RotateTo(-90) }
func (s *Servo) RotateCCW90() error { return s.RotateTo(90) }

// PulseFor returns the compare value for angle, interpolating linearly
// between the calibrated center and end points.
func (s *Servo) PulseFor(angle int) (uint16, error) {
	if angle < -90 || angle > 90 {
		return 0, ErrAngleOutOfRange
	}
	center := int32(s.cfg.Center)
	if angle < 0 {
		return uint16(center - (center-int32(s.cfg.CW90))*int32(-angle)/90), nil
	}
	return uint16(center + (int32(s.cfg.CCW90)-center)*int32(angle)/90), nil
}

// RotateTo moves the servo to angle degrees, negative to the right.
func (s *Servo) RotateTo(angle int) error {
	pulse, err := s.PulseFor(angle)
	if err != nil {
		return err
	}
	t := s.cfg.Timer
	signal := s.cfg.Signal

	state := disableInterrupts()
	s.release()
	err = t.SetCallback(EventCompareA, signal.Low)
	if err == nil {
		err = t.SetCallback(EventCapture, signal.High)
	}
	if err == nil {
		err = t.SetTop(s.cfg.Top)
	}
	if err == nil {
		err = t.SetCompare(ChannelA, pulse)
	}
	if err == nil {
		_ = t.EnableInterrupt(EventCompareA)
		_ = t.EnableInterrupt(EventCapture)
		err = t.Init(ModeFastPWMICR, s.cfg.Clock)
	}
	restoreInterrupts(state)
	if err != nil {
		s.release()
		return err
	}
	RecordTiming(EvtServoMove, uint8(t.ID()), uint32(pulse), uint32(angle+90))

	Delay(s.cfg.MoveTime)
	s.release()
	s.angle = angle
	Delay(s.cfg.SettleTime)
	return nil
}

// release stops the pulse train and parks the signal low.
func (s *Servo) release() {
	t := s.cfg.Timer
	t.Stop()
	_ = t.DisableInterrupt(EventCompareA)
	_ = t.DisableInterrupt(EventCapture)
	s.cfg.Signal.Low()
}
