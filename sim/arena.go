//go:build !tinygo

package sim

import (
	"math"
	"sync"
	"time"

	"roverbot/core"
)

// Point is a position in the arena, in cm.
type Point struct {
	X, Y float64
}

// Wall is an obstacle segment.
type Wall struct {
	A, B Point
}

// Pose is the robot position and heading. Heading is in radians, zero
// along +X, counter-clockwise positive.
type Pose struct {
	X, Y    float64
	Heading float64
}

// Default robot geometry.
const (
	DefaultWheelSpeed   = 44.0 // cm/s at full drive
	DefaultTrack        = 13.0 // cm between the wheels
	DefaultRobotRadius  = 8.0
	DefaultSensorOffset = 6.0 // cm ahead of the axle
)

// ArenaConfig describes the room and the robot wiring the arena observes.
type ArenaConfig struct {
	Width, Height float64 // room size in cm; zero means 300 x 200
	Start         Pose

	// Motor1 is the right wheel, Motor2 the left one. Forward is CW on
	// motor 1 and CCW on motor 2.
	Motor1, Motor2 core.HBridgeChannel

	Servo core.Pin

	// Pulse widths at the servo end stops and center.
	ServoCW90, ServoCenter, ServoCCW90 time.Duration

	WheelSpeed   float64
	Track        float64
	Radius       float64
	SensorOffset float64
}

// Arena moves a differential drive robot around a walled room according
// to the H-bridge pin levels, and points a range sensor according to the
// servo pulse width.
type Arena struct {
	m   *Machine
	cfg ArenaConfig

	mu         sync.Mutex
	walls      []Wall
	pose       Pose
	servo      float64 // degrees, positive to the left
	odometer   float64
	collisions int

	last        uint64
	left, right float64 // current wheel speeds, cm/s
	servoRise   uint64
}

// NewArena builds a rectangular room and starts observing the robot pins.
func (m *Machine) NewArena(cfg ArenaConfig) *Arena {
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = 300, 200
		if cfg.Start == (Pose{}) {
			cfg.Start = Pose{X: 150, Y: 100}
		}
	}
	if cfg.WheelSpeed == 0 {
		cfg.WheelSpeed = DefaultWheelSpeed
	}
	if cfg.Track == 0 {
		cfg.Track = DefaultTrack
	}
	if cfg.Radius == 0 {
		cfg.Radius = DefaultRobotRadius
	}
	if cfg.SensorOffset == 0 {
		cfg.SensorOffset = DefaultSensorOffset
	}
	if cfg.ServoCenter == 0 {
		cfg.ServoCW90 = 480 * time.Microsecond
		cfg.ServoCenter = 1488 * time.Microsecond
		cfg.ServoCCW90 = 2400 * time.Microsecond
	}

	a := &Arena{m: m, cfg: cfg, pose: cfg.Start, last: m.now}
	w, h := cfg.Width, cfg.Height
	a.walls = []Wall{
		{Point{0, 0}, Point{w, 0}},
		{Point{w, 0}, Point{w, h}},
		{Point{w, h}, Point{0, h}},
		{Point{0, h}, Point{0, 0}},
	}
	for _, ch := range []core.HBridgeChannel{cfg.Motor1, cfg.Motor2} {
		for _, p := range []core.Pin{ch.Enable, ch.X, ch.Y} {
			m.Watch(p, func(bool) { a.motorsChanged() })
		}
	}
	if cfg.Servo.Valid() {
		m.Watch(cfg.Servo, a.servoEdge)
	}
	return a
}

// AddBox adds a rectangular obstacle.
func (a *Arena) AddBox(x0, y0, x1, y1 float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.walls = append(a.walls,
		Wall{Point{x0, y0}, Point{x1, y0}},
		Wall{Point{x1, y0}, Point{x1, y1}},
		Wall{Point{x1, y1}, Point{x0, y1}},
		Wall{Point{x0, y1}, Point{x0, y0}},
	)
}

// AddWall adds a single segment.
func (a *Arena) AddWall(w Wall) {
	a.mu.Lock()
	a.walls = append(a.walls, w)
	a.mu.Unlock()
}

// Pose returns the robot pose as of the last pin change or range query.
func (a *Arena) Pose() Pose {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose
}

// ServoAngle returns the sensor angle in degrees, positive to the left.
func (a *Arena) ServoAngle() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.servo
}

// Odometer returns the distance travelled by the robot center in cm.
func (a *Arena) Odometer() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.odometer
}

// Collisions counts blocked moves.
func (a *Arena) Collisions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collisions
}

// Wheels returns the current left and right wheel speeds in cm/s.
func (a *Arena) Wheels() (left, right float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.left, a.right
}

// Distance integrates motion up to now and casts the sensor ray. It has
// the signature Sonar expects of a range function.
func (a *Arena) Distance() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()

	heading := a.pose.Heading + a.servo*math.Pi/180
	origin := Point{
		X: a.pose.X + a.cfg.SensorOffset*math.Cos(a.pose.Heading),
		Y: a.pose.Y + a.cfg.SensorOffset*math.Sin(a.pose.Heading),
	}
	dir := Point{math.Cos(heading), math.Sin(heading)}
	best := math.Inf(1)
	for _, w := range a.walls {
		if t, ok := raySegment(origin, dir, w); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return float32(best)
}

func (a *Arena) motorsChanged() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.integrate()
	a.right = a.wheel(a.cfg.Motor1, core.CW)
	a.left = a.wheel(a.cfg.Motor2, core.CCW)
}

// wheel returns the speed of one wheel from its bridge pins.
func (a *Arena) wheel(ch core.HBridgeChannel, forward core.Rotation) float64 {
	if !a.m.Level(ch.Enable) {
		return 0
	}
	x, y := a.m.Level(ch.X), a.m.Level(ch.Y)
	var r core.Rotation
	switch {
	case !x && y:
		r = core.CW
	case x && !y:
		r = core.CCW
	default:
		return 0
	}
	if r == forward {
		return a.cfg.WheelSpeed
	}
	return -a.cfg.WheelSpeed
}

// integrate moves the robot along an arc for the time since the last
// update. A move that would touch a wall is cancelled, turning in place
// is always allowed.
func (a *Arena) integrate() {
	dt := a.m.toDuration(a.m.now - a.last).Seconds()
	a.last = a.m.now
	if dt <= 0 || (a.left == 0 && a.right == 0) {
		return
	}
	v := (a.left + a.right) / 2
	omega := (a.right - a.left) / a.cfg.Track

	p := a.pose
	next := p
	next.Heading = p.Heading + omega*dt
	if math.Abs(omega) < 1e-9 {
		next.X = p.X + v*dt*math.Cos(p.Heading)
		next.Y = p.Y + v*dt*math.Sin(p.Heading)
	} else {
		r := v / omega
		next.X = p.X + r*(math.Sin(next.Heading)-math.Sin(p.Heading))
		next.Y = p.Y - r*(math.Cos(next.Heading)-math.Cos(p.Heading))
	}
	next.Heading = math.Remainder(next.Heading, 2*math.Pi)

	if v != 0 && a.blocked(Point{next.X, next.Y}) {
		next.X, next.Y = p.X, p.Y
		a.collisions++
	} else {
		a.odometer += math.Abs(v) * dt
	}
	a.pose = next
}

func (a *Arena) blocked(c Point) bool {
	for _, w := range a.walls {
		if pointSegmentDistance(c, w) < a.cfg.Radius {
			return true
		}
	}
	return false
}

func (a *Arena) servoEdge(high bool) {
	if high {
		a.servoRise = a.m.now
		return
	}
	width := a.m.toDuration(a.m.now - a.servoRise)
	if width < a.cfg.ServoCW90/2 || width > 2*a.cfg.ServoCCW90 {
		return
	}
	var deg float64
	c := float64(a.cfg.ServoCenter)
	if width < a.cfg.ServoCenter {
		deg = -90 * (c - float64(width)) / (c - float64(a.cfg.ServoCW90))
	} else {
		deg = 90 * (float64(width) - c) / (float64(a.cfg.ServoCCW90) - c)
	}
	deg = math.Max(-90, math.Min(90, deg))
	a.mu.Lock()
	a.servo = deg
	a.mu.Unlock()
}

// raySegment returns the distance along dir from o to w.
func raySegment(o, dir Point, w Wall) (float64, bool) {
	ex, ey := w.B.X-w.A.X, w.B.Y-w.A.Y
	den := dir.X*ey - dir.Y*ex
	if math.Abs(den) < 1e-12 {
		return 0, false
	}
	ax, ay := w.A.X-o.X, w.A.Y-o.Y
	t := (ax*ey - ay*ex) / den
	u := (ax*dir.Y - ay*dir.X) / den
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

func pointSegmentDistance(p Point, w Wall) float64 {
	ex, ey := w.B.X-w.A.X, w.B.Y-w.A.Y
	l2 := ex*ex + ey*ey
	t := 0.0
	if l2 > 0 {
		t = ((p.X-w.A.X)*ex + (p.Y-w.A.Y)*ey) / l2
		t = math.Max(0, math.Min(1, t))
	}
	dx := p.X - (w.A.X + t*ex)
	dy := p.Y - (w.A.Y + t*ey)
	return math.Hypot(dx, dy)
}
