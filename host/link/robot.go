// Package link is the host side client of a robot: it opens the serial
// connection, checks the firmware version and wraps each message of the
// protocol in a method.
package link

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Masterminds/semver"

	"roverbot/core"
	"roverbot/host/serial"
	"roverbot/protocol"
)

// DefaultConstraint is the firmware range this client understands.
const DefaultConstraint = "^1.2"

// DefaultTimeout is generous because the robot only reads its port
// between control loop steps, and a turn with a servo scan takes seconds.
const DefaultTimeout = 10 * time.Second

// ErrIncompatible is returned by Identify when the firmware version is
// outside the constraint.
var ErrIncompatible = errors.New("link: incompatible firmware")

// Robot is a connection to one robot.
type Robot struct {
	transport *protocol.HostTransport
	timeout   time.Duration

	mu      sync.Mutex
	version *semver.Version
	last    core.Status
	seen    bool
}

// Dial opens the serial device named by cfg.
func Dial(cfg *serial.Config) (*Robot, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	// Drop whatever the robot printed before we were listening.
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", port.Device(), err)
	}
	return New(port), nil
}

// New wraps an open port.
func New(port io.ReadWriteCloser) *Robot {
	r := &Robot{
		transport: protocol.NewHostTransport(port),
		timeout:   DefaultTimeout,
	}
	r.transport.SetTimeout(r.timeout)
	r.transport.Subscribe(r.observe)
	return r
}

// SetTimeout bounds every request.
func (r *Robot) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.timeout = d
	r.transport.SetTimeout(d)
}

// observe keeps the latest status, solicited or not.
func (r *Robot) observe(resp protocol.Response) {
	if resp.ID != protocol.MsgStatus {
		return
	}
	s, err := core.DecodeStatus(resp.Decoder())
	if err != nil {
		return
	}
	r.mu.Lock()
	r.last = s
	r.seen = true
	r.mu.Unlock()
}

// Identify asks the firmware for its version and checks it against
// constraint. An empty constraint means DefaultConstraint.
func (r *Robot) Identify(constraint string) (*semver.Version, error) {
	if constraint == "" {
		constraint = DefaultConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("constraint %q: %w", constraint, err)
	}
	resp, err := r.transport.Call(protocol.MsgIdentify, nil, protocol.MsgIdentifyResponse, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	d := resp.Decoder()
	raw := d.String()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("identify: version %q: %w", raw, err)
	}
	if !c.Check(v) {
		return v, fmt.Errorf("%w: firmware %s, require %s", ErrIncompatible, raw, constraint)
	}
	r.mu.Lock()
	r.version = v
	r.mu.Unlock()
	return v, nil
}

// Version returns what Identify found, or nil.
func (r *Robot) Version() *semver.Version {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Status asks for a fresh snapshot without ranging.
func (r *Robot) Status() (core.Status, error) {
	return r.status(protocol.MsgGetStatus)
}

// Measure makes the robot take a distance reading first.
func (r *Robot) Measure() (core.Status, error) {
	return r.status(protocol.MsgMeasure)
}

func (r *Robot) status(id uint16) (core.Status, error) {
	resp, err := r.transport.Call(id, nil, protocol.MsgStatus, r.timeout)
	if err != nil {
		return core.Status{}, err
	}
	return core.DecodeStatus(resp.Decoder())
}

// Last returns the most recent status seen on the link.
func (r *Robot) Last() (core.Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.seen
}

// Drive takes manual control and sets both motors. With a car built for
// a single speed the robot uses speed1 for both.
func (r *Robot) Drive(d core.Direction, speed1, speed2 uint8) error {
	if speed1 > 100 || speed2 > 100 {
		return core.ErrDutyOutOfRange
	}
	return r.transport.Send(protocol.MsgDrive, func(e *protocol.Encoder) {
		e.PutByte(d.Letter())
		e.PutByte(speed1)
		e.PutByte(speed2)
	})
}

// Stop halts the motors and leaves autonomous mode.
func (r *Robot) Stop() error {
	return r.transport.Send(protocol.MsgStop, nil)
}

// SetAutonomous hands control to the on-board navigator, or takes it back.
func (r *Robot) SetAutonomous(on bool) error {
	return r.transport.Send(protocol.MsgSetMode, func(e *protocol.Encoder) {
		e.PutBool(on)
	})
}

// Servo points the sensor, in degrees with negative values to the right.
func (r *Robot) Servo(angle int) error {
	if angle < -90 || angle > 90 {
		return core.ErrAngleOutOfRange
	}
	return r.transport.Send(protocol.MsgServo, func(e *protocol.Encoder) {
		e.PutInt(int32(angle))
	})
}

// Close ends the session and closes the port.
func (r *Robot) Close() error {
	return r.transport.Close()
}
