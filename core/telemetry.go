package core

import "roverbot/protocol"

// Status is the robot state reported by the status message.
type Status struct {
	Distance   uint16 // cm
	Direction  Direction
	Moving     bool
	Autonomous bool
	Speed1     uint8
	Speed2     uint8
	Servo      int8 // degrees, negative to the right
	Timeouts   uint32
	Desyncs    uint32
}

// Encode writes s in status message order.
func (s Status) Encode(e *protocol.Encoder) {
	e.PutUint(uint32(s.Distance))
	e.PutByte(s.Direction.Letter())
	e.PutBool(s.Moving)
	e.PutBool(s.Autonomous)
	e.PutByte(s.Speed1)
	e.PutByte(s.Speed2)
	e.PutInt(int32(s.Servo))
	e.PutUint(s.Timeouts)
	e.PutUint(s.Desyncs)
}

// DecodeStatus reads a status message body.
func DecodeStatus(d *protocol.Decoder) (Status, error) {
	var s Status
	s.Distance = uint16(d.Uint())
	dir, ok := DirectionFromLetter(d.Byte())
	s.Moving = d.Bool()
	s.Autonomous = d.Bool()
	s.Speed1 = d.Byte()
	s.Speed2 = d.Byte()
	s.Servo = int8(d.Int())
	s.Timeouts = d.Uint()
	s.Desyncs = d.Uint()
	if err := d.Err(); err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, ErrInvalidDirection
	}
	s.Direction = dir
	return s, nil
}

// Responder sends a message back to the host.
type Responder interface {
	Send(id uint16, fill func(e *protocol.Encoder)) error
}

// Telemetry serves the host commands for a fully wired robot.
type Telemetry struct {
	nav    *Navigator
	car    *Car
	ranger *Ranger
	servo  *Servo
	out    Responder
}

// NewTelemetry registers the command handlers on reg. Replies go to out.
func NewTelemetry(reg *CommandRegistry, out Responder, nav *Navigator, car *Car, ranger *Ranger, servo *Servo) (*Telemetry, error) {
	t := &Telemetry{nav: nav, car: car, ranger: ranger, servo: servo, out: out}
	handlers := []struct {
		id uint16
		h  CommandHandler
	}{
		{protocol.MsgIdentify, t.identify},
		{protocol.MsgGetStatus, t.getStatus},
		{protocol.MsgSetMode, t.setMode},
		{protocol.MsgDrive, t.drive},
		{protocol.MsgStop, t.stop},
		{protocol.MsgServo, t.moveServo},
		{protocol.MsgMeasure, t.measure},
	}
	for _, e := range handlers {
		if err := reg.Register(e.id, e.h); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Snapshot collects the current status.
func (t *Telemetry) Snapshot() Status {
	s1, s2 := t.car.Speeds()
	return Status{
		Distance:   uint16(t.nav.Distance()),
		Direction:  t.car.Direction(),
		Moving:     t.car.Moving(),
		Autonomous: t.nav.Autonomous(),
		Speed1:     s1,
		Speed2:     s2,
		Servo:      int8(t.servo.Angle()),
		Timeouts:   t.ranger.Timeouts(),
		Desyncs:    t.ranger.Desyncs(),
	}
}

func (t *Telemetry) sendStatus() error {
	s := t.Snapshot()
	return t.out.Send(protocol.MsgStatus, s.Encode)
}

func (t *Telemetry) identify(*protocol.Decoder) error {
	return t.out.Send(protocol.MsgIdentifyResponse, func(e *protocol.Encoder) {
		e.PutString(protocol.Version)
	})
}

func (t *Telemetry) getStatus(*protocol.Decoder) error {
	return t.sendStatus()
}

func (t *Telemetry) setMode(args *protocol.Decoder) error {
	auto := args.Bool()
	if err := args.Err(); err != nil {
		return err
	}
	t.nav.SetAutonomous(auto)
	return nil
}

// drive takes manual control and drives as told.
func (t *Telemetry) drive(args *protocol.Decoder) error {
	letter := args.Byte()
	p1 := args.Byte()
	p2 := args.Byte()
	if err := args.Err(); err != nil {
		return err
	}
	d, ok := DirectionFromLetter(letter)
	if !ok {
		return ErrInvalidDirection
	}
	t.nav.SetAutonomous(false)
	if t.car.Mode() == SameSpeed {
		p2 = p1
	}
	return t.car.DriveEach(d, p1, p2)
}

func (t *Telemetry) stop(*protocol.Decoder) error {
	t.nav.SetAutonomous(false)
	t.car.Stop()
	return nil
}

// moveServo points the sensor. The servo borrows the motor 1 timer in the
// different-speeds mode, so the car must be standing.
func (t *Telemetry) moveServo(args *protocol.Decoder) error {
	angle := args.Int()
	if err := args.Err(); err != nil {
		return err
	}
	if angle < -90 || angle > 90 {
		return ErrAngleOutOfRange
	}
	if t.car.Moving() && t.car.Mode() == DifferentSpeeds {
		return ErrTimerBusy
	}
	t.nav.SetAutonomous(false)
	return t.servo.RotateTo(int(angle))
}

func (t *Telemetry) measure(*protocol.Decoder) error {
	t.nav.Refresh()
	return t.sendStatus()
}
