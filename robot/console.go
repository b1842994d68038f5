package robot

import (
	"io"
	"strconv"

	"roverbot/core"
	"roverbot/protocol"
)

const (
	ErrUnknownVerb = core.Error("unknown command")
	ErrArgument    = core.Error("bad argument")
	ErrLineTooLong = core.Error("line too long")
)

const maxLine = 64

// Request is one parsed console line.
type Request struct {
	Verb    string   // upper case
	Args    []string // upper case
	Comment string
}

// ParseLine splits a console line into verb and arguments. Empty and
// comment-only lines return a nil request.
func ParseLine(line string) *Request {
	var req *Request
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == ';' || line[i] == '#' {
			if req == nil {
				return nil
			}
			req.Comment = line[i:]
			break
		}
		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != ';' {
			i++
		}
		word := upper(line[start:i])
		if req == nil {
			req = &Request{Verb: word}
		} else {
			req.Args = append(req.Args, word)
		}
	}
	return req
}

// Int returns argument i as a number, or def when it is missing.
func (r *Request) Int(i int, def int) (int, error) {
	if i >= len(r.Args) {
		return def, nil
	}
	n, err := strconv.Atoi(r.Args[i])
	if err != nil {
		return 0, ErrArgument
	}
	return n, nil
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// Console executes text commands against a robot:
//
//	FWD|BACK|LEFT|RIGHT [speed1 [speed2]]
//	STOP
//	SERVO <angle>
//	AUTO ON|OFF
//	MEASURE
//	STATUS
//	TIMING [CLEAR]
//	HELP
//
// Motion commands go through the same handlers as telemetry messages, so
// both front ends enforce the same rules.
type Console struct {
	m    *Manager
	w    io.Writer
	line []byte
	long bool

	enc protocol.Encoder
	dec protocol.Decoder
}

func NewConsole(m *Manager, w io.Writer) *Console {
	return &Console{m: m, w: w, line: make([]byte, 0, maxLine)}
}

// Busy reports whether a line is partially received.
func (c *Console) Busy() bool {
	return len(c.line) > 0 || c.long
}

// Feed adds a byte; a line terminator runs the line.
func (c *Console) Feed(b byte) {
	if b != '\n' && b != '\r' {
		if len(c.line) == maxLine {
			c.long = true
			return
		}
		c.line = append(c.line, b)
		return
	}
	line, long := string(c.line), c.long
	c.line = c.line[:0]
	c.long = false
	if long {
		c.reply(ErrLineTooLong)
		return
	}
	if req := ParseLine(line); req != nil {
		c.reply(c.Exec(req))
	}
}

func (c *Console) reply(err error) {
	if err != nil {
		c.print("error: " + err.Error())
		return
	}
	c.print("ok")
}

func (c *Console) print(s string) {
	_, _ = io.WriteString(c.w, s+"\n")
}

// Exec runs one request and writes its output, but not the final ok or
// error line.
func (c *Console) Exec(req *Request) error {
	if !c.m.initialized {
		return ErrNotInitialized
	}
	switch req.Verb {
	case "FWD", "FORWARD":
		return c.drive(core.Forward, req)
	case "BACK", "BACKWARD":
		return c.drive(core.Backward, req)
	case "LEFT":
		return c.drive(core.Left, req)
	case "RIGHT":
		return c.drive(core.Right, req)
	case "STOP":
		return c.dispatch(protocol.MsgStop)
	case "SERVO":
		if len(req.Args) != 1 {
			return ErrArgument
		}
		angle, err := req.Int(0, 0)
		if err != nil {
			return err
		}
		return c.dispatch(protocol.MsgServo, int32(angle))
	case "AUTO":
		if len(req.Args) != 1 {
			return ErrArgument
		}
		switch req.Args[0] {
		case "ON", "1":
			return c.dispatch(protocol.MsgSetMode, 1)
		case "OFF", "0":
			return c.dispatch(protocol.MsgSetMode, 0)
		}
		return ErrArgument
	case "MEASURE":
		c.m.Nav.Refresh()
		c.status()
		return nil
	case "STATUS":
		c.status()
		return nil
	case "TIMING":
		if len(req.Args) == 1 && req.Args[0] == "CLEAR" {
			core.ClearTimingRing()
			return nil
		}
		if len(req.Args) != 0 {
			return ErrArgument
		}
		for _, e := range core.TimingEvents() {
			c.print(e.String())
		}
		return nil
	case "HELP":
		c.print("FWD|BACK|LEFT|RIGHT [speed1 [speed2]], STOP, SERVO <angle>, AUTO ON|OFF, MEASURE, STATUS, TIMING [CLEAR]")
		return nil
	}
	return ErrUnknownVerb
}

func (c *Console) drive(d core.Direction, req *Request) error {
	if len(req.Args) > 2 {
		return ErrArgument
	}
	d1, d2 := c.m.Car.Defaults()
	p1, err := req.Int(0, int(d1))
	if err != nil {
		return err
	}
	def2 := int(d2)
	if len(req.Args) == 1 {
		def2 = p1
	}
	p2, err := req.Int(1, def2)
	if err != nil {
		return err
	}
	if p1 < 0 || p1 > 100 || p2 < 0 || p2 > 100 {
		return core.ErrDutyOutOfRange
	}
	return c.dispatch(protocol.MsgDrive, int32(d.Letter()), int32(p1), int32(p2))
}

// dispatch runs a registered handler with encoded arguments.
func (c *Console) dispatch(id uint16, args ...int32) error {
	c.enc.Reset()
	for _, v := range args {
		c.enc.PutInt(v)
	}
	c.dec.Reset(c.enc.Bytes())
	return c.m.Commands.Dispatch(id, &c.dec)
}

func (c *Console) status() {
	s := c.m.Status()
	mode := "manual"
	if s.Autonomous {
		mode = "auto"
	}
	dir := "stopped"
	if s.Moving {
		dir = s.Direction.String()
	}
	c.print("dist=" + strconv.Itoa(int(s.Distance)) + "cm" +
		" dir=" + dir +
		" mode=" + mode +
		" speed=" + strconv.Itoa(int(s.Speed1)) + "/" + strconv.Itoa(int(s.Speed2)) +
		" servo=" + strconv.Itoa(int(s.Servo)) +
		" timeouts=" + strconv.FormatUint(uint64(s.Timeouts), 10) +
		" desyncs=" + strconv.FormatUint(uint64(s.Desyncs), 10))
}
