package monitor

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"roverbot/core"
)

// StatusPayload is the JSON form of a robot status.
type StatusPayload struct {
	Distance   uint16 `json:"distance_cm"`
	Direction  string `json:"direction"`
	Moving     bool   `json:"moving"`
	Autonomous bool   `json:"autonomous"`
	Speed1     uint8  `json:"speed1"`
	Speed2     uint8  `json:"speed2"`
	Servo      int8   `json:"servo"`
	Timeouts   uint32 `json:"timeouts"`
	Desyncs    uint32 `json:"desyncs"`
}

func newStatusPayload(s core.Status) *StatusPayload {
	return &StatusPayload{
		Distance:   s.Distance,
		Direction:  strings.ToLower(s.Direction.String()),
		Moving:     s.Moving,
		Autonomous: s.Autonomous,
		Speed1:     s.Speed1,
		Speed2:     s.Speed2,
		Servo:      s.Servo,
		Timeouts:   s.Timeouts,
		Desyncs:    s.Desyncs,
	}
}

func (*StatusPayload) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

// DrivePayload is the body of POST /api/drive. Speed2 may be left out to
// drive both motors at Speed1.
type DrivePayload struct {
	Direction string `json:"direction"`
	Speed1    *uint8 `json:"speed1"`
	Speed2    *uint8 `json:"speed2"`

	dir core.Direction
}

func (d *DrivePayload) Bind(r *http.Request) error {
	dir, ok := parseDirection(d.Direction)
	if !ok {
		return ErrBadDirection
	}
	d.dir = dir
	if d.Speed1 == nil {
		return ErrMissingSpeed
	}
	if d.Speed2 == nil {
		d.Speed2 = d.Speed1
	}
	return nil
}

// ModePayload is the body of POST /api/mode.
type ModePayload struct {
	Autonomous *bool `json:"autonomous"`
}

func (m *ModePayload) Bind(r *http.Request) error {
	if m.Autonomous == nil {
		return errors.New("autonomous is required")
	}
	return nil
}

// ServoPayload is the body of POST /api/servo.
type ServoPayload struct {
	Angle *int `json:"angle"`
}

func (s *ServoPayload) Bind(r *http.Request) error {
	if s.Angle == nil {
		return errors.New("angle is required")
	}
	return nil
}

var (
	ErrBadDirection = errors.New("direction must be forward, backward, left or right")
	ErrMissingSpeed = errors.New("speed1 is required")
)

// parseDirection accepts a name or the wire letter.
func parseDirection(s string) (core.Direction, bool) {
	switch strings.ToLower(s) {
	case "forward", "f":
		return core.Forward, true
	case "backward", "back", "b":
		return core.Backward, true
	case "right", "r":
		return core.Right, true
	case "left", "l":
		return core.Left, true
	}
	return core.Forward, false
}

// ErrResponse renders an error as JSON with a status code.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

// ErrRejected is a command the robot refused, such as a servo move while
// the shared timer drives a motor.
func ErrRejected(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusUnprocessableEntity,
		StatusText:     "Rejected.",
		ErrorText:      err.Error(),
	}
}

// ErrUnavailable is a link failure: timeout, closed port or NAK.
func ErrUnavailable(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadGateway,
		StatusText:     "Robot unavailable.",
		ErrorText:      err.Error(),
	}
}
