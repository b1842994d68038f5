// Package monitor serves a robot over HTTP: a small JSON API for manual
// driving and a websocket that streams the status.
package monitor

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"roverbot/core"
)

// Controller is what the monitor needs from a robot. *link.Robot
// implements it.
type Controller interface {
	Status() (core.Status, error)
	Measure() (core.Status, error)
	Drive(d core.Direction, speed1, speed2 uint8) error
	Stop() error
	SetAutonomous(on bool) error
	Servo(angle int) error
}

// DefaultInterval is the status period of the websocket stream.
const DefaultInterval = 500 * time.Millisecond

// Server routes HTTP requests to a Controller.
type Server struct {
	ctl      Controller
	logger   *log.Logger
	interval time.Duration
	quiet    bool
}

// Option tunes a Server.
type Option func(*Server)

// WithLogger replaces the default stdout logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithInterval sets the websocket status period.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Quiet disables the request log.
func Quiet() Option {
	return func(s *Server) { s.quiet = true }
}

func NewServer(ctl Controller, opts ...Option) *Server {
	s := &Server{
		ctl:      ctl,
		logger:   log.New(os.Stdout, "[monitor] ", log.Ldate|log.Ltime),
		interval: DefaultInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !s.quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/status", s.getStatus)
		r.Post("/measure", s.measure)
		r.Post("/drive", s.drive)
		r.Post("/stop", s.stop)
		r.Post("/mode", s.setMode)
		r.Post("/servo", s.servo)
	})
	r.Get("/ws", s.stream)
	return r
}

// ListenAndServe blocks serving addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Println("listening on", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctl.Status()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Render(w, r, newStatusPayload(st))
}

func (s *Server) measure(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctl.Measure()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.Render(w, r, newStatusPayload(st))
}

func (s *Server) drive(w http.ResponseWriter, r *http.Request) {
	data := &DrivePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.reply(w, r, s.ctl.Drive(data.dir, *data.Speed1, *data.Speed2))
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.reply(w, r, s.ctl.Stop())
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	data := &ModePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.reply(w, r, s.ctl.SetAutonomous(*data.Autonomous))
}

func (s *Server) servo(w http.ResponseWriter, r *http.Request) {
	data := &ServoPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	s.reply(w, r, s.ctl.Servo(*data.Angle))
}

// reply answers a command with the fresh status, so the caller sees the
// effect without a second request.
func (s *Server) reply(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.getStatus(w, r)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var local core.Error
	if errors.As(err, &local) {
		render.Render(w, r, ErrRejected(err))
		return
	}
	s.logger.Printf("[%s] %v", middleware.GetReqID(r.Context()), err)
	render.Render(w, r, ErrUnavailable(err))
}
