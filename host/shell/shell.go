// Package shell is the interactive operator console of the host tools.
package shell

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"roverbot/core"
	"roverbot/host/monitor"
)

// New builds a shell with one command per robot operation. serve starts
// the HTTP monitor on the given address and may be nil.
func New(r monitor.Controller, serve func(addr string) error) *ishell.Shell {
	shell := ishell.New()
	shell.SetPrompt("robot> ")

	for _, cmd := range Commands(r, serve) {
		shell.AddCmd(cmd)
	}
	return shell
}

// Commands returns the shell commands, for callers that assemble their
// own shell.
func Commands(r monitor.Controller, serve func(addr string) error) []*ishell.Cmd {
	cmds := []*ishell.Cmd{
		{
			Name: "status",
			Help: "status: show the last reported state",
			Func: func(c *ishell.Context) {
				s, err := r.Status()
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(FormatStatus(s))
			},
		},
		{
			Name: "measure",
			Help: "measure: take a distance reading",
			Func: func(c *ishell.Context) {
				s, err := r.Measure()
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("%d cm\n", s.Distance)
			},
		},
		{
			Name:      "drive",
			Help:      "drive <forward|backward|left|right> [speed1] [speed2]",
			Completer: func([]string) []string { return []string{"forward", "backward", "left", "right"} },
			Func: func(c *ishell.Context) {
				d, s1, s2, err := ParseDrive(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				if err := r.Drive(d, s1, s2); err != nil {
					c.Err(err)
				}
			},
		},
		{
			Name: "stop",
			Help: "stop: brake and take manual control",
			Func: func(c *ishell.Context) {
				if err := r.Stop(); err != nil {
					c.Err(err)
				}
			},
		},
		{
			Name:      "auto",
			Help:      "auto <on|off>: hand control to the navigator",
			Completer: func([]string) []string { return []string{"on", "off"} },
			Func: func(c *ishell.Context) {
				if len(c.Args) != 1 {
					c.Err(fmt.Errorf("usage: auto <on|off>"))
					return
				}
				on, err := parseSwitch(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				if err := r.SetAutonomous(on); err != nil {
					c.Err(err)
				}
			},
		},
		{
			Name: "servo",
			Help: "servo <angle>: point the sensor, negative is right",
			Func: func(c *ishell.Context) {
				if len(c.Args) != 1 {
					c.Err(fmt.Errorf("usage: servo <angle>"))
					return
				}
				angle, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				if err := r.Servo(angle); err != nil {
					c.Err(err)
				}
			},
		},
	}
	if serve != nil {
		cmds = append(cmds, &ishell.Cmd{
			Name: "serve",
			Help: "serve [addr]: start the HTTP monitor, default :8080",
			Func: func(c *ishell.Context) {
				addr := ":8080"
				if len(c.Args) > 0 {
					addr = c.Args[0]
				}
				go func() {
					if err := serve(addr); err != nil {
						c.Err(err)
					}
				}()
				c.Println("monitor on", addr)
			},
		})
	}
	return cmds
}

// FormatStatus renders s on one line.
func FormatStatus(s core.Status) string {
	dir := "stopped"
	if s.Moving {
		dir = strings.ToLower(s.Direction.String())
	}
	mode := "manual"
	if s.Autonomous {
		mode = "auto"
	}
	return fmt.Sprintf("dist=%dcm dir=%s mode=%s speed=%d/%d servo=%d timeouts=%d desyncs=%d",
		s.Distance, dir, mode, s.Speed1, s.Speed2, s.Servo, s.Timeouts, s.Desyncs)
}

// ParseDrive reads the drive arguments. Speeds default to the firmware
// cruise speed; a single speed drives both motors.
func ParseDrive(args []string) (core.Direction, uint8, uint8, error) {
	if len(args) < 1 || len(args) > 3 {
		return 0, 0, 0, fmt.Errorf("usage: drive <direction> [speed1] [speed2]")
	}
	d, ok := directionByName(args[0])
	if !ok {
		return 0, 0, 0, fmt.Errorf("unknown direction %q", args[0])
	}
	speeds := [2]uint8{core.DefaultSpeed1, core.DefaultSpeed2}
	for i, a := range args[1:] {
		v, err := strconv.ParseUint(a, 10, 8)
		if err != nil || v > 100 {
			return 0, 0, 0, fmt.Errorf("speed %q: %w", a, core.ErrDutyOutOfRange)
		}
		speeds[i] = uint8(v)
	}
	if len(args) == 2 {
		speeds[1] = speeds[0]
	}
	return d, speeds[0], speeds[1], nil
}

func directionByName(s string) (core.Direction, bool) {
	switch strings.ToLower(s) {
	case "forward", "fwd", "f":
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

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
