// Command robot-host talks to a robot over its serial port: an
// interactive shell and, on request, the HTTP monitor.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"

	"roverbot/host/link"
	"roverbot/host/monitor"
	"roverbot/host/serial"
	"roverbot/host/shell"
)

// Settings come from the environment; flags override them.
type Settings struct {
	Serial     serial.Config
	Constraint string        `env:"ROBOT_FIRMWARE" envDefault:"^1.2"`
	Timeout    time.Duration `env:"ROBOT_TIMEOUT" envDefault:"10s"`
	Listen     string        `env:"ROBOT_LISTEN"`
}

func main() {
	var cfg Settings
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	flag.StringVar(&cfg.Serial.Device, "port", cfg.Serial.Device, "serial device of the robot")
	flag.IntVar(&cfg.Serial.Baud, "baud", cfg.Serial.Baud, "baud rate, must match the firmware")
	flag.StringVar(&cfg.Listen, "listen", cfg.Listen, "start the HTTP monitor on this address")
	flag.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	flag.Parse()

	logger := log.New(os.Stdout, "[robot-host] ", log.Ldate|log.Ltime)

	r, err := link.Dial(&cfg.Serial)
	if err != nil {
		logger.Fatal(err)
	}
	r.SetTimeout(cfg.Timeout)

	v, err := r.Identify(cfg.Constraint)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("connected to firmware %s on %s", v, cfg.Serial.Device)

	mon := monitor.NewServer(r, monitor.WithLogger(logger))
	if cfg.Listen != "" {
		go func() {
			if err := mon.ListenAndServe(cfg.Listen); err != nil {
				logger.Println(err)
			}
		}()
	}

	sh := shell.New(r, mon.ListenAndServe)
	sh.Println(fmt.Sprintf("Robot shell, firmware %s", v))
	sh.AddCmd(&ishell.Cmd{
		Name: "quit",
		Help: "quit: stop the robot and leave",
		Func: func(c *ishell.Context) {
			shutdown(r, logger)
		},
	})
	go sh.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	shutdown(r, logger)
}

func shutdown(r *link.Robot, logger *log.Logger) {
	if err := r.Stop(); err != nil {
		logger.Println("stop:", err)
	}
	r.Close()
	os.Exit(0)
}
