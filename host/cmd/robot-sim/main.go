// Command robot-sim runs the robot firmware against a simulated board in
// a walled room and connects the host tools to it, so that the monitor
// and the shell can be used without hardware.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"roverbot/config"
	"roverbot/core"
	"roverbot/host/link"
	"roverbot/host/monitor"
	"roverbot/host/serial"
	"roverbot/host/shell"
	"roverbot/robot"
	"roverbot/sim"
)

func main() {
	configPath := flag.String("c", "", "robot description, YAML or JSON")
	dump := flag.Bool("dump", false, "print the effective robot description as YAML and exit")
	listen := flag.String("listen", ":8080", "HTTP monitor address, empty to disable")
	speed := flag.Float64("speed", 1, "simulated seconds per real second")
	width := flag.Float64("width", 300, "room width in cm")
	height := flag.Float64("height", 200, "room height in cm")
	interactive := flag.Bool("shell", true, "run the interactive shell")
	debug := flag.Bool("debug", false, "log driver debug messages")
	flag.Parse()

	logger := log.New(os.Stdout, "[robot-sim] ", log.Ldate|log.Ltime)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Fatal(err)
		}
	}
	if *dump {
		out, err := cfg.YAML()
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Print(string(out))
		return
	}
	if *debug {
		core.SetDebugWriter(func(s string) { logger.Println(s) })
		core.SetDebugEnabled(true)
	}

	board, err := sim.NewBoard(cfg, sim.ArenaConfig{
		Width:  *width,
		Height: *height,
		Start:  sim.Pose{X: *width / 2, Y: *height / 2},
	})
	if err != nil {
		logger.Fatal(err)
	}
	core.SetDelayer(board.Machine.NewPacer(*speed))

	mgr, err := robot.NewManager(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	if err := mgr.Initialize(board.LCD); err != nil {
		logger.Fatal(err)
	}

	hostEnd, robotEnd := serial.Pipe()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := mgr.Serve(robotEnd, stop); err != nil {
			logger.Println(err)
		}
	}()

	r := link.New(hostEnd)
	v, err := r.Identify("")
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("%s running firmware %s in a %.0fx%.0f cm room", cfg.Name, v, *width, *height)

	mon := monitor.NewServer(r, monitor.WithLogger(logger))
	if *listen != "" {
		go func() {
			if err := mon.ListenAndServe(*listen); err != nil {
				logger.Println(err)
			}
		}()
	}
	if *interactive {
		sh := shell.New(r, mon.ListenAndServe)
		sh.Println("Simulated robot shell")
		go sh.Start()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	close(stop)
	<-done
	r.Close()
	robotEnd.Close()
	p := board.Arena.Pose()
	logger.Printf("stopped after %d steps at (%.0f, %.0f), %d collisions",
		mgr.Nav.Steps(), p.X, p.Y, board.Arena.Collisions())
	board.Close()
}
