//go:build linux && !tinygo

// Command rpi runs the robot firmware on the simulator and mirrors the
// motor and servo outputs onto a Raspberry Pi bench, with a text console
// on stdin/stdout.
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stianeikeland/go-rpio/v4"

	"roverbot/config"
	"roverbot/core"
	"roverbot/robot"
	"roverbot/sim"
)

func main() {
	configPath := flag.String("c", "", "robot description, YAML or JSON")
	speed := flag.Float64("speed", 1, "simulated seconds per real second")
	debug := flag.Bool("debug", false, "log driver debug messages")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *debug {
		core.SetDebugWriter(func(s string) { log.Println(s) })
		core.SetDebugEnabled(true)
	}

	if err := rpio.Open(); err != nil {
		log.Fatalf("gpio: %v", err)
	}
	defer rpio.Close()

	board, err := sim.NewBoard(cfg, sim.ArenaConfig{})
	if err != nil {
		log.Fatal(err)
	}
	defer board.Close()

	cc, _ := cfg.CarConfig()
	mirror := NewMirror(board.Machine, board.Arena, cc.Motor1, cc.Motor2)
	pacer := board.Machine.NewPacer(*speed)
	pacer.OnSlice = mirror.Update
	core.SetDelayer(pacer)

	mgr, err := robot.NewManager(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := mgr.Initialize(board.LCD); err != nil {
		log.Fatal(err)
	}
	in := robot.NewQueue(0)
	mgr.Attach(in, os.Stdout)
	go func() {
		if _, err := io.Copy(in, os.Stdin); err != nil {
			log.Printf("stdin: %v", err)
		}
	}()

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	if err := mgr.Start(); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s running on the bench, %d servo updates so far", cfg.Name, mirror.Moves())
	mgr.Run(stop)
	log.Printf("stopped after %d steps, %d collisions", mgr.Nav.Steps(), board.Arena.Collisions())
}
