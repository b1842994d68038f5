//go:build !tinygo

package sim

import (
	"time"

	"roverbot/config"
	"roverbot/core"
)

// Board is a simulated robot wired as a configuration describes: the
// sonar, the arena and an LCD module hang off the configured pins.
type Board struct {
	Machine *Machine
	Sonar   *Sonar
	Arena   *Arena
	Screen  *TextDisplay

	// LCD is the core display driver talking to the simulated module,
	// which renders into Screen.
	LCD *core.LCD
}

// NewBoard powers on a machine, installs it as the HAL backend and wires
// the peripherals. Geometry and obstacles come from arena; its pins and
// servo pulse widths are taken from cfg.
func NewBoard(cfg *config.Config, arena ArenaConfig) (*Board, error) {
	cal := cfg.Calibration
	rc, err := cfg.RangerConfig()
	if err != nil {
		return nil, err
	}
	cc, err := cfg.CarConfig()
	if err != nil {
		return nil, err
	}
	sc, err := cfg.ServoConfig()
	if err != nil {
		return nil, err
	}
	lc, err := cfg.LCDConfig()
	if err != nil {
		return nil, err
	}

	m := New(Config{CPUFrequency: cal.CPUFrequency})
	m.Install()

	tick := time.Duration(sc.Clock.Divisor()) * time.Second / time.Duration(cal.CPUFrequency)
	arena.Motor1 = cc.Motor1
	arena.Motor2 = cc.Motor2
	arena.Servo = sc.Signal
	arena.ServoCW90 = time.Duration(sc.CW90) * tick
	arena.ServoCenter = time.Duration(sc.Center) * tick
	arena.ServoCCW90 = time.Duration(sc.CCW90) * tick

	b := &Board{Machine: m, Screen: NewTextDisplay(int(lc.Rows), int(lc.Cols))}
	b.Arena = m.NewArena(arena)
	b.Sonar = m.NewSonar(SonarConfig{
		Trigger:       rc.Trigger,
		Echo:          rc.Echo.Pin(),
		SoundVelocity: cal.SoundVelocity,
		Range:         cal.MaxDistance,
	}, b.Arena.Distance)

	m.NewLCDDecoder(LCDBus{RS: lc.RS, E: lc.E, Data: lc.Data}, b.Screen)
	if b.LCD, err = core.NewLCD(lc); err != nil {
		m.Uninstall()
		return nil, err
	}
	if err := b.LCD.Init(); err != nil {
		m.Uninstall()
		return nil, err
	}
	return b, nil
}

// Close detaches the machine from the HAL.
func (b *Board) Close() {
	b.Machine.Uninstall()
}
