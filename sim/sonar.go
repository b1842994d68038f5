//go:build !tinygo

package sim

import (
	"time"

	"roverbot/core"
)

// Ultrasonic module timing.
const (
	DefaultSoundVelocity float32 = 34300 // cm/s
	DefaultEchoLatency           = 450 * time.Microsecond
	DefaultEchoTimeout           = 38 * time.Millisecond
	DefaultMinTrigger            = 10 * time.Microsecond
	DefaultSonarRange    float32 = 400 // cm
)

// SonarConfig describes a trigger/echo ranging module.
type SonarConfig struct {
	Trigger, Echo core.Pin

	SoundVelocity float32       // cm/s
	Latency       time.Duration // trigger release to echo start
	Timeout       time.Duration // echo width when nothing answers
	MinTrigger    time.Duration // shorter trigger pulses are ignored
	Range         float32       // cm; farther targets do not answer
}

// Sonar answers trigger pulses with an echo pulse whose width is the
// round trip time to the target.
type Sonar struct {
	m        *Machine
	cfg      SonarConfig
	distance func() float32

	raised  uint64
	busy    bool
	script  []time.Duration
	pings   int
	ignored int
}

// NewSonar attaches a sonar. distance reports the range to the target in
// cm; a nil function means no target.
func (m *Machine) NewSonar(cfg SonarConfig, distance func() float32) *Sonar {
	if cfg.SoundVelocity == 0 {
		cfg.SoundVelocity = DefaultSoundVelocity
	}
	if cfg.Latency == 0 {
		cfg.Latency = DefaultEchoLatency
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultEchoTimeout
	}
	if cfg.MinTrigger == 0 {
		cfg.MinTrigger = DefaultMinTrigger
	}
	if cfg.Range == 0 {
		cfg.Range = DefaultSonarRange
	}
	s := &Sonar{m: m, cfg: cfg, distance: distance}
	m.Drive(cfg.Echo, false)
	m.Watch(cfg.Trigger, s.trigger)
	return s
}

// SetDistance fixes the target range.
func (s *Sonar) SetDistance(cm float32) {
	s.distance = func() float32 { return cm }
}

// Script replaces the next echo with explicit level toggles, given as
// offsets from the trigger release. The echo starts low. A script with no
// toggles leaves the echo silent.
func (s *Sonar) Script(toggles ...time.Duration) {
	s.script = make([]time.Duration, len(toggles))
	copy(s.script, toggles)
}

// Pings counts accepted trigger pulses.
func (s *Sonar) Pings() int { return s.pings }

// Ignored counts trigger pulses that were too short or arrived while an
// echo was in progress.
func (s *Sonar) Ignored() int { return s.ignored }

// EchoWidth returns the echo pulse width for a target at cm.
func (s *Sonar) EchoWidth(cm float32) time.Duration {
	if cm <= 0 || cm > s.cfg.Range {
		return s.cfg.Timeout
	}
	return time.Duration(float64(2*cm/s.cfg.SoundVelocity) * float64(time.Second))
}

func (s *Sonar) trigger(high bool) {
	if high {
		s.raised = s.m.now
		return
	}
	if s.busy || s.m.toDuration(s.m.now-s.raised) < s.cfg.MinTrigger {
		s.ignored++
		return
	}
	s.pings++
	s.busy = true

	if s.script != nil {
		toggles := s.script
		s.script = nil
		level := false
		for i, off := range toggles {
			level = !level
			lv, last := level, i == len(toggles)-1
			s.m.After(off, func() {
				s.m.Drive(s.cfg.Echo, lv)
				if last {
					s.busy = false
				}
			})
		}
		if len(toggles) == 0 {
			s.busy = false
		}
		return
	}

	var cm float32
	if s.distance != nil {
		cm = s.distance()
	}
	width := s.EchoWidth(cm)
	s.m.After(s.cfg.Latency, func() { s.m.Drive(s.cfg.Echo, true) })
	s.m.After(s.cfg.Latency+width, func() {
		s.m.Drive(s.cfg.Echo, false)
		s.busy = false
	})
}
