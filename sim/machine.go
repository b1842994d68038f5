//go:build !tinygo

// Package sim is a cycle-counting model of the robot's microcontroller.
// It implements the core HAL interfaces for GPIO, timers, external
// interrupts and delays, so the drivers in core run unchanged on a host.
//
// Time only moves inside Advance, Delay and timer flag polling, which keeps
// tests deterministic: every interrupt fires at an exact cycle.
package sim

import (
	"sort"
	"time"

	"roverbot/core"
)

// DefaultCPUFrequency is the clock of the reference board.
const DefaultCPUFrequency = 16000000

// maxDispatch bounds nested interrupt servicing in one step, so a level
// triggered line held low cannot hang the host.
const maxDispatch = 64

// Config sizes the machine.
type Config struct {
	CPUFrequency uint32
}

// Machine is one simulated microcontroller. It is not safe for concurrent
// use; all core calls must come from one goroutine.
type Machine struct {
	freq uint32
	now  uint64 // CPU cycles since power on

	ports  gpioBank
	timers timerBank
	lines  extIntBank

	events   []event
	seq      uint64
	watchers []watcher

	dispatched uint64
	inISR      bool
}

type event struct {
	at  uint64
	seq uint64
	fn  func()
}

type watcher struct {
	pin core.Pin
	fn  func(high bool)
}

// New returns a powered-on machine with every pin an input.
func New(cfg Config) *Machine {
	if cfg.CPUFrequency == 0 {
		cfg.CPUFrequency = DefaultCPUFrequency
	}
	m := &Machine{freq: cfg.CPUFrequency}
	m.ports.m = m
	m.timers.init(m)
	m.lines.init(m)
	return m
}

// Install registers the machine as the core hardware backend, resets the
// callback tables and enables interrupts globally.
func (m *Machine) Install() {
	core.SetGPIODriver(&m.ports)
	core.SetTimerHardware(&m.timers)
	core.SetExtIntHardware(&m.lines)
	core.SetDelayer(m)
	core.SetClockSource(func() uint32 { return uint32(m.now) })
	core.ResetPeripherals()
	core.EnableGlobalInterrupts()
}

// Uninstall restores the host delay and clears the timing clock. The HAL
// drivers stay registered; the next Install replaces them.
func (m *Machine) Uninstall() {
	core.SetDelayer(nil)
	core.SetClockSource(nil)
	core.DisableGlobalInterrupts()
}

func (m *Machine) CPUFrequency() uint32 { return m.freq }
func (m *Machine) Cycles() uint64       { return m.now }

// Now returns the simulated time since power on.
func (m *Machine) Now() time.Duration {
	return m.toDuration(m.now)
}

func (m *Machine) toCycles(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	sec := uint64(d / time.Second)
	frac := uint64(d % time.Second)
	return sec*uint64(m.freq) + frac*uint64(m.freq)/uint64(time.Second)
}

func (m *Machine) toDuration(cycles uint64) time.Duration {
	f := uint64(m.freq)
	return time.Duration(cycles/f)*time.Second + time.Duration(cycles%f*uint64(time.Second)/f)
}

// Delay implements core.Delayer by advancing simulated time.
func (m *Machine) Delay(d time.Duration) {
	m.Advance(d)
}

// Advance runs the machine for d, servicing interrupts as they come due.
func (m *Machine) Advance(d time.Duration) {
	m.RunUntil(m.now + m.toCycles(d))
}

// RunUntil runs the machine to the given cycle count.
func (m *Machine) RunUntil(target uint64) {
	for {
		m.service()
		next, ok := m.nextEvent()
		if !ok || next > target {
			break
		}
		m.now = next
		m.fire()
	}
	if target > m.now {
		m.now = target
	}
	m.service()
}

// step advances by one cycle or to the next event, whichever is later.
func (m *Machine) step(minimum uint64) {
	if minimum == 0 {
		minimum = 1
	}
	m.RunUntil(m.now + minimum)
}

// After schedules fn at d from now. Events at the same instant run in
// scheduling order, after the timers have ticked.
func (m *Machine) After(d time.Duration, fn func()) {
	m.At(m.now+m.toCycles(d), fn)
}

// At schedules fn at an absolute cycle.
func (m *Machine) At(cycle uint64, fn func()) {
	if cycle < m.now {
		cycle = m.now
	}
	m.seq++
	e := event{at: cycle, seq: m.seq, fn: fn}
	i := sort.Search(len(m.events), func(i int) bool {
		a := m.events[i]
		return a.at > e.at || (a.at == e.at && a.seq > e.seq)
	})
	m.events = append(m.events, event{})
	copy(m.events[i+1:], m.events[i:])
	m.events[i] = e
}

func (m *Machine) nextEvent() (uint64, bool) {
	next, ok := m.timers.nextTick()
	if len(m.events) > 0 && (!ok || m.events[0].at < next) {
		next, ok = m.events[0].at, true
	}
	return next, ok
}

// fire runs everything due at m.now: timer ticks first, then events.
func (m *Machine) fire() {
	m.timers.tickUntil(m.now)
	for len(m.events) > 0 && m.events[0].at <= m.now {
		e := m.events[0]
		m.events = m.events[1:]
		e.fn()
	}
}

// service dispatches pending interrupts in vector priority order while the
// global enable is set and no critical section is open.
func (m *Machine) service() {
	if m.inISR {
		return
	}
	for n := 0; n < maxDispatch; n++ {
		if !core.InterruptsEnabled() {
			return
		}
		vec, ok := m.pending()
		if !ok {
			return
		}
		m.inISR = true
		core.DisableGlobalInterrupts()
		vec()
		core.EnableGlobalInterrupts()
		m.inISR = false
		m.dispatched++
	}
}

// pending picks the highest priority interrupt, clears its flag and returns
// the vector to run.
func (m *Machine) pending() (func(), bool) {
	for id := core.INT0; id <= core.INT2; id++ {
		if m.lines.take(id) {
			line := core.IntLineByID(id)
			return line.Dispatch, true
		}
	}
	// Timer 2 sits above timers 1 and 0 in the vector table.
	for _, id := range [...]core.TimerID{core.Timer2, core.Timer1, core.Timer0} {
		for _, ev := range vectorOrder {
			if m.timers.take(id, ev) {
				unit := core.TimerByID(id)
				return func() { unit.Dispatch(ev) }, true
			}
		}
	}
	return nil, false
}

var vectorOrder = [...]core.TimerEvent{
	core.EventCapture,
	core.EventCompareA,
	core.EventCompareB,
	core.EventOverflow,
}

// Dispatched counts interrupt vectors run so far.
func (m *Machine) Dispatched() uint64 { return m.dispatched }

// Watch calls fn whenever the level of pin changes, from any cause.
func (m *Machine) Watch(pin core.Pin, fn func(high bool)) {
	m.watchers = append(m.watchers, watcher{pin: pin, fn: fn})
}

func (m *Machine) notify(port core.Port, changed, levels uint8) {
	for _, w := range m.watchers {
		if w.pin.Port == port && changed&(1<<w.pin.Bit) != 0 {
			w.fn(levels&(1<<w.pin.Bit) != 0)
		}
	}
	m.lines.pinsChanged(port, changed, levels)
}
