//go:build !tinygo

package sim

import "roverbot/core"

type timerState struct {
	id       core.TimerID
	width    uint8
	max      uint16
	channels int

	mode    core.TimerMode
	info    core.ModeInfo
	clock   core.Prescaler
	running bool
	div     uint64
	next    uint64 // cycle of the next count

	counter uint16
	down    bool
	ocr     [2]uint16
	icr     uint16
	oc      [2]core.OutputCompareMode
	ocPin   [2]core.Pin

	flags   uint8
	enabled uint8
	counts  uint64
}

// timerBank implements core.TimerHardware.
type timerBank struct {
	m      *Machine
	timers [3]timerState
}

func (b *timerBank) init(m *Machine) {
	b.m = m
	b.timers[core.Timer0] = timerState{id: core.Timer0, width: 8, max: 0xFF, channels: 1,
		ocPin: [2]core.Pin{{Port: core.PortB, Bit: 3}, core.NoPin}}
	b.timers[core.Timer1] = timerState{id: core.Timer1, width: 16, max: 0xFFFF, channels: 2,
		ocPin: [2]core.Pin{{Port: core.PortD, Bit: 5}, {Port: core.PortD, Bit: 4}}}
	b.timers[core.Timer2] = timerState{id: core.Timer2, width: 8, max: 0xFF, channels: 1,
		ocPin: [2]core.Pin{{Port: core.PortD, Bit: 7}, core.NoPin}}
	for i := range b.timers {
		t := &b.timers[i]
		t.info = core.ModeNormal.Info(t.width)
	}
}

func (b *timerBank) timer(id core.TimerID) *timerState {
	if int(id) >= len(b.timers) {
		return nil
	}
	return &b.timers[id]
}

func (b *timerBank) Configure(id core.TimerID, mode core.TimerMode) {
	if t := b.timer(id); t != nil {
		t.mode = mode
		t.info = mode.Info(t.width)
		t.down = false
	}
}

func (b *timerBank) SetClock(id core.TimerID, clock core.Prescaler) {
	t := b.timer(id)
	if t == nil {
		return
	}
	t.clock = clock
	t.div = uint64(clock.Divisor())
	// External clock pins are not modelled; such a timer never counts.
	t.running = t.div != 0
	if t.running {
		t.next = b.m.now + t.div
	}
}

func (b *timerBank) SetCounter(id core.TimerID, v uint16) {
	if t := b.timer(id); t != nil {
		t.counter = v & t.max
	}
}

func (b *timerBank) Counter(id core.TimerID) uint16 {
	if t := b.timer(id); t != nil {
		return t.counter
	}
	return 0
}

func (b *timerBank) SetCompare(id core.TimerID, ch core.Channel, v uint16) {
	if t := b.timer(id); t != nil && int(ch) < t.channels {
		t.ocr[ch] = v & t.max
	}
}

func (b *timerBank) Compare(id core.TimerID, ch core.Channel) uint16 {
	if t := b.timer(id); t != nil && int(ch) < t.channels {
		return t.ocr[ch]
	}
	return 0
}

func (b *timerBank) SetCapture(id core.TimerID, v uint16) {
	if t := b.timer(id); t != nil {
		t.icr = v
	}
}

func (b *timerBank) SetCompareOutput(id core.TimerID, ch core.Channel, mode core.OutputCompareMode) {
	if t := b.timer(id); t != nil && int(ch) < t.channels {
		t.oc[ch] = mode
	}
}

func (b *timerBank) SetInterruptEnabled(id core.TimerID, ev core.TimerEvent, on bool) {
	t := b.timer(id)
	if t == nil {
		return
	}
	if on {
		t.enabled |= 1 << ev
	} else {
		t.enabled &^= 1 << ev
	}
}

func (b *timerBank) InterruptEnabled(id core.TimerID, ev core.TimerEvent) bool {
	t := b.timer(id)
	return t != nil && t.enabled&(1<<ev) != 0
}

func (b *timerBank) ClearFlag(id core.TimerID, ev core.TimerEvent) {
	if t := b.timer(id); t != nil {
		t.flags &^= 1 << ev
	}
}

// Flag reads a flag. Polling costs time: an unset flag lets the machine
// run until the timer's next count.
func (b *timerBank) Flag(id core.TimerID, ev core.TimerEvent) bool {
	t := b.timer(id)
	if t == nil {
		return false
	}
	if t.flags&(1<<ev) != 0 {
		return true
	}
	b.m.step(t.div)
	return t.flags&(1<<ev) != 0
}

// take clears and reports an enabled, raised flag.
func (b *timerBank) take(id core.TimerID, ev core.TimerEvent) bool {
	t := b.timer(id)
	bit := uint8(1) << ev
	if t == nil || t.flags&bit == 0 || t.enabled&bit == 0 {
		return false
	}
	t.flags &^= bit
	return true
}

func (b *timerBank) nextTick() (uint64, bool) {
	var next uint64
	ok := false
	for i := range b.timers {
		t := &b.timers[i]
		if t.running && (!ok || t.next < next) {
			next, ok = t.next, true
		}
	}
	return next, ok
}

func (b *timerBank) tickUntil(now uint64) {
	for i := range b.timers {
		t := &b.timers[i]
		for t.running && t.next <= now {
			t.next += t.div
			b.count(t)
		}
	}
}

func (t *timerState) top() uint16 {
	switch t.info.Top {
	case core.TopCompareA:
		return t.ocr[0]
	case core.TopCapture:
		return t.icr
	}
	return t.info.FixedTop
}

func (t *timerState) raise(ev core.TimerEvent) {
	t.flags |= 1 << ev
}

// count applies one clock to the counter.
func (b *timerBank) count(t *timerState) {
	t.counts++
	top := t.top()
	if t.info.DualSlope {
		b.countDual(t, top)
		return
	}

	switch {
	case t.counter == top:
		t.counter = 0
		if t.info.OverflowAtTop || top == t.max {
			t.raise(core.EventOverflow)
		}
		if t.info.Top == core.TopCapture {
			t.raise(core.EventCapture)
		}
		b.bottom(t)
	case t.counter == t.max:
		// TOP was moved below the counter; it runs on to MAX first.
		t.counter = 0
		t.raise(core.EventOverflow)
		b.bottom(t)
	default:
		t.counter++
	}
	b.match(t)
}

func (b *timerBank) countDual(t *timerState, top uint16) {
	if top == 0 {
		return
	}
	if !t.down {
		t.counter++
		if t.counter >= top {
			t.counter = top
			t.down = true
			if t.info.Top == core.TopCapture {
				t.raise(core.EventCapture)
			}
		}
	} else {
		t.counter--
		if t.counter == 0 {
			t.down = false
			t.raise(core.EventOverflow)
		}
	}
	b.match(t)
}

// match raises compare flags and updates connected OC pins.
func (b *timerBank) match(t *timerState) {
	for ch := 0; ch < t.channels; ch++ {
		if t.counter != t.ocr[ch] {
			continue
		}
		t.raise(core.Channel(ch).Event())
		var level bool
		switch t.oc[ch] {
		case core.OCDisconnected:
			continue
		case core.OCToggle:
			level = !b.m.Level(t.ocPin[ch])
		case core.OCNonInverting:
			level = t.down
		case core.OCInverting:
			level = !t.down
		}
		b.m.setOutputBit(t.ocPin[ch], level)
	}
}

// bottom restarts a single-slope PWM period on the OC pins.
func (b *timerBank) bottom(t *timerState) {
	if !t.info.OverflowAtTop {
		return
	}
	for ch := 0; ch < t.channels; ch++ {
		switch t.oc[ch] {
		case core.OCNonInverting:
			b.m.setOutputBit(t.ocPin[ch], true)
		case core.OCInverting:
			b.m.setOutputBit(t.ocPin[ch], false)
		}
	}
}

// TimerCounts returns how many times timer id has counted.
func (m *Machine) TimerCounts(id core.TimerID) uint64 {
	if t := m.timers.timer(id); t != nil {
		return t.counts
	}
	return 0
}

// TimerRunning reports whether timer id has a clock.
func (m *Machine) TimerRunning(id core.TimerID) bool {
	t := m.timers.timer(id)
	return t != nil && t.running
}

// TimerFlag peeks at a flag without spending time.
func (m *Machine) TimerFlag(id core.TimerID, ev core.TimerEvent) bool {
	t := m.timers.timer(id)
	return t != nil && t.flags&(1<<ev) != 0
}
