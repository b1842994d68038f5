//go:build !tinygo

package core

import "sync/atomic"

// State is the saved interrupt state returned by disableInterrupts.
type State uintptr

var (
	// maskDepth counts nested critical sections on the host.
	maskDepth atomic.Int32

	// globalEnable mirrors the status register I bit.
	globalEnable atomic.Bool
)

func disableInterrupts() State {
	maskDepth.Add(1)
	return 0
}

func restoreInterrupts(state State) {
	maskDepth.Add(-1)
}

// EnableGlobalInterrupts sets the global interrupt enable flag.
func EnableGlobalInterrupts() {
	globalEnable.Store(true)
}

// DisableGlobalInterrupts clears the global interrupt enable flag.
func DisableGlobalInterrupts() {
	globalEnable.Store(false)
}

// InterruptsEnabled reports whether an interrupt could be taken right now.
// Simulated hardware checks this before dispatching a pending flag.
func InterruptsEnabled() bool {
	return globalEnable.Load() && maskDepth.Load() == 0
}
