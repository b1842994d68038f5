package core

// MaskInterrupts enters a critical section and returns the function that
// leaves it. Sections nest; the usual form is
//
//	defer core.MaskInterrupts()()
func MaskInterrupts() func() {
	state := disableInterrupts()
	return func() {
		restoreInterrupts(state)
	}
}

// WithInterruptsMasked runs fn with interrupts masked.
func WithInterruptsMasked(fn func()) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	fn()
}
