package core

// Error is a constant error value usable from interrupt context.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidPin       = Error("invalid port or pin")
	ErrUnsupportedMode  = Error("waveform mode not supported by timer")
	ErrUnsupportedClock = Error("clock source not supported by timer")
	ErrUnsupportedEvent = Error("event not supported by timer")
	ErrUnsupportedSense = Error("sense mode not supported by interrupt line")
	ErrCompareRange     = Error("compare value exceeds counter width")
	ErrDutyOutOfRange   = Error("duty cycle must be within 0..100 percent")
	ErrAngleOutOfRange  = Error("servo angle must be within -90..90 degrees")
	ErrNotConfigured    = Error("peripheral not configured")
	ErrMotorIndex       = Error("motor index must be 1 or 2")
	ErrNoTopRegister    = Error("timer has no input capture register")
	ErrSpeedMode        = Error("independent motor speeds need the different-speeds mode")
	ErrInvalidDirection = Error("unknown drive direction")
	ErrTimerBusy        = Error("servo timer is driving motor 1")
	ErrUnknownCommand   = Error("unknown command id")
	ErrCursorRange      = Error("cursor position outside the display")
)
