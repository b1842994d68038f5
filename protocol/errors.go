package protocol

// Error is a protocol failure.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrShortPayload   = Error("protocol: payload truncated")
	ErrPayloadTooLong = Error("protocol: payload too long")
	ErrBadString      = Error("protocol: string length out of range")
	ErrUnknownMessage = Error("protocol: unknown message id")
	ErrNak            = Error("protocol: frame not acknowledged")
	ErrClosed         = Error("protocol: transport closed")
)
