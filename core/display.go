package core

// Display is a character display the control loop reports to.
type Display interface {
	Clear() error
	// GoTo moves the cursor; row and col start at zero.
	GoTo(row, col uint8) error
	WriteString(s string) error
	WriteNumber(n int32) error
}

// NopDisplay discards everything; used when no display is fitted.
type NopDisplay struct{}

func (NopDisplay) Clear() error               { return nil }
func (NopDisplay) GoTo(row, col uint8) error  { return nil }
func (NopDisplay) WriteString(s string) error { return nil }
func (NopDisplay) WriteNumber(n int32) error  { return nil }
