package core

// Rotation is the sense a motor turns in.
type Rotation uint8

const (
	CW Rotation = iota
	CCW
)

// BridgePattern is the decoded state of an H-bridge channel's pins.
type BridgePattern uint8

const (
	PatternFree      BridgePattern = iota // enable low, motor coasts
	PatternFastStop                       // enable high, both inputs low
	PatternCW                             // enable high, x low, y high
	PatternCCW                            // enable high, x high, y low
	PatternShootThru                      // both inputs high, never driven by this package
)

func (p BridgePattern) String() string {
	switch p {
	case PatternFree:
		return "free"
	case PatternFastStop:
		return "brake"
	case PatternCW:
		return "cw"
	case PatternCCW:
		return "ccw"
	}
	return "invalid"
}

// HBridgeChannel drives one motor through an enable pin and two direction
// inputs. It keeps no state: every call fully determines the pin levels.
type HBridgeChannel struct {
	Enable Pin
	X, Y   Pin
}

// Init makes all three pins outputs and leaves the motor coasting.
func (h HBridgeChannel) Init() error {
	for _, p := range [...]Pin{h.Enable, h.X, h.Y} {
		if err := p.ConfigureOutput(); err != nil {
			return err
		}
	}
	return nil
}

func (h HBridgeChannel) CW() {
	h.Enable.High()
	h.X.Low()
	h.Y.High()
}

func (h HBridgeChannel) CCW() {
	h.Enable.High()
	h.X.High()
	h.Y.Low()
}

// FastStop shorts the motor terminals for active braking.
func (h HBridgeChannel) FastStop() {
	h.Enable.High()
	h.X.Low()
	h.Y.Low()
}

// FreeStop disconnects the motor so it coasts.
func (h HBridgeChannel) FreeStop() {
	h.Enable.Low()
}

// Drive turns the motor at full torque in r.
func (h HBridgeChannel) Drive(r Rotation) {
	if r == CCW {
		h.CCW()
		return
	}
	h.CW()
}

// Pattern reads the pins back.
func (h HBridgeChannel) Pattern() BridgePattern {
	if !h.Enable.Get() {
		return PatternFree
	}
	x, y := h.X.Get(), h.Y.Get()
	switch {
	case !x && !y:
		return PatternFastStop
	case !x && y:
		return PatternCW
	case x && !y:
		return PatternCCW
	}
	return PatternShootThru
}
