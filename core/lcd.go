package core

import "time"

// HD44780 instruction bits.
const (
	lcdClear        = 0x01
	lcdHome         = 0x02
	lcdEntryMode    = 0x04
	lcdDisplayCtl   = 0x08
	lcdShift        = 0x10
	lcdFunctionSet  = 0x20
	lcdSetCGRAMAddr = 0x40
	lcdSetDDRAMAddr = 0x80

	lcdEntryIncrement = 0x02
	lcdEntryShift     = 0x01
	lcdDisplayOn      = 0x04
	lcdCursorOn       = 0x02
	lcdBlinkOn        = 0x01
	lcdShiftDisplay   = 0x08
	lcdShiftRight     = 0x04
	lcdEightBit       = 0x10
	lcdTwoLines       = 0x08
	lcdFont5x10       = 0x04

	lcdRow1Offset = 0x40
)

// LCDConfig wires an HD44780 compatible module to DIO pins. Data holds
// D4..D7 for the 4-bit interface or D0..D7 for the 8-bit one.
type LCDConfig struct {
	RS, RW, E Pin
	Data      []Pin

	Rows, Cols uint8

	// EnablePulse is the width of each half of the E strobe.
	EnablePulse time.Duration
}

// LCD is a character display driven over the DIO layer.
type LCD struct {
	cfg LCDConfig
}

// NewLCD validates cfg.
func NewLCD(cfg LCDConfig) (*LCD, error) {
	if len(cfg.Data) != 4 && len(cfg.Data) != 8 {
		return nil, ErrNotConfigured
	}
	for _, p := range append([]Pin{cfg.RS, cfg.RW, cfg.E}, cfg.Data...) {
		if !p.Valid() {
			return nil, ErrInvalidPin
		}
	}
	if cfg.Rows == 0 {
		cfg.Rows = 2
	}
	if cfg.Cols == 0 {
		cfg.Cols = 16
	}
	if cfg.EnablePulse == 0 {
		cfg.EnablePulse = time.Millisecond
	}
	return &LCD{cfg: cfg}, nil
}

func (l *LCD) fourBit() bool {
	return len(l.cfg.Data) == 4
}

// Init runs the power-on sequence: interface width, two lines, display
// on without cursor, incrementing entry mode, cleared screen.
func (l *LCD) Init() error {
	for _, p := range append([]Pin{l.cfg.RS, l.cfg.RW, l.cfg.E}, l.cfg.Data...) {
		if err := p.ConfigureOutput(); err != nil {
			return err
		}
	}
	DelayMs(50)

	if l.fourBit() {
		// The controller wakes up in 8-bit mode; three function sets put
		// it in a known state before switching to four bits.
		l.cfg.RS.Low()
		l.cfg.RW.Low()
		for i := 0; i < 3; i++ {
			l.writeNibble(0x3)
			DelayMs(5)
		}
		l.writeNibble(0x2)
		DelayUs(100)
	}

	var fn uint8 = lcdTwoLines
	if !l.fourBit() {
		fn |= lcdEightBit
	}
	if l.cfg.Rows == 1 {
		fn &^= lcdTwoLines
	}
	l.FunctionSet(fn)
	l.DisplayControl(true, false, false)
	l.EntryModeSet(true, false)
	return l.Clear()
}

// SendInstruction writes a command byte.
func (l *LCD) SendInstruction(b uint8) {
	l.cfg.RS.Low()
	l.cfg.RW.Low()
	l.writeByte(b)
	DelayUs(50)
}

// SendChar writes one character at the cursor.
func (l *LCD) SendChar(c byte) {
	l.cfg.RS.High()
	l.cfg.RW.Low()
	l.writeByte(c)
	DelayUs(50)
}

func (l *LCD) writeByte(b uint8) {
	if l.fourBit() {
		l.writeNibble(b >> 4)
		l.writeNibble(b & 0x0F)
		return
	}
	for i, p := range l.cfg.Data {
		_ = SetPinValue(p, b&(1<<i) != 0)
	}
	l.strobe()
}

// writeNibble puts the low four bits of n on D4..D7 and strobes E.
func (l *LCD) writeNibble(n uint8) {
	data := l.cfg.Data
	if len(data) == 8 {
		data = data[4:]
	}
	for i, p := range data {
		_ = SetPinValue(p, n&(1<<i) != 0)
	}
	l.strobe()
}

// strobe latches the data lines on the falling edge of E.
func (l *LCD) strobe() {
	l.cfg.E.High()
	Delay(l.cfg.EnablePulse)
	l.cfg.E.Low()
	Delay(l.cfg.EnablePulse)
}

func (l *LCD) Clear() error {
	l.SendInstruction(lcdClear)
	DelayMs(2)
	return nil
}

func (l *LCD) ReturnHome() {
	l.SendInstruction(lcdHome)
	DelayMs(2)
}

func (l *LCD) EntryModeSet(increment, shift bool) {
	var b uint8 = lcdEntryMode
	if increment {
		b |= lcdEntryIncrement
	}
	if shift {
		b |= lcdEntryShift
	}
	l.SendInstruction(b)
}

func (l *LCD) DisplayControl(on, cursor, blink bool) {
	var b uint8 = lcdDisplayCtl
	if on {
		b |= lcdDisplayOn
	}
	if cursor {
		b |= lcdCursorOn
	}
	if blink {
		b |= lcdBlinkOn
	}
	l.SendInstruction(b)
}

// Shift moves the cursor, or the whole display when display is true.
func (l *LCD) Shift(display, right bool) {
	var b uint8 = lcdShift
	if display {
		b |= lcdShiftDisplay
	}
	if right {
		b |= lcdShiftRight
	}
	l.SendInstruction(b)
}

// FunctionSet writes the interface width, line count and font bits.
func (l *LCD) FunctionSet(flags uint8) {
	l.SendInstruction(lcdFunctionSet | flags&(lcdEightBit|lcdTwoLines|lcdFont5x10))
}

func (l *LCD) SetCGRAMAddress(addr uint8) {
	l.SendInstruction(lcdSetCGRAMAddr | addr&0x3F)
}

func (l *LCD) SetDDRAMAddress(addr uint8) {
	l.SendInstruction(lcdSetDDRAMAddr | addr&0x7F)
}

// GoTo places the cursor at row, col.
func (l *LCD) GoTo(row, col uint8) error {
	if row >= l.cfg.Rows || col >= l.cfg.Cols {
		return ErrCursorRange
	}
	addr := col
	if row == 1 {
		addr += lcdRow1Offset
	}
	l.SetDDRAMAddress(addr)
	return nil
}

func (l *LCD) WriteString(s string) error {
	for i := 0; i < len(s); i++ {
		l.SendChar(s[i])
	}
	return nil
}

func (l *LCD) WriteNumber(n int32) error {
	return l.WriteString(itoa(int(n)))
}

// WriteFloat prints v with up to four fractional digits, trailing zeros
// removed.
func (l *LCD) WriteFloat(v float32) error {
	return l.WriteString(FormatDecimal(v, 4))
}

// FormatDecimal renders v with at most digits fractional digits and no
// trailing zeros.
func FormatDecimal(v float32, digits int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	half := float32(0.5)
	for i := 0; i < digits; i++ {
		half /= 10
	}
	v += half
	whole := uint32(v)
	frac := v - float32(whole)

	s := utoa(whole)
	if neg {
		s = "-" + s
	}
	var buf [8]byte
	n := 0
	for n < digits && n < len(buf) {
		frac *= 10
		d := uint8(frac)
		if d > 9 {
			d = 9
		}
		buf[n] = '0' + d
		frac -= float32(d)
		n++
	}
	for n > 0 && buf[n-1] == '0' {
		n--
	}
	if n == 0 {
		return s
	}
	return s + "." + string(buf[:n])
}
