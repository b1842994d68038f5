package core

import "testing"

func TestDutyCompare(t *testing.T) {
	tests := []struct {
		percent uint8
		compare uint8
		on      bool
	}{
		{0, 0, false},
		{1, 2, true},
		{50, 127, true},
		{54, 137, true},
		{60, 153, true},
		{99, 252, true},
		{100, 255, true},
	}
	for _, tt := range tests {
		c, on, err := DutyCompare(tt.percent)
		if err != nil || c != tt.compare || on != tt.on {
			t.Errorf("DutyCompare(%d) = %d, %v, %v; expected %d, %v",
				tt.percent, c, on, err, tt.compare, tt.on)
		}
	}
	if _, _, err := DutyCompare(101); err != ErrDutyOutOfRange {
		t.Errorf("DutyCompare(101) error = %v", err)
	}
}

func TestDutyFromCompareInverts(t *testing.T) {
	for p := uint8(1); p <= 100; p++ {
		c, _, _ := DutyCompare(p)
		if got := DutyFromCompare(c); got != p {
			t.Errorf("DutyFromCompare(DutyCompare(%d)) = %d", p, got)
		}
	}
}

// The drive phase lasts compare ticks, so it runs short of the exact
// 2.56*p ticks by more than half a tick and at most one and a half.
func TestDutyCompareDrivePhaseError(t *testing.T) {
	for p := uint8(1); p < 100; p++ {
		c, _, _ := DutyCompare(p)
		// Hundredths of a tick.
		short := int(p)*256 - int(c)*100
		if short <= 50 || short > 150 {
			t.Errorf("DutyCompare(%d) = %d: drive phase %.2f ticks short", p, c, float64(short)/100)
		}
	}
	c, _, _ := DutyCompare(54)
	if short := 54*256 - int(c)*100; short != 124 {
		t.Errorf("54%%: %.2f ticks short, expected 1.24", float64(short)/100)
	}
}

func TestFormatCentimeters(t *testing.T) {
	tests := map[float32]string{
		0:      "0  ",
		3.43:   "3  ",
		45:     "45 ",
		99.99:  "99 ",
		400:    "400",
		1234.5: "1234",
		-2:     "0  ",
	}
	for in, want := range tests {
		if got := FormatCentimeters(in); got != want {
			t.Errorf("FormatCentimeters(%v) = %q, expected %q", in, got, want)
		}
	}
}

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		v      float32
		digits int
		want   string
	}{
		{3.43, 4, "3.43"},
		{0, 4, "0"},
		{-1.5, 2, "-1.5"},
		{2.00004, 4, "2"},
		{10.25, 2, "10.25"},
	}
	for _, tt := range tests {
		if got := FormatDecimal(tt.v, tt.digits); got != tt.want {
			t.Errorf("FormatDecimal(%v, %d) = %q, expected %q", tt.v, tt.digits, got, tt.want)
		}
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", -42: "-42", 65535: "65535"} {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q", n, got)
		}
	}
}

func TestDirectionLetters(t *testing.T) {
	for d := Forward; d < numDirections; d++ {
		got, ok := DirectionFromLetter(d.Letter())
		if !ok || got != d {
			t.Errorf("%v: letter %q parsed as %v, %v", d, d.Letter(), got, ok)
		}
	}
	if _, ok := DirectionFromLetter('x'); ok {
		t.Error("'x' accepted as a direction")
	}
}

func TestTimerCapabilities(t *testing.T) {
	if err := T0.Init(ModeFastPWMICR, Clock8); err != ErrUnsupportedMode {
		t.Errorf("T0 ICR mode: %v", err)
	}
	if err := T0.Init(ModeNormal, Clock32); err != ErrUnsupportedClock {
		t.Errorf("T0 Clock32: %v", err)
	}
	if err := T2.Init(ModeNormal, ClockExtRising); err != ErrUnsupportedClock {
		t.Errorf("T2 external clock: %v", err)
	}
	if err := T0.SetTop(100); err != ErrNoTopRegister {
		t.Errorf("T0 SetTop: %v", err)
	}
	if err := T2.SetCompare(ChannelB, 1); err != ErrUnsupportedEvent {
		t.Errorf("T2 channel B: %v", err)
	}
	if err := T0.SetCallback(EventCapture, func() {}); err != ErrUnsupportedEvent {
		t.Errorf("T0 capture callback: %v", err)
	}
	if T0.Max() != 0xFF || T1.Max() != 0xFFFF {
		t.Errorf("Max() = %#x, %#x", T0.Max(), T1.Max())
	}
	if !T1.Supports(EventCapture) || !T1.SupportsMode(ModePhaseFreqCorrectICR) {
		t.Error("T1 capabilities missing")
	}
}

func TestExtIntSenseValidation(t *testing.T) {
	if err := Int2.SetSense(SenseLowLevel); err != ErrUnsupportedSense {
		t.Errorf("INT2 low level: %v", err)
	}
	if err := Int2.SetSense(SenseAnyChange); err != ErrUnsupportedSense {
		t.Errorf("INT2 any change: %v", err)
	}
	if err := Int0.SetSense(Sense(9)); err != ErrUnsupportedSense {
		t.Errorf("bad sense: %v", err)
	}
}

func TestModeInfo(t *testing.T) {
	if i := ModeFastPWM.Info(8); i.FixedTop != 0xFF || !i.OverflowAtTop || i.DualSlope {
		t.Errorf("fast PWM 8-bit: %+v", i)
	}
	if i := ModePhaseCorrect.Info(8); !i.DualSlope {
		t.Errorf("phase correct: %+v", i)
	}
	if i := ModeFastPWMICR.Info(16); i.Top != TopCapture {
		t.Errorf("fast PWM ICR: %+v", i)
	}
	if i := ModeCTC.Info(8); i.Top != TopCompareA {
		t.Errorf("CTC: %+v", i)
	}
}
