package protocol

import (
	"bytes"
	"testing"
)

func TestEncoderByteLayout(t *testing.T) {
	testCases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-1, []byte{0x7F}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
		{300, []byte{0x82, 0x2C}},
		{1000000, []byte{0xBD, 0x84, 0x40}},
	}

	for _, tc := range testCases {
		var e Encoder
		e.PutInt(tc.v)
		if !bytes.Equal(e.Bytes(), tc.want) {
			t.Errorf("PutInt(%d) = % X, expected % X", tc.v, e.Bytes(), tc.want)
		}
	}
}

func TestCodecValues(t *testing.T) {
	values := []int32{0, 1, -1, 127, -128, 255, 1000, -1000, 65535, -65535, 1 << 30, -(1 << 30)}

	var e Encoder
	for _, v := range values {
		e.PutInt(v)
	}
	e.PutString("roverbot")
	e.PutBool(true)
	e.PutByte(200)
	e.PutUint(0xFFFFFFFF)
	if e.Err() != nil {
		t.Fatalf("encode: %v", e.Err())
	}

	d := NewDecoder(e.Bytes())
	for _, v := range values {
		if got := d.Int(); got != v {
			t.Errorf("Int() = %d, expected %d", got, v)
		}
	}
	if s := d.String(); s != "roverbot" {
		t.Errorf("String() = %q", s)
	}
	if !d.Bool() {
		t.Error("Bool() = false")
	}
	if b := d.Byte(); b != 200 {
		t.Errorf("Byte() = %d, expected 200", b)
	}
	if u := d.Uint(); u != 0xFFFFFFFF {
		t.Errorf("Uint() = %#x", u)
	}
	if d.Err() != nil || d.Remaining() != 0 {
		t.Errorf("decoder left err=%v remaining=%d", d.Err(), d.Remaining())
	}
}

func TestDecoderTruncated(t *testing.T) {
	d := NewDecoder([]byte{0x82})
	if v := d.Int(); v != 0 {
		t.Errorf("Int() on truncated input = %d", v)
	}
	if d.Err() != ErrShortPayload {
		t.Errorf("Err() = %v, expected ErrShortPayload", d.Err())
	}
	// Sticky.
	d.Reset(nil)
	d.Int()
	if d.Err() != ErrShortPayload {
		t.Errorf("empty payload: Err() = %v", d.Err())
	}
}

func TestDecoderBadString(t *testing.T) {
	d := NewDecoder([]byte{10, 'a', 'b'})
	if s := d.String(); s != "" {
		t.Errorf("String() = %q", s)
	}
	if d.Err() != ErrBadString {
		t.Errorf("Err() = %v, expected ErrBadString", d.Err())
	}
}

func TestEncoderOverflow(t *testing.T) {
	var e Encoder
	for i := 0; i < PayloadMax+1; i++ {
		e.PutByte(1)
	}
	if e.Err() != ErrPayloadTooLong {
		t.Errorf("Err() = %v, expected ErrPayloadTooLong", e.Err())
	}
	if e.Len() != PayloadMax {
		t.Errorf("Len() = %d, expected %d", e.Len(), PayloadMax)
	}
	e.Reset()
	if e.Err() != nil || e.Len() != 0 {
		t.Error("Reset did not clear the encoder")
	}
}

func TestLookup(t *testing.T) {
	f, ok := Lookup(MsgDrive)
	if !ok || f.Name != "drive" {
		t.Errorf("Lookup(MsgDrive) = %+v, %v", f, ok)
	}
	for i, f := range Formats() {
		if f.ID != uint16(i+1) {
			t.Errorf("format %q has id %d at index %d", f.Name, f.ID, i)
		}
	}
	if _, ok := Lookup(0); ok {
		t.Error("Lookup(0) succeeded")
	}
	if _, ok := Lookup(numMessages); ok {
		t.Error("Lookup past the table succeeded")
	}
}
