package protocol

// Encoder builds a message payload in a fixed buffer. The first write that
// does not fit sets a sticky error and later writes are dropped.
type Encoder struct {
	buf [PayloadMax]byte
	n   int
	err error
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) put(b byte) {
	if e.err != nil {
		return
	}
	if e.n == len(e.buf) {
		e.err = ErrPayloadTooLong
		return
	}
	e.buf[e.n] = b
	e.n++
}

// PutInt appends v in the variable length encoding: seven bits per byte,
// most significant group first, high bit set on every byte but the last.
// Values in [-32, 96) take one byte.
func (e *Encoder) PutInt(v int32) {
	for shift := uint(28); shift >= 7; shift -= 7 {
		lim := int32(1) << (shift - 2)
		if v < -lim || v >= 3*lim {
			e.put(byte(v>>shift)&0x7F | 0x80)
		}
	}
	e.put(byte(v) & 0x7F)
}

func (e *Encoder) PutUint(v uint32) { e.PutInt(int32(v)) }
func (e *Encoder) PutByte(v uint8)  { e.PutInt(int32(v)) }

func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutInt(1)
		return
	}
	e.PutInt(0)
}

// PutString appends a length prefixed string.
func (e *Encoder) PutString(s string) {
	e.PutUint(uint32(len(s)))
	for i := 0; i < len(s); i++ {
		e.put(s[i])
	}
}

// Bytes returns the payload written so far.
func (e *Encoder) Bytes() []byte { return e.buf[:e.n] }

func (e *Encoder) Len() int   { return e.n }
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) Reset() {
	e.n = 0
	e.err = nil
}

// Decoder reads values from a payload. Reading past the end sets a sticky
// error and returns zero values.
type Decoder struct {
	data []byte
	err  error
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Reset points the decoder at data and clears its error.
func (d *Decoder) Reset(data []byte) {
	d.data = data
	d.err = nil
}

func (d *Decoder) next() (byte, bool) {
	if d.err != nil {
		return 0, false
	}
	if len(d.data) == 0 {
		d.err = ErrShortPayload
		return 0, false
	}
	b := d.data[0]
	d.data = d.data[1:]
	return b, true
}

// Int reads one variable length value.
func (d *Decoder) Int() int32 {
	c, ok := d.next()
	if !ok {
		return 0
	}
	v := uint32(c) & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if c, ok = d.next(); !ok {
			return 0
		}
		v = v<<7 | uint32(c)&0x7F
	}
	return int32(v)
}

func (d *Decoder) Uint() uint32 { return uint32(d.Int()) }
func (d *Decoder) Byte() uint8  { return uint8(d.Int()) }
func (d *Decoder) Bool() bool   { return d.Int() != 0 }

// String reads a length prefixed string.
func (d *Decoder) String() string {
	n := d.Uint()
	if d.err != nil {
		return ""
	}
	if n > uint32(len(d.data)) {
		d.err = ErrBadString
		return ""
	}
	s := string(d.data[:n])
	d.data = d.data[n:]
	return s
}

// Remaining reports how many undecoded bytes are left.
func (d *Decoder) Remaining() int { return len(d.data) }

func (d *Decoder) Err() error { return d.err }
