package protocol

// AppendFrame appends a complete frame carrying payload to dst.
func AppendFrame(dst []byte, seq uint8, payload []byte) []byte {
	start := len(dst)
	dst = append(dst, uint8(len(payload)+MessageMin), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, uint8(crc>>8), uint8(crc), MessageSync)
}

// scanner splits a byte stream into frames. After a bad frame it drops
// input up to the next sync byte.
type scanner struct {
	lost     bool
	desyncs  uint32
	received uint32
}

// scan calls fn for every complete valid frame in data and returns how many
// bytes were consumed. An incomplete trailing frame is left unconsumed.
func (s *scanner) scan(data []byte, fn func(seq uint8, payload []byte)) int {
	total := len(data)
	for len(data) > 0 {
		if s.lost {
			i := 0
			for i < len(data) && data[i] != MessageSync {
				i++
			}
			if i == len(data) {
				return total
			}
			data = data[i+1:]
			s.lost = false
			continue
		}
		if data[0] == MessageSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageMin {
			break
		}
		n := int(data[posLength])
		if n < MessageMin || n > MessageMax || data[posSeq]&^MessageSeqMask != MessageDest {
			s.resync()
			continue
		}
		if len(data) < n {
			break
		}
		crc := uint16(data[n-3])<<8 | uint16(data[n-2])
		if data[n-1] != MessageSync || crc != CRC16(data[:n-MessageTrailer]) {
			s.resync()
			continue
		}
		s.received++
		fn(data[posSeq], data[MessageHeader:n-MessageTrailer])
		data = data[n:]
	}
	return total - len(data)
}

func (s *scanner) resync() {
	s.lost = true
	s.desyncs++
}
