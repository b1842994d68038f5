package core

// itoa converts an integer to a string without the fmt package.
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa(uint32(-n))
	}
	return utoa(uint32(n))
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// padRight left-aligns s in a field of width characters.
func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

// FormatCentimeters renders a distance as whole centimeters in a three
// character field, so shorter numbers blank the digits of longer ones on
// a character display. Fractions are truncated.
func FormatCentimeters(cm float32) string {
	if cm < 0 {
		cm = 0
	}
	return padRight(utoa(uint32(cm)), 3)
}
