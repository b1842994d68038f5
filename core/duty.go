package core

// DutyCompare maps a duty cycle percentage to the compare value of an
// 8-bit PWM period: round(p*256/100) - 1, in integer arithmetic.
//
// Zero has no compare value; callers treat it as "output off" and the
// second return value is false. Percentages above 100 are rejected.
func DutyCompare(percent uint8) (uint8, bool, error) {
	if percent > 100 {
		return 0, false, ErrDutyOutOfRange
	}
	if percent == 0 {
		return 0, false, nil
	}
	scaled := (uint16(percent)*256 + 50) / 100
	return uint8(scaled - 1), true, nil
}

// DutyFromCompare is the inverse of DutyCompare, rounded to the nearest
// percent.
func DutyFromCompare(c uint8) uint8 {
	return uint8(((uint16(c)+1)*100 + 128) / 256)
}
