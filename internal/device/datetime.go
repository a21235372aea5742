package device

import "fmt"

// DateTime is a real-time clock reading. Year is the full year (e.g. 2026).
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// HHMM formats the time of day as shown on the greeting screen.
func (d DateTime) HHMM() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// FromBCD decodes a packed binary-coded-decimal byte.
func FromBCD(b byte) int {
	return int(b&0x0F) + int(b>>4)*10
}

// ToBCD packs 0..99 into binary-coded decimal.
func ToBCD(v int) byte {
	return byte((v/10)<<4 | v%10)
}

// DecodeRTC decodes the 7-byte DS1307 register block: seconds, minutes,
// hours, weekday, date, month, year (offset from 2000). Control bits (clock
// halt, 12h mode) are masked out.
func DecodeRTC(regs [7]byte) DateTime {
	return DateTime{
		Second: FromBCD(regs[0] & 0x7F),
		Minute: FromBCD(regs[1]),
		Hour:   FromBCD(regs[2] & 0x3F),
		Day:    FromBCD(regs[4]),
		Month:  FromBCD(regs[5]),
		Year:   2000 + FromBCD(regs[6]),
	}
}
