package protocol

import (
	"time"
)

// DateTimeSize is the size of a packed date/time field
const DateTimeSize = 4

// baseYear is added to the 6-bit year field
const baseYear = 2000

// DecodeDateTime unpacks a 4-byte date/time field.
//
// Bit layout:
//
//	year   = 2000 + b0[5:0]
//	month  = b0[7:6] | b1[1:0]<<2
//	day    = b1[6:2]
//	hour   = b1[7] | b2[3:0]<<1
//	minute = b2[7:4] | b3[1:0]<<4
//	second = b3[7:2]
//
// The meter has no notion of time zone; the result is returned in UTC.
func DecodeDateTime(data []byte) (time.Time, error) {
	if err := need(data, DateTimeSize, "date/time"); err != nil {
		return time.Time{}, err
	}

	b0, b1, b2, b3 := int(data[0]), int(data[1]), int(data[2]), int(data[3])
	year := baseYear + b0&0x3F
	month := b0>>6 | (b1&0x03)<<2
	day := (b1 >> 2) & 0x1F
	hour := b1>>7 | (b2&0x0F)<<1
	minute := b2>>4 | (b3&0x03)<<4
	second := b3 >> 2

	invalid := &DecodeError{
		Kind:     KindInvalidDateTime,
		DateTime: [6]int{year, month, day, hour, minute, second},
	}
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, invalid
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	// time.Date normalizes overflowing days, e.g. Feb 30
	if t.Day() != day {
		return time.Time{}, invalid
	}
	return t, nil
}

// PackDateTime encodes t in the meter's 4-byte format.
// Years outside 2000-2063 wrap.
func PackDateTime(t time.Time) [DateTimeSize]byte {
	year := t.Year() - baseYear
	month := int(t.Month())
	day, hour, minute, second := t.Day(), t.Hour(), t.Minute(), t.Second()

	return [DateTimeSize]byte{
		byte(year&0x3F | (month&0x03)<<6),
		byte((month>>2)&0x03 | (day&0x1F)<<2 | (hour&0x01)<<7),
		byte((hour>>1)&0x0F | (minute&0x0F)<<4),
		byte((minute>>4)&0x03 | (second&0x3F)<<2),
	}
}
