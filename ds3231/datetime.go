package ds3231

import (
	"fmt"
	"time"
)

// DateTime mirrors the seven time-keeping registers in binary form. Fields
// are never range checked: a value outside 0-99 produces an undefined BCD
// pattern on the chip.
type DateTime struct {
	Second uint8 // 0-59
	Minute uint8 // 0-59
	Hour   uint8 // 0-23

	// Weekday is stored opaquely by the chip. Any 1-7 mapping works as long
	// as the same one is used for reading and writing.
	Weekday uint8
	Day     uint8 // 1-31
	Month   uint8 // 1-12
	Year    uint8 // 0-99

	// Century reports the rollover flag kept in bit 7 of the month
	// register. It is filled on reads only; writes always clear it.
	Century bool
}

// FromTime builds a DateTime from t, using Sunday=1 for the weekday.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Second:  uint8(t.Second()),
		Minute:  uint8(t.Minute()),
		Hour:    uint8(t.Hour()),
		Weekday: uint8(t.Weekday()) + 1,
		Day:     uint8(t.Day()),
		Month:   uint8(t.Month()),
		Year:    uint8(t.Year() % 100),
	}
}

// Time interprets dt as a UTC time in the 21st century, or the 22nd when
// Century is set.
func (dt DateTime) Time() time.Time {
	year := 2000 + int(dt.Year)
	if dt.Century {
		year += 100
	}
	return time.Date(year, time.Month(dt.Month), int(dt.Day),
		int(dt.Hour), int(dt.Minute), int(dt.Second), 0, time.UTC)
}

func (dt DateTime) String() string {
	return fmt.Sprintf("%02d-%02d-%02d %02d:%02d:%02d wday=%d",
		dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Weekday)
}
