// Package logicalday implements the noon-boundary day bucket used for daily
// habits. A logical day starts at 12:00 local time rather than midnight, so a
// task finished at 23:50 still counts toward the evening's day. Days are
// encoded as YYYYMMDD integers.
package logicalday

import "time"

// Day is a YYYYMMDD-encoded logical day.
type Day = int

const startHour = 12 // noon

// FromTime returns the logical day containing t.
func FromTime(t time.Time) Day {
	if t.Hour() < startHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Today returns the logical day for the current wall clock.
func Today() Day {
	return FromTime(time.Now())
}

// ToTime returns the start of the logical day (noon local time).
func ToTime(d Day) time.Time {
	year := d / 10000
	month := time.Month(d % 10000 / 100)
	day := d % 100
	return time.Date(year, month, day, startHour, 0, 0, 0, time.Local)
}

// AddDays shifts a logical day by n calendar days.
func AddDays(d Day, n int) Day {
	return FromTime(ToTime(d).AddDate(0, 0, n))
}

// DaysBetween returns the absolute number of calendar days between two
// logical days.
func DaysBetween(a, b Day) int {
	diff := ToTime(b).Sub(ToTime(a))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// Week returns the seven logical days of the week containing ref, Monday
// through Sunday.
func Week(ref Day) []Day {
	t := ToTime(ref)
	weekday := int(t.Weekday())
	offset := 1 - weekday
	if weekday == 0 { // Sunday
		offset = -6
	}
	monday := t.AddDate(0, 0, offset)

	days := make([]Day, 7)
	for i := range days {
		days[i] = FromTime(monday.AddDate(0, 0, i))
	}
	return days
}
