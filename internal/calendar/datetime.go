// Package calendar converts ticks to broken-down local calendar time and
// back, applying the standing offset and DST of a loaded zone.
package calendar

import (
	"errors"
	"time"

	"simtime/internal/tick"
)

var (
	ErrInvalidMonth = errors.New("calendar: invalid month")
	ErrInvalidDay   = errors.New("calendar: invalid day")
	ErrInvalidTime  = errors.New("calendar: invalid time of day")
	ErrUnknownZone  = errors.New("calendar: unknown timezone label")
	ErrOutOfRange   = errors.New("calendar: out of range")
	// ErrInvariant reports an internal inconsistency, e.g. a day-of-year
	// that does not fall in any month.
	ErrInvariant = errors.New("calendar: invariant violated")
)

// DateTime is a broken-down local time.
type DateTime struct {
	Year       int
	Month      int // 1-12
	Day        int // 1-31
	Hour       int
	Minute     int
	Second     int // 0-60
	Nanosecond int
	Weekday    int // 0=Sunday
	YearDay    int // 0-based
	IsDST      bool
	// TZ is the zone label ("EST", "EDT", "GMT"). On input an empty label
	// lets the converter infer standard or daylight time.
	TZ string
	// TZOffset is the effective offset in seconds west of GMT (EDT = 14400).
	TZOffset int
	// Tick is the GMT tick the value was produced from.
	Tick tick.Tick
}

// Wall returns the local wall-clock fields as a time.Time in UTC. The
// result carries no zone information; it exists so calendar arithmetic
// from other libraries can run on local wall time.
func (dt DateTime) Wall() time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, time.UTC)
}

// FromWall is the inverse of Wall. The returned value has an empty TZ, so
// FromCalendar infers the label.
func FromWall(w time.Time) DateTime {
	return DateTime{
		Year:       w.Year(),
		Month:      int(w.Month()),
		Day:        w.Day(),
		Hour:       w.Hour(),
		Minute:     w.Minute(),
		Second:     w.Second(),
		Nanosecond: w.Nanosecond(),
		Weekday:    int(w.Weekday()),
		YearDay:    w.YearDay() - 1,
	}
}
