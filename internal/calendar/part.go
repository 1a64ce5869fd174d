package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"simtime/internal/epoch"
	"simtime/internal/tick"
)

var (
	ErrUnknownPart  = errors.New("calendar: unknown part")
	ErrReadOnlyPart = errors.New("calendar: part is read-only")
)

var scaledParts = map[string]tick.Tick{
	"seconds": tick.Second,
	"minutes": tick.Minute,
	"hours":   tick.Hour,
	"days":    tick.Day,
}

// Part returns a named component of t. "seconds", "minutes", "hours" and
// "days" scale the whole tick; the singular names and "month", "year",
// "weekday", "yearday", "isdst", "nanosecond", "tzoffset" read the local
// calendar fields.
func (c *Converter) Part(t tick.Tick, name string) (float64, error) {
	name = strings.ToLower(name)
	if unit, ok := scaledParts[name]; ok {
		return float64(t) / float64(unit), nil
	}
	dt, err := c.ToLocal(t)
	if err != nil {
		return 0, err
	}
	switch name {
	case "second":
		return float64(dt.Second), nil
	case "minute":
		return float64(dt.Minute), nil
	case "hour":
		return float64(dt.Hour), nil
	case "day":
		return float64(dt.Day), nil
	case "month":
		return float64(dt.Month), nil
	case "year":
		return float64(dt.Year), nil
	case "weekday":
		return float64(dt.Weekday), nil
	case "yearday":
		return float64(dt.YearDay), nil
	case "isdst":
		if dt.IsDST {
			return 1, nil
		}
		return 0, nil
	case "nanosecond":
		return float64(dt.Nanosecond), nil
	case "tzoffset":
		return float64(dt.TZOffset), nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownPart)
}

// SetPart returns t with the named component replaced by value. Setting a
// scaled part ("hours", ...) replaces the whole tick. Setting a calendar
// field keeps the other local fields and the current zone label.
func (c *Converter) SetPart(t tick.Tick, name, value string) (tick.Tick, error) {
	name = strings.ToLower(name)
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return t, fmt.Errorf("set %s=%q: %w", name, value, err)
	}
	if unit, ok := scaledParts[name]; ok {
		if n < 0 || tick.Tick(n) > tick.Max/unit {
			return t, fmt.Errorf("set %s=%d: %w", name, n, ErrOutOfRange)
		}
		return tick.Tick(n) * unit, nil
	}

	dt, err := c.ToLocal(t)
	if err != nil {
		return t, err
	}
	v := int(n)
	switch name {
	case "second":
		dt.Second = v
	case "minute":
		dt.Minute = v
	case "hour":
		dt.Hour = v
	case "day":
		dt.Day = v
	case "month":
		dt.Month = v
	case "year":
		dt.Year = v
	case "nanosecond":
		dt.Nanosecond = v
	case "yearday":
		if v < 0 || v >= epoch.DaysInYear(dt.Year) {
			return t, fmt.Errorf("set yearday=%d: %w", v, ErrInvalidDay)
		}
		dt.Month, dt.Day = 1, v+1
		for dt.Day > epoch.DaysInMonth(dt.Month, dt.Year) {
			dt.Day -= epoch.DaysInMonth(dt.Month, dt.Year)
			dt.Month++
		}
	case "isdst":
		if c.zone == nil || c.zone.DST() == "" {
			return t, fmt.Errorf("set isdst: zone has no daylight time: %w", ErrUnknownZone)
		}
		dt.TZ = c.zone.Std()
		if v != 0 {
			dt.TZ = c.zone.DST()
		}
	case "weekday", "tzoffset":
		return t, fmt.Errorf("set %s: %w", name, ErrReadOnlyPart)
	default:
		return t, fmt.Errorf("%q: %w", name, ErrUnknownPart)
	}
	return c.FromCalendar(dt)
}
