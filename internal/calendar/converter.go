package calendar

import (
	"fmt"
	"math"
	"strings"

	"simtime/internal/dst"
	"simtime/internal/epoch"
	"simtime/internal/tick"
)

// Converter maps ticks to local calendar time for one zone. A nil zone is
// GMT. Converters are immutable and safe for concurrent use.
type Converter struct {
	zone  *dst.Zone
	table *epoch.Table
}

// NewConverter returns a converter for zone (nil for GMT).
func NewConverter(zone *dst.Zone) *Converter {
	return &Converter{zone: zone, table: epoch.Default}
}

// Zone returns the converter's zone, nil for GMT.
func (c *Converter) Zone() *dst.Zone { return c.zone }

func (c *Converter) offset() tick.Tick {
	if c.zone == nil {
		return 0
	}
	return tick.Tick(c.zone.Offset()) * tick.Second
}

// IsDST reports whether t falls in daylight time.
func (c *Converter) IsDST(t tick.Tick) bool {
	return c.zone != nil && c.zone.IsDST(t)
}

// LocalOffset returns the effective offset at t in seconds west of GMT.
func (c *Converter) LocalOffset(t tick.Tick) int {
	off := c.offset()
	if c.IsDST(t) {
		off -= tick.Hour
	}
	return int(off / tick.Second)
}

// ToLocal converts a GMT tick to local calendar time.
func (c *Converter) ToLocal(t tick.Tick) (DateTime, error) {
	if t < 0 || t > tick.Max {
		return DateTime{}, fmt.Errorf("to local %d: %w", t, ErrOutOfRange)
	}
	isDST := c.IsDST(t)
	off := c.offset()
	label := "GMT"
	if c.zone != nil {
		label = c.zone.Std()
	}
	if isDST {
		off -= tick.Hour
		label = c.zone.DST()
	}

	local := t - off
	year, rem, err := c.table.YearOf(local)
	if err != nil {
		return DateTime{}, fmt.Errorf("to local %d: %w", t, err)
	}

	yday := int(rem / tick.Day)
	secs := rem % tick.Day

	month, day := 1, yday
	for ; month <= 12; month++ {
		n := epoch.DaysInMonth(month, year)
		if day < n {
			break
		}
		day -= n
	}
	if month > 12 {
		return DateTime{}, fmt.Errorf("to local %d: day %d of %d: %w", t, yday, year, ErrInvariant)
	}

	return DateTime{
		Year:     year,
		Month:    month,
		Day:      day + 1,
		Hour:     int(secs / tick.Hour),
		Minute:   int(secs % tick.Hour / tick.Minute),
		Second:   int(secs % tick.Minute / tick.Second),
		Weekday:  int((local/tick.Day + epoch.FirstWeekday) % 7),
		YearDay:  yday,
		IsDST:    isDST,
		TZ:       label,
		TZOffset: int(off / tick.Second),
		Tick:     t,
	}, nil
}

// ToLocalPrecise converts a fractional tick, carrying the fraction as
// nanoseconds.
func (c *Converter) ToLocalPrecise(v float64) (DateTime, error) {
	if math.IsNaN(v) || v < 0 || v > float64(tick.Max) {
		return DateTime{}, fmt.Errorf("to local %g: %w", v, ErrOutOfRange)
	}
	whole, ns := tick.Split(v)
	dt, err := c.ToLocal(whole)
	if err != nil {
		return dt, err
	}
	dt.Nanosecond = ns
	return dt, nil
}

// FromCalendar converts local calendar time to a GMT tick. The TZ label
// selects the offset: empty infers standard or daylight time, "GMT" and
// "UTC" take the fields as GMT, and the zone's standard or daylight label
// apply that offset. Weekday, YearDay, IsDST, TZOffset and Tick are
// ignored.
func (c *Converter) FromCalendar(dt DateTime) (tick.Tick, error) {
	if dt.Year < epoch.FirstYear || dt.Year >= epoch.LastYear {
		return tick.Invalid, fmt.Errorf("year %d: %w", dt.Year, ErrOutOfRange)
	}
	if dt.Month < 1 || dt.Month > 12 {
		return tick.Invalid, fmt.Errorf("month %d: %w", dt.Month, ErrInvalidMonth)
	}
	if dt.Day < 1 || dt.Day > epoch.DaysInMonth(dt.Month, dt.Year) {
		return tick.Invalid, fmt.Errorf("%04d-%02d-%02d: %w", dt.Year, dt.Month, dt.Day, ErrInvalidDay)
	}
	switch {
	case dt.Hour < 0 || dt.Hour > 23,
		dt.Minute < 0 || dt.Minute > 59,
		dt.Second < 0 || dt.Second > 60,
		dt.Nanosecond < 0 || dt.Nanosecond > 999_999_999:
		return tick.Invalid, fmt.Errorf("%02d:%02d:%02d.%09d: %w", dt.Hour, dt.Minute, dt.Second, dt.Nanosecond, ErrInvalidTime)
	}

	start, err := c.table.StartOf(dt.Year)
	if err != nil {
		return tick.Invalid, err
	}
	days := epoch.DaysBeforeMonth(dt.Month, dt.Year) + dt.Day - 1
	local := start + tick.Tick(days)*tick.Day +
		tick.Tick(dt.Hour)*tick.Hour + tick.Tick(dt.Minute)*tick.Minute + tick.Tick(dt.Second)*tick.Second

	t, err := c.resolveLabel(local, strings.TrimSpace(dt.TZ))
	if err != nil {
		return tick.Invalid, err
	}
	if t < 0 || t > tick.Max {
		return tick.Invalid, fmt.Errorf("%04d-%02d-%02d %s: %w", dt.Year, dt.Month, dt.Day, dt.TZ, ErrOutOfRange)
	}
	return t, nil
}

func (c *Converter) resolveLabel(local tick.Tick, label string) (tick.Tick, error) {
	off := c.offset()
	switch {
	case label == "":
		if c.zone == nil {
			return local, nil
		}
		if c.zone.DST() != "" && c.zone.IsDST(local+off-tick.Hour) {
			return local + off - tick.Hour, nil
		}
		return local + off, nil
	case strings.EqualFold(label, "GMT"), strings.EqualFold(label, "UTC"):
		return local, nil
	case c.zone == nil:
	case strings.EqualFold(label, c.zone.Std()):
		return local + off, nil
	case c.zone.DST() != "" && strings.EqualFold(label, c.zone.DST()):
		return local + off - tick.Hour, nil
	}
	return tick.Invalid, fmt.Errorf("%q: %w", label, ErrUnknownZone)
}
