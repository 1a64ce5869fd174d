// Package dst loads daylight saving time rules and answers whether a tick
// falls inside a timezone's DST interval.
//
// Rules use the POSIX TZ transition form
//
//	M<month>.<nth>.<weekday>/<hh[:mm]>
//
// where nth 5 means "last occurrence in the month". Transition times are
// local standard time.
package dst

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"simtime/internal/epoch"
	"simtime/internal/tick"
)

var errInvalidRule = errors.New("invalid rule")

// Rule is one DST transition event: the Nth Weekday of Month at Hour:Minute.
type Rule struct {
	Month   int // 1-12
	Nth     int // 1-5, 5 = last
	Weekday int // 0=Sunday
	Hour    int
	Minute  int
}

// Validate checks the rule's fields.
func (r Rule) Validate() error {
	switch {
	case r.Month < 1 || r.Month > 12:
		return fmt.Errorf("%w: month %d", errInvalidRule, r.Month)
	case r.Nth < 1 || r.Nth > 5:
		return fmt.Errorf("%w: week %d", errInvalidRule, r.Nth)
	case r.Weekday < 0 || r.Weekday > 6:
		return fmt.Errorf("%w: weekday %d", errInvalidRule, r.Weekday)
	case r.Hour < 0 || r.Hour > 23:
		return fmt.Errorf("%w: hour %d", errInvalidRule, r.Hour)
	case r.Minute < 0 || r.Minute > 59:
		return fmt.Errorf("%w: minute %d", errInvalidRule, r.Minute)
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("M%d.%d.%d/%02d:%02d", r.Month, r.Nth, r.Weekday, r.Hour, r.Minute)
}

var icalDays = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RRule returns the rule as an RFC 5545 yearly recurrence.
func (r Rule) RRule() string {
	nth := strconv.Itoa(r.Nth)
	if r.Nth == 5 {
		nth = "-1"
	}
	return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%s%s;BYHOUR=%d;BYMINUTE=%d;BYSECOND=0",
		r.Month, nth, icalDays[r.Weekday], r.Hour, r.Minute)
}

// ParseRule parses "M3.2.0/02:00". The time part may omit minutes ("/2")
// and defaults to 02:00 when absent.
func ParseRule(s string) (Rule, error) {
	r := Rule{Hour: 2}
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "M")
	if !ok {
		return r, fmt.Errorf("%w: %q: missing M prefix", errInvalidRule, s)
	}
	date, at, hasTime := strings.Cut(body, "/")

	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return r, fmt.Errorf("%w: %q: want M<month>.<week>.<weekday>", errInvalidRule, s)
	}
	fields := []*int{&r.Month, &r.Nth, &r.Weekday}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return r, fmt.Errorf("%w: %q: %v", errInvalidRule, s, err)
		}
		*fields[i] = n
	}

	if hasTime {
		hh, mm, hasMin := strings.Cut(at, ":")
		h, err := strconv.Atoi(hh)
		if err != nil {
			return r, fmt.Errorf("%w: %q: hour: %v", errInvalidRule, s, err)
		}
		r.Hour, r.Minute = h, 0
		if hasMin {
			m, err := strconv.Atoi(mm)
			if err != nil {
				return r, fmt.Errorf("%w: %q: minute: %v", errInvalidRule, s, err)
			}
			r.Minute = m
		}
	}
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("%q: %w", s, err)
	}
	return r, nil
}

// ComputeEvent returns the GMT tick at which r occurs in year for a zone
// whose standard time is offset seconds west of GMT.
func ComputeEvent(year int, r Rule, offset int) (tick.Tick, error) {
	if err := r.Validate(); err != nil {
		return tick.Invalid, err
	}
	yearStart, err := epoch.StartOf(year)
	if err != nil {
		return tick.Invalid, err
	}

	days := int(yearStart/tick.Day) + epoch.DaysBeforeMonth(r.Month, year)
	first := (days + epoch.FirstWeekday) % 7 // weekday of the 1st
	d := 1 + (r.Weekday-first+7)%7 + (r.Nth-1)*7
	for n := epoch.DaysInMonth(r.Month, year); d > n; {
		d -= 7
	}
	days += d - 1

	t := tick.Tick(days)*tick.Day + tick.Tick(r.Hour)*tick.Hour + tick.Tick(r.Minute)*tick.Minute
	return t + tick.Tick(offset)*tick.Second, nil
}
