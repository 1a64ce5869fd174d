// Package schedule turns cron expressions, RFC 5545 recurrences and fixed
// instants into wake-up ticks and merges them into a single next wake-up.
//
// Recurrences are evaluated on local wall-clock time in the converter's
// zone and mapped back to GMT ticks, so "0 7 * * *" fires at 07:00 local on
// both sides of a DST change.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teambition/rrule-go"

	"simtime/internal/calendar"
	"simtime/internal/tick"
)

// ErrNoSchedule is returned when a wake-up has neither a cron nor an rrule
// expression.
var ErrNoSchedule = errors.New("schedule: no cron or rrule expression")

// maxSkips bounds how many wall-clock candidates Next discards when a local
// time repeats across a DST fall-back.
const maxSkips = 8

// Source proposes wake-up ticks.
type Source interface {
	ID() string
	// Next returns the first wake-up strictly after t, or false if there is
	// none.
	Next(after tick.Tick) (tick.Tick, bool)
}

// wallFunc returns the first local wall time strictly after w, or the zero
// time when there is none.
type wallFunc func(w time.Time) time.Time

// next maps after to local wall time, steps with fn and maps the result back.
func next(conv *calendar.Converter, fn wallFunc, after tick.Tick) (tick.Tick, bool) {
	if after < 0 || after >= tick.Max {
		return tick.Never, false
	}
	dt, err := conv.ToLocal(after)
	if err != nil {
		// Local time before the epoch: start from the first representable day.
		if dt, err = conv.ToLocal(tick.Day); err != nil {
			return tick.Never, false
		}
	}
	w := dt.Wall()
	for i := 0; i < maxSkips; i++ {
		w = fn(w)
		if w.IsZero() {
			return tick.Never, false
		}
		t, err := conv.FromCalendar(calendar.FromWall(w))
		if err != nil {
			return tick.Never, false
		}
		if t > after {
			return t, true
		}
	}
	return tick.Never, false
}

// CronSource fires on a standard five-field cron expression.
type CronSource struct {
	id    string
	sched cron.Schedule
	conv  *calendar.Converter
}

// NewCron parses spec with cron.ParseStandard. Descriptors such as
// "@daily" and "@every 1h" are accepted.
func NewCron(id, spec string, conv *calendar.Converter) (*CronSource, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("wake-up %s: cron %q: %w", id, spec, err)
	}
	return &CronSource{id: id, sched: sched, conv: orGMT(conv)}, nil
}

func (s *CronSource) ID() string { return s.id }

func (s *CronSource) Next(after tick.Tick) (tick.Tick, bool) {
	return next(s.conv, s.sched.Next, after)
}

// RRuleSource fires on an RFC 5545 recurrence set.
type RRuleSource struct {
	id   string
	set  *rrule.Set
	conv *calendar.Converter
}

// NewRRule parses rule (e.g. "FREQ=WEEKLY;BYDAY=MO;BYHOUR=9") anchored at
// start, a local wall time in time.UTC. exdates are excluded instances, also
// in local wall time.
func NewRRule(id, rule string, start time.Time, exdates []time.Time, conv *calendar.Converter) (*RRuleSource, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("wake-up %s: rrule %q: %w", id, rule, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex)
	}
	return &RRuleSource{id: id, set: &set, conv: orGMT(conv)}, nil
}

func (s *RRuleSource) ID() string { return s.id }

func (s *RRuleSource) Next(after tick.Tick) (tick.Tick, bool) {
	return next(s.conv, func(w time.Time) time.Time { return s.set.After(w, false) }, after)
}

// Fixed is a one-shot source.
type Fixed struct {
	SourceID string
	At       tick.Tick
}

func (f Fixed) ID() string { return f.SourceID }

func (f Fixed) Next(after tick.Tick) (tick.Tick, bool) {
	if f.At > after && f.At != tick.Never {
		return f.At, true
	}
	return tick.Never, false
}

func orGMT(conv *calendar.Converter) *calendar.Converter {
	if conv == nil {
		return calendar.NewConverter(nil)
	}
	return conv
}
