package dst

import (
	"fmt"
	"strings"

	"simtime/internal/epoch"
	"simtime/internal/log"
	"simtime/internal/tick"
)

// Zone is a loaded timezone. It is immutable once Load returns.
type Zone struct {
	spec Spec
	eras []Entry // rule lines for spec.Name, in file order
}

// Interval is the half-open DST interval [Start, End) in GMT ticks.
type Interval struct {
	Start, End tick.Tick
}

// Contains reports whether t lies in the interval.
func (iv Interval) Contains(t tick.Tick) bool { return iv.Start <= t && t < iv.End }

// Load resolves tz against rules and returns the zone. tz is either a locale
// listed in the rule source ("US/Eastern") or a timezone specification
// ("EST5EDT", "NST3:30NDT"); the locale index is consulted first. A nil
// rules uses DefaultRules.
func Load(tz string, rules *RuleFile) (*Zone, error) {
	if rules == nil {
		var err error
		if rules, err = DefaultRules(); err != nil {
			return nil, fmt.Errorf("default rules: %w", err)
		}
	}
	tz = strings.TrimSpace(tz)

	name := tz
	if alias, ok := rules.Locale(tz); ok {
		log.Debug("timezone locale resolved", "locale", tz, "tz", alias)
		name = alias
	}
	spec, err := ParseSpec(name)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", tz, err)
	}

	z := &Zone{spec: spec}
	for _, e := range rules.Entries {
		if e.Spec.Name == spec.Name {
			z.eras = append(z.eras, e)
		}
	}
	if len(z.eras) == 0 {
		log.Warn("no rules found for timezone; DST disabled", "tz", spec.Name)
	} else {
		log.Info("timezone loaded", "tz", spec.Name, "eras", len(z.eras))
	}
	return z, nil
}

// Name returns the normalized timezone name, e.g. "EST5EDT".
func (z *Zone) Name() string { return z.spec.Name }

// Std returns the standard time label, e.g. "EST".
func (z *Zone) Std() string { return z.spec.Std }

// DST returns the daylight time label, or "" if the zone has none.
func (z *Zone) DST() string { return z.spec.DST }

// Offset returns the standard offset in seconds west of GMT.
func (z *Zone) Offset() int { return z.spec.Offset }

// HasRules reports whether the rule source had at least one line for the
// zone.
func (z *Zone) HasRules() bool { return len(z.eras) > 0 }

// Eras returns a copy of the zone's rule lines in file order.
func (z *Zone) Eras() []Entry {
	return append([]Entry(nil), z.eras...)
}

// Era returns the last rule line in file order whose scope covers year.
func (z *Zone) Era(year int) (Entry, bool) {
	var (
		found Entry
		ok    bool
	)
	for _, e := range z.eras {
		if e.Year <= year {
			found, ok = e, true
		}
	}
	return found, ok
}

// Interval returns the DST interval that starts in year. For southern
// hemisphere rules the end falls in year+1. It reports false when the zone
// observes no DST in year.
func (z *Zone) Interval(year int) (Interval, bool) {
	e, ok := z.Era(year)
	if !ok || !e.HasDST() {
		return Interval{}, false
	}
	start, err := ComputeEvent(year, *e.Start, z.spec.Offset)
	if err != nil {
		return Interval{}, false
	}
	endYear := year
	if e.Southern() {
		endYear++
	}
	end, err := ComputeEvent(endYear, *e.End, z.spec.Offset)
	if err != nil {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// IsDST reports whether t (GMT) falls inside a DST interval of the zone.
func (z *Zone) IsDST(t tick.Tick) bool {
	if z == nil || len(z.eras) == 0 || t < 0 || t == tick.Never {
		return false
	}
	local := max(t-tick.Tick(z.spec.Offset)*tick.Second, 0)
	year, _, err := epoch.YearOf(local)
	if err != nil {
		return false
	}

	if iv, ok := z.Interval(year); ok && iv.Contains(t) {
		return true
	}

	// Before this year's start: the interval that began last year may wrap.
	if year == epoch.FirstYear {
		e, ok := z.Era(year)
		if !ok || !e.Southern() {
			return false
		}
		end, err := ComputeEvent(year, *e.End, z.spec.Offset)
		return err == nil && t < end
	}
	prev, ok := z.Interval(year - 1)
	return ok && prev.Contains(t)
}

// Transitions returns the DST intervals starting in years from..to
// inclusive.
func (z *Zone) Transitions(from, to int) []Interval {
	var out []Interval
	for y := max(from, epoch.FirstYear); y <= min(to, epoch.LastYear); y++ {
		if iv, ok := z.Interval(y); ok {
			out = append(out, iv)
		}
	}
	return out
}
