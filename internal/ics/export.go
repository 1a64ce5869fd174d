package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"simtime/internal/dst"
	"simtime/internal/epoch"
	"simtime/internal/log"
	"simtime/internal/tick"
)

const (
	productID   = "-//simtime//DST transitions//EN"
	floatLayout = "20060102T150405"
)

// ExportOptions selects the years and shape of an exported transition feed.
type ExportOptions struct {
	From, To int
	// Expand writes one UTC VEVENT per transition instead of one recurring
	// VEVENT per rule and edge.
	Expand bool
	// Stamp is written as DTSTAMP. Zero means now.
	Stamp time.Time
}

type edge struct {
	label string
	rule  func(dst.Entry) *dst.Rule
	// shift is the year offset of the edge relative to the interval's
	// start year.
	shift func(dst.Entry) int
}

var edges = [2]edge{
	{
		label: "start",
		rule:  func(e dst.Entry) *dst.Rule { return e.Start },
		shift: func(dst.Entry) int { return 0 },
	},
	{
		label: "end",
		rule:  func(e dst.Entry) *dst.Rule { return e.End },
		shift: func(e dst.Entry) int {
			if e.Southern() {
				return 1
			}
			return 0
		},
	},
}

// ExportTransitions renders z's DST transitions for intervals starting in
// opts.From..opts.To as an iCalendar document.
//
// By default each run of years governed by one rule line yields two
// recurring VEVENTs whose floating DTSTART is the rule's local standard time
// and whose RRULE repeats it yearly until the run ends.
func ExportTransitions(z *dst.Zone, opts ExportOptions) (string, error) {
	if z == nil {
		return "", errors.New("export: nil zone")
	}
	from, to := max(opts.From, epoch.FirstYear), min(opts.To, epoch.LastYear-1)
	if from > to {
		return "", fmt.Errorf("export: empty year range %d..%d", opts.From, opts.To)
	}
	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(z.Name() + " daylight saving time")

	var n int
	if opts.Expand {
		n = exportIntervals(cal, z, from, to, stamp)
	} else {
		var err error
		if n, err = exportRules(cal, z, from, to, stamp); err != nil {
			return "", err
		}
	}
	log.Info("dst transitions exported", "zone", z.Name(), "from", from, "to", to, "expand", opts.Expand, "events", n)
	return cal.Serialize(), nil
}

func exportIntervals(cal *ical.Calendar, z *dst.Zone, from, to int, stamp time.Time) int {
	n := 0
	for y := from; y <= to; y++ {
		iv, ok := z.Interval(y)
		if !ok {
			continue
		}
		for i, at := range [2]tick.Tick{iv.Start, iv.End} {
			ev := cal.AddEvent(fmt.Sprintf("%s-%d-%s@simtime", z.Name(), y, edges[i].label))
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(at.Time())
			ev.SetSummary(summary(z, i))
			n++
		}
	}
	return n
}

// run is a span of years that share one rule line.
type run struct {
	entry    dst.Entry
	from, to int
}

func runs(z *dst.Zone, from, to int) []run {
	var out []run
	for y := from; y <= to; y++ {
		e, ok := z.Era(y)
		if !ok || !e.HasDST() {
			continue
		}
		if k := len(out) - 1; k >= 0 && out[k].entry.Line == e.Line && out[k].to == y-1 {
			out[k].to = y
			continue
		}
		out = append(out, run{entry: e, from: y, to: y})
	}
	return out
}

func exportRules(cal *ical.Calendar, z *dst.Zone, from, to int, stamp time.Time) (int, error) {
	n := 0
	for _, r := range runs(z, from, to) {
		for i, ed := range edges {
			rule := ed.rule(r.entry)
			first, err := dst.ComputeEvent(r.from+ed.shift(r.entry), *rule, z.Offset())
			if err != nil {
				return n, fmt.Errorf("export %s %d: %w", z.Name(), r.from, err)
			}
			wall := (first - tick.Tick(z.Offset())*tick.Second).Time()
			until := fmt.Sprintf("%04d0101T000000", r.to+ed.shift(r.entry)+1)

			ev := cal.AddEvent(fmt.Sprintf("%s-%d-%s@simtime", z.Name(), r.from, ed.label))
			ev.SetDtStampTime(stamp)
			ev.SetProperty(ical.ComponentPropertyDtStart, wall.Format(floatLayout))
			ev.AddProperty(ical.ComponentPropertyRrule, rule.RRule()+";UNTIL="+until)
			ev.SetSummary(summary(z, i))
			ev.SetDescription(fmt.Sprintf("%s (%s), local standard time, years %d-%d", rule, z.Std(), r.from, r.to))
			n++
		}
	}
	return n, nil
}

func summary(z *dst.Zone, edgeIndex int) string {
	if edgeIndex == 0 {
		return z.DST() + " begins"
	}
	return z.Std() + " resumes"
}
