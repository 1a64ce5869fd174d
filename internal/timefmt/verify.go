package timefmt

import (
	"errors"
	"fmt"

	"simtime/internal/epoch"
	"simtime/internal/tick"
)

// maxReported caps the failures joined into Verify's error.
const maxReported = 20

// Report summarizes a Verify run.
type Report struct {
	Checked int
	Failed  int
}

// Verify exercises the formatter and parser over years from..to inclusive.
// For every DST interval it checks membership one tick either side of both
// edges and that each edge tick survives a format/parse round trip. It then
// walks the range in uneven steps checking the round trip. The formatter and
// parser must share a zone.
func Verify(f *Formatter, p *Parser, from, to int) (Report, error) {
	var (
		rep  Report
		errs []error
	)
	fail := func(err error) {
		rep.Failed++
		if len(errs) < maxReported {
			errs = append(errs, err)
		}
	}
	roundTrip := func(t tick.Tick) {
		rep.Checked++
		s, err := f.DateTime(t)
		if err != nil {
			fail(fmt.Errorf("format %d: %w", t, err))
			return
		}
		got, err := p.Parse(s)
		if err != nil {
			fail(err)
			return
		}
		if got != t {
			fail(fmt.Errorf("round trip %d -> %q -> %d", t, s, got))
		}
	}

	from = max(from, epoch.FirstYear)
	to = min(to, epoch.LastYear-1)
	conv := f.Converter()
	if z := conv.Zone(); z != nil {
		for _, iv := range z.Transitions(from, to) {
			for _, edge := range []struct {
				t    tick.Tick
				want bool
			}{
				{iv.Start - 1, false},
				{iv.Start, true},
				{iv.End - 1, true},
				{iv.End, false},
			} {
				rep.Checked++
				if got := conv.IsDST(edge.t); got != edge.want {
					fail(fmt.Errorf("%s: IsDST(%d) = %v, want %v", z.Name(), edge.t, got, edge.want))
				}
				if edge.t >= 0 && edge.t <= tick.Max {
					roundTrip(edge.t)
				}
			}
		}
	}

	start, err := epoch.StartOf(from)
	if err != nil {
		return rep, err
	}
	end, err := epoch.StartOf(to + 1)
	if err != nil {
		return rep, err
	}
	// Skip the first day so local time stays after the epoch.
	const step = tick.Day + tick.Hour + tick.Minute + tick.Second
	for t := start + tick.Day; t < min(end, tick.Max); t += step {
		roundTrip(t)
	}

	if rep.Failed > len(errs) {
		errs = append(errs, fmt.Errorf("%d more failures", rep.Failed-len(errs)))
	}
	return rep, errors.Join(errs...)
}
