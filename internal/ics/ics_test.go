package ics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/go-cmp/cmp"
	"github.com/teambition/rrule-go"

	"simtime/internal/calendar"
	"simtime/internal/dst"
	"simtime/internal/schedule"
	"simtime/internal/tick"
)

const testRules = `
[1987]
EST5EDT,M4.1.0/02:00,M10.5.0/02:00
[2007]
EST5EDT,M3.2.0/02:00,M11.1.0/02:00
[2008]
AEST-10AEDT,M10.1.0/02:00,M4.1.0/03:00
JST-9
`

const sample = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//simtime test//EN
BEGIN:VEVENT
UID:utc-1
SUMMARY:Launch
DTSTART:20230601T140000Z
END:VEVENT
BEGIN:VEVENT
UID:float-1
SUMMARY:Dentist
DTSTART:20230602T090000
END:VEVENT
BEGIN:VEVENT
UID:weekly
SUMMARY:Standup
DTSTART:20230306T090000
RRULE:FREQ=WEEKLY;BYDAY=MO
EXDATE:20230313T090000
END:VEVENT
BEGIN:VEVENT
UID:weekly
SUMMARY:Standup (moved)
RECURRENCE-ID:20230320T090000
DTSTART:20230320T110000
END:VEVENT
BEGIN:VEVENT
UID:allday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20230704
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte { return []byte(strings.ReplaceAll(s, "\n", "\r\n")) }

func loadZone(t *testing.T, tz string) *dst.Zone {
	t.Helper()
	rules, err := dst.ParseRules(strings.NewReader(testRules))
	if err != nil {
		t.Fatal(err)
	}
	z, err := dst.Load(tz, rules)
	if err != nil {
		t.Fatalf("Load(%q): %v", tz, err)
	}
	return z
}

func TestParseICS(t *testing.T) {
	conv := calendar.NewConverter(loadZone(t, "EST5EDT"))
	events, err := ParseICS(Source{ID: "cal"}, crlf(sample), conv)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	type view struct {
		UID      string
		Start    time.Time
		AllDay   bool
		Override bool
		RRule    string
		ExDates  int
	}
	var got []view
	for _, ev := range events {
		got = append(got, view{ev.UID, ev.Start, ev.AllDay, ev.IsOverride, ev.RawRRule, len(ev.ExDates)})
	}
	want := []view{
		{UID: "utc-1", Start: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)},
		{UID: "float-1", Start: time.Date(2023, 6, 2, 9, 0, 0, 0, time.UTC)},
		{UID: "weekly", Start: time.Date(2023, 3, 6, 9, 0, 0, 0, time.UTC), RRule: "FREQ=WEEKLY;BYDAY=MO", ExDates: 1},
		{UID: "weekly", Start: time.Date(2023, 3, 20, 11, 0, 0, 0, time.UTC), Override: true},
		{UID: "allday", Start: time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC), AllDay: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if r := events[3].Recurrence; r == nil || !r.Equal(time.Date(2023, 3, 20, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("override RECURRENCE-ID = %v", r)
	}
}

func TestParseICSEmpty(t *testing.T) {
	if _, err := ParseICS(Source{ID: "x"}, nil, nil); err == nil {
		t.Error("ParseICS accepted an empty body")
	}
}

func TestSources(t *testing.T) {
	conv := calendar.NewConverter(loadZone(t, "EST5EDT"))
	events, err := ParseICS(Source{ID: "cal"}, crlf(sample), conv)
	if err != nil {
		t.Fatal(err)
	}
	sources, err := Sources(events, conv)
	if err != nil {
		t.Fatal(err)
	}

	const after = tick.Tick(1678449600) // 2023-03-10 12:00Z
	got := map[string]tick.Tick{}
	for _, s := range sources {
		at, ok := s.Next(after)
		if !ok {
			t.Errorf("%s: no wake-up", s.ID())
			continue
		}
		got[s.ID()] = at
	}
	want := map[string]tick.Tick{
		"cal/utc-1":    1685628000, // 2023-06-01 14:00Z
		"cal/float-1":  1685710800, // 2023-06-02 09:00 EDT
		"cal/weekly":   1679922000, // 03-13 excluded, 03-20 moved, 03-27 09:00 EDT
		"cal/allday":   1688443200, // 2023-07-04 00:00 EDT
		"cal/weekly#0": 1679324400, // 2023-03-20 11:00 EDT
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("first wake-ups (-want +got):\n%s", diff)
	}

	planner := schedule.NewPlanner()
	for _, s := range sources {
		planner.Add(s, false)
	}
	p, ok := planner.Next(after)
	if !ok || p.SourceID != "cal/weekly#0" || p.At() != 1679324400 {
		t.Errorf("Next = %+v, %v", p, ok)
	}
}

func TestReadOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cal.ics")
	if err := os.WriteFile(path, crlf(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := ReadOne(Source{ID: "cal", Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Digest) != 16 || len(res.Body) == 0 {
		t.Errorf("ReadOne = digest %q, %d bytes", res.Digest, len(res.Body))
	}

	if _, err := ReadOne(Source{ID: "none"}); err == nil {
		t.Error("ReadOne accepted an empty path")
	}

	results, errs := ReadAll(context.Background(), []Source{
		{ID: "cal", Path: path},
		{ID: "missing", Path: filepath.Join(dir, "missing.ics")},
	})
	if len(results) != 1 || len(errs) != 1 || !errors.Is(errs[0], os.ErrNotExist) {
		t.Errorf("ReadAll = %d results, errs %v", len(results), errs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if results, errs := ReadAll(ctx, []Source{{ID: "cal", Path: path}}); len(results) != 0 || len(errs) != 1 {
		t.Errorf("ReadAll with canceled context = %d results, %d errs", len(results), len(errs))
	}
}

// exported returns the transition ticks described by an exported calendar,
// expanding each RRULE on wall time and shifting by the zone offset.
func exported(t *testing.T, doc string, offset int) []tick.Tick {
	t.Helper()
	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	var out []tick.Tick
	for _, ev := range cal.Events() {
		start := ev.GetProperty(ical.ComponentPropertyDtStart).Value
		rr := ev.GetProperty(ical.ComponentPropertyRrule)
		if rr == nil {
			at, err := time.Parse("20060102T150405Z", start)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, tick.FromTime(at))
			continue
		}
		wall, err := time.Parse(floatLayout, start)
		if err != nil {
			t.Fatal(err)
		}
		r, err := rrule.StrToRRule(rr.Value)
		if err != nil {
			t.Fatalf("StrToRRule(%q): %v", rr.Value, err)
		}
		r.DTStart(wall)
		for _, w := range r.All() {
			out = append(out, tick.FromTime(w)+tick.Tick(offset)*tick.Second)
		}
	}
	slices.Sort(out)
	return out
}

func transitions(z *dst.Zone, from, to int) []tick.Tick {
	var out []tick.Tick
	for _, iv := range z.Transitions(from, to) {
		out = append(out, iv.Start, iv.End)
	}
	slices.Sort(out)
	return out
}

func TestExportTransitions(t *testing.T) {
	stamp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		tz       string
		from, to int
		events   int
	}{
		{"EST5EDT", 2000, 2010, 4}, // two rule eras
		{"AEST-10AEDT", 2008, 2012, 2},
		{"JST-9", 2000, 2010, 0},
	}
	for _, tc := range tests {
		t.Run(tc.tz, func(t *testing.T) {
			z := loadZone(t, tc.tz)
			want := transitions(z, tc.from, tc.to)

			doc, err := ExportTransitions(z, ExportOptions{From: tc.from, To: tc.to, Stamp: stamp})
			if err != nil {
				t.Fatal(err)
			}
			if n := strings.Count(doc, "BEGIN:VEVENT"); n != tc.events {
				t.Errorf("rule export has %d VEVENTs, want %d", n, tc.events)
			}
			if diff := cmp.Diff(want, exported(t, doc, z.Offset())); diff != "" {
				t.Errorf("rule export (-want +got):\n%s", diff)
			}

			doc, err = ExportTransitions(z, ExportOptions{From: tc.from, To: tc.to, Expand: true, Stamp: stamp})
			if err != nil {
				t.Fatal(err)
			}
			if n := strings.Count(doc, "BEGIN:VEVENT"); n != len(want) {
				t.Errorf("expanded export has %d VEVENTs, want %d", n, len(want))
			}
			if diff := cmp.Diff(want, exported(t, doc, z.Offset())); diff != "" {
				t.Errorf("expanded export (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportTransitionsErrors(t *testing.T) {
	if _, err := ExportTransitions(nil, ExportOptions{From: 2000, To: 2001}); err == nil {
		t.Error("accepted a nil zone")
	}
	if _, err := ExportTransitions(loadZone(t, "JST-9"), ExportOptions{From: 2010, To: 2000}); err == nil {
		t.Error("accepted an empty range")
	}
}
