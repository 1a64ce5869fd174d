package calendar

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"simtime/internal/dst"
	"simtime/internal/epoch"
	"simtime/internal/tick"
)

const testRules = `
[1970]
GMT0
EST5EDT,M4.5.0/02:00,M10.5.0/02:00
[2007]
EST5EDT,M3.2.0/02:00,M11.1.0/02:00
AEST-10AEDT,M10.1.0/02:00,M4.1.0/03:00
JST-9
`

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

func TestToLocalEastern(t *testing.T) {
	c := NewConverter(loadZone(t, "EST5EDT"))

	got, err := c.ToLocal(1685628000) // 2023-06-01T14:00:00Z
	if err != nil {
		t.Fatal(err)
	}
	want := DateTime{
		Year: 2023, Month: 6, Day: 1, Hour: 10,
		Weekday: 4, YearDay: 151,
		IsDST: true, TZ: "EDT", TZOffset: 14400,
		Tick: 1685628000,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToLocal mismatch (-want +got):\n%s", diff)
	}

	got, err = c.ToLocal(1673794800) // 2023-01-15T15:00:00Z
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour != 10 || got.TZ != "EST" || got.TZOffset != 18000 || got.IsDST {
		t.Errorf("winter ToLocal = %+v", got)
	}
	if off := c.LocalOffset(1673794800); off != 18000 {
		t.Errorf("LocalOffset = %d, want 18000", off)
	}
}

func TestToLocalMatchesTimePackage(t *testing.T) {
	cases := []struct {
		tz  string
		loc *time.Location
	}{
		{"", time.UTC},
		{"JST-9", time.FixedZone("JST", 9*3600)},
	}
	for _, tc := range cases {
		var c *Converter
		if tc.tz == "" {
			c = NewConverter(nil)
		} else {
			c = NewConverter(loadZone(t, tc.tz))
		}
		for ts := tick.Tick(0); ts < tick.Max; ts += 7*tick.Day + 3*tick.Hour + 17*tick.Minute + 11 {
			ref := ts.Time().In(tc.loc)
			got, err := c.ToLocal(ts)
			if err != nil {
				t.Fatalf("%s ToLocal(%d): %v", tc.tz, ts, err)
			}
			want := [8]int{ref.Year(), int(ref.Month()), ref.Day(), ref.Hour(), ref.Minute(), ref.Second(), int(ref.Weekday()), ref.YearDay() - 1}
			have := [8]int{got.Year, got.Month, got.Day, got.Hour, got.Minute, got.Second, got.Weekday, got.YearDay}
			if want != have {
				t.Fatalf("%s ToLocal(%d) = %v, want %v", tc.tz, ts, have, want)
			}
		}
	}
}

func TestToLocalRange(t *testing.T) {
	c := NewConverter(nil)
	for _, ts := range []tick.Tick{-1, tick.Max + 1, tick.Never} {
		if _, err := c.ToLocal(ts); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("ToLocal(%d) error = %v, want ErrOutOfRange", ts, err)
		}
	}
	dt, err := c.ToLocal(0)
	if err != nil {
		t.Fatal(err)
	}
	if dt.Year != 1970 || dt.Weekday != 4 || dt.TZ != "GMT" {
		t.Errorf("ToLocal(0) = %+v", dt)
	}
	if _, err := c.ToLocal(tick.Max); err != nil {
		t.Errorf("ToLocal(Max): %v", err)
	}

	// Local time before the epoch cannot be represented.
	est := NewConverter(loadZone(t, "EST5EDT"))
	if _, err := est.ToLocal(0); !errors.Is(err, epoch.ErrOutOfRange) {
		t.Errorf("EST ToLocal(0) error = %v, want epoch.ErrOutOfRange", err)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tz := range []string{"EST5EDT", "AEST-10AEDT", "JST-9"} {
		c := NewConverter(loadZone(t, tz))
		for ts := 3 * tick.Day; ts < tick.Max-tick.Day; ts += 5*tick.Day + 7*tick.Hour + 13 {
			dt, err := c.ToLocal(ts)
			if err != nil {
				t.Fatalf("%s ToLocal(%d): %v", tz, ts, err)
			}
			back, err := c.FromCalendar(dt)
			if err != nil {
				t.Fatalf("%s FromCalendar(%+v): %v", tz, dt, err)
			}
			if back != ts {
				t.Fatalf("%s round trip %d -> %+v -> %d", tz, ts, dt, back)
			}
		}
	}
}

func TestFromCalendarLabels(t *testing.T) {
	c := NewConverter(loadZone(t, "EST5EDT"))
	june := DateTime{Year: 2023, Month: 6, Day: 1, Hour: 10}
	jan := DateTime{Year: 2023, Month: 1, Day: 15, Hour: 10}

	cases := []struct {
		dt    DateTime
		label string
		want  tick.Tick
	}{
		{june, "", 1685628000},
		{june, "EDT", 1685628000},
		{june, "EST", 1685628000 + 3600},
		{june, "GMT", 1685628000 - 4*3600},
		{june, "utc", 1685628000 - 4*3600},
		{jan, "", 1673794800},
		{jan, "est", 1673794800},
	}
	for _, tc := range cases {
		dt := tc.dt
		dt.TZ = tc.label
		got, err := c.FromCalendar(dt)
		if err != nil {
			t.Errorf("FromCalendar(%q): %v", tc.label, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FromCalendar(%+v) = %d, want %d", dt, got, tc.want)
		}
	}

	june.TZ = "PST"
	if _, err := c.FromCalendar(june); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("PST error = %v, want ErrUnknownZone", err)
	}
	june.TZ = "EST"
	if _, err := NewConverter(nil).FromCalendar(june); !errors.Is(err, ErrUnknownZone) {
		t.Errorf("GMT converter with EST label error = %v, want ErrUnknownZone", err)
	}
}

func TestFromCalendarValidation(t *testing.T) {
	c := NewConverter(nil)
	base := DateTime{Year: 2023, Month: 2, Day: 28, Hour: 12}
	cases := []struct {
		name   string
		mutate func(*DateTime)
		want   error
	}{
		{"feb 29 non-leap", func(d *DateTime) { d.Day = 29 }, ErrInvalidDay},
		{"day 0", func(d *DateTime) { d.Day = 0 }, ErrInvalidDay},
		{"month 13", func(d *DateTime) { d.Month = 13 }, ErrInvalidMonth},
		{"month 0", func(d *DateTime) { d.Month = 0 }, ErrInvalidMonth},
		{"hour 24", func(d *DateTime) { d.Hour = 24 }, ErrInvalidTime},
		{"minute 60", func(d *DateTime) { d.Minute = 60 }, ErrInvalidTime},
		{"second 61", func(d *DateTime) { d.Second = 61 }, ErrInvalidTime},
		{"nanosecond", func(d *DateTime) { d.Nanosecond = 1e9 }, ErrInvalidTime},
		{"year 1969", func(d *DateTime) { d.Year = 1969 }, ErrOutOfRange},
		{"year 3001", func(d *DateTime) { d.Year = 3001 }, ErrOutOfRange},
		{"after max", func(d *DateTime) { d.Year = 3000 }, ErrOutOfRange},
	}
	for _, tc := range cases {
		dt := base
		tc.mutate(&dt)
		if _, err := c.FromCalendar(dt); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}

	leap := DateTime{Year: 2024, Month: 2, Day: 29, Hour: 12}
	if got, err := c.FromCalendar(leap); err != nil || got != 1709208000 {
		t.Errorf("FromCalendar(2024-02-29) = %d, %v", got, err)
	}
	leap.Second = 60
	if got, err := c.FromCalendar(leap); err != nil || got != 1709208060 {
		t.Errorf("FromCalendar(second 60) = %d, %v", got, err)
	}
}

func TestToLocalPrecise(t *testing.T) {
	c := NewConverter(nil)
	dt, err := c.ToLocalPrecise(1685628000.25)
	if err != nil {
		t.Fatal(err)
	}
	if dt.Hour != 14 || dt.Nanosecond != 250_000_000 {
		t.Errorf("ToLocalPrecise = %+v", dt)
	}
	dt, err = c.ToLocalPrecise(59.9999999999)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := [3]int{dt.Minute, dt.Second, dt.Nanosecond}, [3]int{1, 0, 0}; got != want {
		t.Errorf("ToLocalPrecise(59.9999999999) minute, second, ns = %v, want %v", got, want)
	}
	if _, err := c.ToLocalPrecise(-0.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ToLocalPrecise(-0.5) error = %v", err)
	}
}

func TestWallRoundTrip(t *testing.T) {
	c := NewConverter(loadZone(t, "EST5EDT"))
	dt, err := c.ToLocal(1685628000)
	if err != nil {
		t.Fatal(err)
	}
	w := dt.Wall()
	if want := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC); !w.Equal(want) {
		t.Errorf("Wall() = %v, want %v", w, want)
	}
	back, err := c.FromCalendar(FromWall(w))
	if err != nil || back != 1685628000 {
		t.Errorf("FromCalendar(FromWall) = %d, %v", back, err)
	}
}

func TestPart(t *testing.T) {
	c := NewConverter(loadZone(t, "EST5EDT"))
	const ts = tick.Tick(1685628000)
	cases := map[string]float64{
		"seconds":  1685628000,
		"hours":    1685628000.0 / 3600,
		"hour":     10,
		"day":      1,
		"Month":    6,
		"year":     2023,
		"weekday":  4,
		"yearday":  151,
		"isdst":    1,
		"tzoffset": 14400,
	}
	for name, want := range cases {
		got, err := c.Part(ts, name)
		if err != nil || got != want {
			t.Errorf("Part(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := c.Part(ts, "fortnight"); !errors.Is(err, ErrUnknownPart) {
		t.Errorf("Part(fortnight) error = %v", err)
	}
}

func TestSetPart(t *testing.T) {
	c := NewConverter(loadZone(t, "EST5EDT"))
	const ts = tick.Tick(1685628000)
	cases := []struct {
		name, value string
		want        tick.Tick
	}{
		{"hour", "12", ts + 2*tick.Hour},
		{"day", "2", ts + tick.Day},
		{"yearday", "152", ts + tick.Day},
		{"isdst", "0", ts + tick.Hour},
		{"days", "2", 2 * tick.Day},
	}
	for _, tc := range cases {
		got, err := c.SetPart(ts, tc.name, tc.value)
		if err != nil || got != tc.want {
			t.Errorf("SetPart(%s=%s) = %d, %v; want %d", tc.name, tc.value, got, err, tc.want)
		}
	}

	errCases := []struct {
		name, value string
		want        error
	}{
		{"weekday", "1", ErrReadOnlyPart},
		{"fortnight", "1", ErrUnknownPart},
		{"month", "13", ErrInvalidMonth},
		{"day", "31", ErrInvalidDay},
	}
	for _, tc := range errCases {
		if _, err := c.SetPart(ts, tc.name, tc.value); !errors.Is(err, tc.want) {
			t.Errorf("SetPart(%s=%s) error = %v, want %v", tc.name, tc.value, err, tc.want)
		}
	}
	if _, err := c.SetPart(ts, "hour", "ten"); err == nil {
		t.Error("SetPart(hour=ten) succeeded")
	}
}
