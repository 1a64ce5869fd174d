package timefmt

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"simtime/internal/calendar"
	"simtime/internal/tick"
)

// ErrInvalid wraps every parse failure.
var ErrInvalid = errors.New("timefmt: invalid time")

var (
	iso8601Offset = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})[ T]+(\d{1,2}):(\d{1,2}):(\d+(?:\.\d*)?)([-+])(\d{2}):?(\d{2})$`)
	iso8601Zulu   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})T(\d{1,2}):(\d{1,2}):(\d+(?:\.\d*)?)Z$`)
	dateTime      = regexp.MustCompile(`^(\d{1,4})[-/](\d{1,2})[-/](\d{1,4})(?:\s+(\d{1,2}):(\d{1,2})(?::(\d+(?:\.\d*)?))?)?(?:\s+([A-Za-z][A-Za-z0-9+:-]*))?$`)
	relative      = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*([A-Za-z]*)$`)
)

var units = map[string]tick.Tick{
	"":  tick.Second,
	"s": tick.Second,
	"m": tick.Minute,
	"h": tick.Hour,
	"d": tick.Day,
	"w": tick.Week,
}

// Parsed is a parse result with sub-tick precision.
type Parsed struct {
	// Tick is Value rounded to a whole tick. Calendar forms truncate.
	Tick tick.Tick
	// Nanosecond is the fraction of Value past its floor.
	Nanosecond int
	Value      float64
}

// Parser reads the text forms produced by Formatter plus sentinels and
// relative offsets.
type Parser struct {
	conv  *calendar.Converter
	style Style
	clock tick.Clock
}

// NewParser returns a parser. style orders the fields of dates without a
// four-digit leading year; clock resolves "NOW" and signed offsets. A nil
// converter parses in GMT and a nil clock uses the system clock.
func NewParser(conv *calendar.Converter, style Style, clock tick.Clock) *Parser {
	if conv == nil {
		conv = calendar.NewConverter(nil)
	}
	if clock == nil {
		clock = tick.SystemClock{}
	}
	return &Parser{conv: conv, style: style, clock: clock}
}

// Parse converts s to a tick. On failure it returns tick.Invalid and an
// error wrapping ErrInvalid.
func (p *Parser) Parse(s string) (tick.Tick, error) {
	r, err := p.ParsePrecise(s)
	return r.Tick, err
}

// ParsePrecise is Parse that also reports fractional seconds. The forms
// tried, in order:
//
//	2023-06-01T10:00:00-04:00   ISO8601 with numeric offset (also "-0400")
//	2023-06-01T14:00:00Z        ISO8601 UTC
//	2023-06-01 10:00:00 EDT     date [time [label]], "-" or "/" separated
//	INIT, NEVER, NOW
//	90, 1.5h, +10m, -2d         number with s/m/h/d/w unit
//
// A date whose first field is not a four-digit year is read in the
// parser's style order (US month/day/year, EURO day/month/year). A missing
// label means local time in the converter's zone. A leading sign on a
// number makes it relative to the clock.
func (p *Parser) ParsePrecise(s string) (Parsed, error) {
	in := strings.Trim(strings.TrimSpace(s), `'"`)
	r, err := p.parse(in)
	if err != nil {
		return Parsed{Tick: tick.Invalid, Value: float64(tick.Invalid)}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}
	return r, nil
}

func (p *Parser) parse(s string) (Parsed, error) {
	if m := iso8601Offset.FindStringSubmatch(s); m != nil {
		r, err := p.iso8601(m[1:7])
		if err != nil {
			return r, err
		}
		hh, _ := strconv.Atoi(m[8])
		mm, _ := strconv.Atoi(m[9])
		if hh > 14 || mm > 59 {
			return Parsed{}, fmt.Errorf("offset %s%s:%s is out of range", m[7], m[8], m[9])
		}
		shift := tick.Tick(hh*60+mm) * tick.Minute
		if m[7] == "-" {
			shift = -shift
		}
		r.Tick -= shift
		if r.Tick < 0 || r.Tick > tick.Max {
			return Parsed{}, fmt.Errorf("%d is out of range", r.Tick)
		}
		r.Value = precise(r.Tick, r.Nanosecond)
		return r, nil
	}
	if m := iso8601Zulu.FindStringSubmatch(s); m != nil {
		return p.iso8601(m[1:7])
	}
	if m := dateTime.FindStringSubmatch(s); m != nil {
		return p.dateTime(m)
	}

	switch strings.ToUpper(s) {
	case "INIT":
		return Parsed{Tick: tick.Zero}, nil
	case "NEVER":
		return Parsed{Tick: tick.Never, Value: float64(tick.Never)}, nil
	case "NOW":
		now := p.clock.Now()
		return Parsed{Tick: now, Value: float64(now)}, nil
	}

	if m := relative.FindStringSubmatch(s); m != nil {
		return p.relative(m[1], m[2])
	}
	return Parsed{}, errors.New("unrecognized format")
}

// iso8601 resolves year, month, day, hour, minute, seconds fields as UTC.
func (p *Parser) iso8601(f []string) (Parsed, error) {
	var n [5]int
	for i := range n {
		n[i], _ = strconv.Atoi(f[i])
	}
	sec, ns, err := splitSeconds(f[5])
	if err != nil {
		return Parsed{}, err
	}
	return p.fromCalendar(calendar.DateTime{
		Year: n[0], Month: n[1], Day: n[2], Hour: n[3], Minute: n[4], Second: sec, Nanosecond: ns,
		TZ: "UTC",
	})
}

func (p *Parser) dateTime(m []string) (Parsed, error) {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	c, _ := strconv.Atoi(m[3])

	dt := calendar.DateTime{TZ: m[7]}
	switch {
	case len(m[1]) == 4:
		dt.Year, dt.Month, dt.Day = a, b, c
	case p.style == US:
		dt.Month, dt.Day, dt.Year = a, b, c
	case p.style == EURO:
		dt.Day, dt.Month, dt.Year = a, b, c
	default:
		dt.Year, dt.Month, dt.Day = a, b, c
	}
	if m[4] != "" {
		dt.Hour, _ = strconv.Atoi(m[4])
		dt.Minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		var err error
		if dt.Second, dt.Nanosecond, err = splitSeconds(m[6]); err != nil {
			return Parsed{}, err
		}
	}
	return p.fromCalendar(dt)
}

func (p *Parser) fromCalendar(dt calendar.DateTime) (Parsed, error) {
	t, err := p.conv.FromCalendar(dt)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Tick: t, Nanosecond: dt.Nanosecond, Value: precise(t, dt.Nanosecond)}, nil
}

func (p *Parser) relative(number, unit string) (Parsed, error) {
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return Parsed{}, err
	}
	scale, ok := units[strings.ToLower(unit)]
	if !ok {
		return Parsed{}, fmt.Errorf("unknown unit %q", unit)
	}
	x := v * float64(scale)
	if math.Abs(x) > float64(tick.Max) {
		return Parsed{}, fmt.Errorf("%s%s is out of range", number, unit)
	}

	var base tick.Tick
	if number[0] == '+' || number[0] == '-' {
		base = p.clock.Now()
	}
	// Halves round up, so -1.5s is one second back.
	t := base + tick.Tick(math.Floor(x+0.5))
	if t < 0 || t > tick.Max {
		return Parsed{}, fmt.Errorf("%s%s from %d is out of range", number, unit, base)
	}
	_, ns := tick.Split(x)
	return Parsed{Tick: t, Nanosecond: ns, Value: float64(base) + x}, nil
}

// splitSeconds splits "05.25" into 5 seconds and 250000000 ns. Digits past
// the ninth are dropped.
func splitSeconds(s string) (int, int, error) {
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.Atoi(whole)
	if err != nil {
		return 0, 0, err
	}
	if frac == "" {
		return sec, 0, nil
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	ns, err := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))
	if err != nil {
		return 0, 0, err
	}
	return sec, ns, nil
}

func precise(t tick.Tick, ns int) float64 {
	return float64(t) + float64(ns)/1e9*float64(tick.TicksPerSecond)
}
