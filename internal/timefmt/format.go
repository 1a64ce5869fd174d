// Package timefmt renders ticks and calendar times as text and parses them
// back.
package timefmt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"simtime/internal/calendar"
	"simtime/internal/tick"
)

// ErrBufferTooSmall is returned by the Put functions when the rendered text
// does not fit. Nothing is written in that case.
var ErrBufferTooSmall = errors.New("timefmt: buffer too small")

// Style selects the calendar text layout.
type Style int

const (
	// ISO8601 is 2023-06-01T10:00:00-04:00.
	ISO8601 Style = iota
	// ISO is 2023-06-01 10:00:00 EDT.
	ISO
	// US is 06-01-2023 10:00:00 EDT.
	US
	// EURO is 01-06-2023 10:00:00 EDT.
	EURO
)

var styleNames = [...]string{ISO8601: "ISO8601", ISO: "ISO", US: "US", EURO: "EURO"}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return "Style(" + strconv.Itoa(int(s)) + ")"
	}
	return styleNames[s]
}

// ParseStyle returns the style with the given name, ignoring case.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return Style(i), nil
		}
	}
	return ISO, fmt.Errorf("unknown date format %q (want ISO8601, ISO, US or EURO)", name)
}

// Format renders dt. Fractional seconds appear only when dt.Nanosecond is
// non-zero: microseconds for ISO8601, nanoseconds otherwise.
func Format(dt calendar.DateTime, style Style) string {
	return string(AppendFormat(nil, dt, style))
}

// AppendFormat appends the rendering of dt to b.
func AppendFormat(b []byte, dt calendar.DateTime, style Style) []byte {
	if style == ISO8601 {
		sign := byte('+')
		off := dt.TZOffset
		if off > 0 {
			sign = '-'
		} else {
			off = -off
		}
		b = fmt.Appendf(b, "%04d-%02d-%02dT%02d:%02d:%02d", dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second)
		if dt.Nanosecond != 0 {
			b = fmt.Appendf(b, ".%06d", dt.Nanosecond/1000)
		}
		return fmt.Appendf(b, "%c%02d:%02d", sign, off/3600, off%3600/60)
	}

	switch style {
	case US:
		b = fmt.Appendf(b, "%02d-%02d-%04d", dt.Month, dt.Day, dt.Year)
	case EURO:
		b = fmt.Appendf(b, "%02d-%02d-%04d", dt.Day, dt.Month, dt.Year)
	default:
		b = fmt.Appendf(b, "%04d-%02d-%02d", dt.Year, dt.Month, dt.Day)
	}
	b = fmt.Appendf(b, " %02d:%02d:%02d", dt.Hour, dt.Minute, dt.Second)
	if dt.Nanosecond != 0 {
		b = fmt.Appendf(b, ".%09d", dt.Nanosecond)
	}
	return fmt.Appendf(b, " %s", dt.TZ)
}

// Put writes the rendering of dt into dst and returns the byte count.
func Put(dst []byte, dt calendar.DateTime, style Style) (int, error) {
	return put(dst, AppendFormat(nil, dt, style))
}

func put(dst, text []byte) (int, error) {
	if len(text) > len(dst) {
		return 0, fmt.Errorf("need %d bytes, have %d: %w", len(text), len(dst), ErrBufferTooSmall)
	}
	return copy(dst, text), nil
}

// Formatter renders ticks in one zone and style.
type Formatter struct {
	conv  *calendar.Converter
	style Style
}

// NewFormatter returns a formatter. A nil converter formats GMT.
func NewFormatter(conv *calendar.Converter, style Style) *Formatter {
	if conv == nil {
		conv = calendar.NewConverter(nil)
	}
	return &Formatter{conv: conv, style: style}
}

// Style returns the formatter's style.
func (f *Formatter) Style() Style { return f.style }

// Converter returns the formatter's converter.
func (f *Formatter) Converter() *calendar.Converter { return f.conv }

// DateTime renders t as a calendar string.
func (f *Formatter) DateTime(t tick.Tick) (string, error) {
	dt, err := f.conv.ToLocal(t)
	if err != nil {
		return "", err
	}
	return Format(dt, f.style), nil
}

// Tick renders t compactly: "NEVER", a calendar string for ticks of at least
// one year, a scaled value with a d/h/m/s suffix below that, "INIT" for
// zero, and the raw integer otherwise (soft ticks included).
func (f *Formatter) Tick(t tick.Tick) string {
	return string(f.appendTick(nil, t, 0))
}

// TickPrecise is Tick for a fractional tick value. The fraction shows up as
// sub-second digits on calendar strings.
func (f *Formatter) TickPrecise(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if v >= float64(tick.Never) {
		return "NEVER"
	}
	whole, ns := tick.Split(v)
	return string(f.appendTick(nil, whole, ns))
}

// PutTick writes Tick(t) into dst.
func (f *Formatter) PutTick(dst []byte, t tick.Tick) (int, error) {
	return put(dst, f.appendTick(nil, t, 0))
}

func (f *Formatter) appendTick(b []byte, t tick.Tick, ns int) []byte {
	switch {
	case t == tick.Never:
		return append(b, "NEVER"...)
	case t >= tick.Year:
		dt, err := f.conv.ToLocal(t)
		if err != nil {
			return strconv.AppendInt(b, int64(t), 10)
		}
		dt.Nanosecond = ns
		return AppendFormat(b, dt, f.style)
	case t >= tick.Day:
		return fmt.Appendf(b, "%fd", tick.ToDays(t))
	case t >= tick.Hour:
		return fmt.Appendf(b, "%fh", tick.ToHours(t))
	case t >= tick.Minute:
		return fmt.Appendf(b, "%fm", tick.ToMinutes(t))
	case t >= tick.Second:
		return fmt.Appendf(b, "%fs", tick.ToSeconds(t))
	case t == 0:
		return append(b, "INIT"...)
	}
	return strconv.AppendInt(b, int64(t), 10)
}
