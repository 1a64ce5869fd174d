package dst

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrUnknownTimezone is returned when a timezone string is neither a known
// locale nor a valid STD[hh[:mm]][DST] specification.
var ErrUnknownTimezone = errors.New("unknown timezone")

// Spec is a parsed STD[hh[:mm]][DST] timezone specification.
type Spec struct {
	// Name is the normalized form, e.g. "EST5EDT" or "NST3:30NDT".
	Name string
	Std  string
	DST  string
	// Offset is the standard offset in seconds west of GMT (EST = 18000).
	Offset int
}

var specPattern = regexp.MustCompile(`^([A-Z]+)([+-]?\d+)(?::(\d+))?([A-Z]*)$`)

// ParseSpec parses a POSIX-like timezone specification.
func ParseSpec(s string) (Spec, error) {
	m := specPattern.FindStringSubmatch(s)
	if m == nil {
		return Spec{}, fmt.Errorf("%w: %q is not a timezone-format string", ErrUnknownTimezone, s)
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, s, err)
	}
	var minutes int
	if m[3] != "" {
		if minutes, err = strconv.Atoi(m[3]); err != nil {
			return Spec{}, fmt.Errorf("%w: %q: %v", ErrUnknownTimezone, s, err)
		}
	}
	if hours < -12 || hours > 12 {
		return Spec{}, fmt.Errorf("%w: %q has out-of-bounds hour offset %d", ErrUnknownTimezone, s, hours)
	}
	if minutes < 0 || minutes > 59 {
		return Spec{}, fmt.Errorf("%w: %q has out-of-bounds minute offset %d", ErrUnknownTimezone, s, minutes)
	}

	negative := m[2][0] == '-'
	h := strconv.Itoa(hours)
	if negative && hours == 0 {
		h = "-0"
	}
	sp := Spec{Std: m[1], DST: m[4]}
	if m[3] == "" {
		sp.Name = sp.Std + h + sp.DST
	} else {
		sp.Name = fmt.Sprintf("%s%s:%02d%s", sp.Std, h, minutes, sp.DST)
	}
	// Minutes share the sign of the hours.
	sign := 1
	if negative {
		sign = -1
	}
	sp.Offset = hours*3600 + sign*minutes*60
	return sp, nil
}

// HasDST reports whether the specification names a daylight time.
func (s Spec) HasDST() bool { return s.DST != "" }
