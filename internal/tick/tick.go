// Package tick defines the simulation clock representation: a signed count
// of fixed-size ticks since 1970-01-01T00:00:00 GMT.
package tick

import (
	"math"
	"time"
)

// Tick is a count of ticks since the epoch (GMT).
//
// Non-negative ticks are absolute ("hard") times. Negative ticks in
// [-Max, 0) are "soft": tentative scheduling requests whose magnitude is the
// proposed time. See IsSoft and ToHard.
type Tick int64

// TicksPerSecond is the clock resolution.
const TicksPerSecond = 1

const (
	Second Tick = TicksPerSecond
	Minute Tick = 60 * Second
	Hour   Tick = 60 * Minute
	Day    Tick = 24 * Hour
	Week   Tick = 7 * Day
	// Year is a 365-day year. It is only used as a magnitude threshold;
	// calendar years come from the epoch table.
	Year Tick = 365 * Day
)

const (
	// Zero is the initial clock value ("INIT").
	Zero Tick = 0
	// Never means "no scheduled event".
	Never Tick = math.MaxInt64
	// Invalid marks a failed parse or computation.
	Invalid Tick = -1
	// Max is the last representable calendar tick, 3000-01-01T00:00:00 GMT.
	Max Tick = 32503680000 * Second
)

// ToDays scales t to fractional days.
func ToDays(t Tick) float64 { return float64(t) / float64(Day) }

// ToHours scales t to fractional hours.
func ToHours(t Tick) float64 { return float64(t) / float64(Hour) }

// ToMinutes scales t to fractional minutes.
func ToMinutes(t Tick) float64 { return float64(t) / float64(Minute) }

// ToSeconds scales t to fractional seconds.
func ToSeconds(t Tick) float64 { return float64(t) / float64(Second) }

// Split returns the whole tick at or below v and the remainder in
// nanoseconds. A remainder that rounds to a full tick carries into the
// tick.
func Split(v float64) (Tick, int) {
	const nsPerTick = int(time.Second) / TicksPerSecond
	whole := math.Floor(v)
	ns := int(math.Round((v - whole) * float64(nsPerTick)))
	if ns >= nsPerTick {
		return Tick(whole) + 1, ns - nsPerTick
	}
	return Tick(whole), ns
}

// Advance returns t+d. Never stays Never and the sum saturates at Never.
func Advance(t, d Tick) Tick {
	if t == Never || d == Never {
		return Never
	}
	if d > 0 && t > Never-d {
		return Never
	}
	return t + d
}

// FromTime converts an instant to ticks, truncating below the tick resolution.
func FromTime(t time.Time) Tick {
	return Tick(t.Unix())*Second + Tick(int64(t.Nanosecond())*TicksPerSecond/int64(time.Second))
}

// Time converts a tick to an instant in UTC.
func (t Tick) Time() time.Time {
	sec := int64(t / Second)
	rem := int64(t % Second)
	return time.Unix(sec, rem*int64(time.Second)/TicksPerSecond).UTC()
}
