package tick

import "time"

// Clock supplies the current tick for "NOW" and relative offsets.
type Clock interface {
	Now() Tick
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

func (SystemClock) Now() Tick { return FromTime(time.Now()) }

// FixedClock always reports the same tick. Hosts that drive a simulation
// clock externally use it to pin "NOW".
type FixedClock Tick

func (c FixedClock) Now() Tick { return Tick(c) }
