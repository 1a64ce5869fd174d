package tick

// IsSoft reports whether t is a soft (tentative) timestamp.
func IsSoft(t Tick) bool {
	return t >= -Max && t < 0
}

// ToHard removes the soft/hard distinction: soft ticks are negated, hard
// ticks pass through unchanged.
func ToHard(t Tick) Tick {
	if IsSoft(t) {
		return -t
	}
	return t
}

// Soft marks a hard tick as a tentative request. Zero, Never and ticks
// outside (0, Max] are returned unchanged.
func Soft(t Tick) Tick {
	if t > 0 && t <= Max {
		return -t
	}
	return t
}

// Earliest returns the element of ts with the smallest magnitude (compared
// via ToHard). The element itself is returned, so a soft winner stays soft.
// Ties keep the first element. An empty slice yields Never.
//
// Soft and hard ticks of equal magnitude are not ranked against each other.
func Earliest(ts []Tick) Tick {
	if len(ts) == 0 {
		return Never
	}
	best := ts[0]
	bestAbs := ToHard(best)
	for _, t := range ts[1:] {
		if a := ToHard(t); a < bestAbs {
			best, bestAbs = t, a
		}
	}
	return best
}
