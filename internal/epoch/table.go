// Package epoch maps calendar years to the tick at which they start.
//
// The table is built lazily from 1970 forward and grows on demand up to the
// year that follows tick.Max. Growth is serialized by a mutex; lookups read an
// immutable snapshot and never lock.
package epoch

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"simtime/internal/tick"
)

// ErrOutOfRange is returned for ticks or years the table cannot represent.
var ErrOutOfRange = errors.New("epoch: out of range")

// LastYear is the last year with a table entry. Its start bounds the year
// containing tick.Max, so every tick in [0, tick.Max] resolves.
const LastYear = 3001

const growChunk = 64

// Table holds year-start ticks. The zero value is ready to use.
type Table struct {
	mu     sync.Mutex
	starts atomic.Pointer[[]tick.Tick]
}

// Default is the process-wide table.
var Default = &Table{}

// YearOf resolves ts on the default table.
func YearOf(ts tick.Tick) (int, tick.Tick, error) { return Default.YearOf(ts) }

// StartOf resolves year on the default table.
func StartOf(year int) (tick.Tick, error) { return Default.StartOf(year) }

// snapshot returns a table covering at least n entries (index = year-1970),
// or the full table if n exceeds it.
func (t *Table) snapshot(n int) []tick.Tick {
	if p := t.starts.Load(); p != nil && len(*p) >= n {
		return *p
	}
	return t.grow(n)
}

func (t *Table) grow(n int) []tick.Tick {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cur []tick.Tick
	if p := t.starts.Load(); p != nil {
		cur = *p
		if len(cur) >= n {
			return cur
		}
	}

	limit := LastYear - FirstYear + 1
	want := min(max(n, len(cur)+growChunk), limit)
	if len(cur) >= want {
		return cur
	}

	next := make([]tick.Tick, len(cur), want)
	copy(next, cur)
	if len(next) == 0 {
		next = append(next, 0)
	}
	for len(next) < want {
		y := FirstYear + len(next) - 1
		next = append(next, next[len(next)-1]+tick.Tick(DaysInYear(y))*tick.Day)
	}
	t.starts.Store(&next)
	return next
}

// YearOf returns the calendar year containing ts and the ticks elapsed since
// that year started.
func (t *Table) YearOf(ts tick.Tick) (year int, rem tick.Tick, err error) {
	if ts < 0 {
		return 0, 0, fmt.Errorf("year of %d: %w", ts, ErrOutOfRange)
	}

	// Estimate, then walk to the exact entry.
	est := int(float64(ts) / float64(tick.Day) / 365.24)
	starts := t.snapshot(est + 2)
	last := len(starts) - 1

	y := min(est, last)
	for y > 0 && ts < starts[y] {
		y--
	}
	for {
		if y+1 > last {
			if last+1 >= LastYear-FirstYear+1 {
				return 0, 0, fmt.Errorf("year of %d: %w", ts, ErrOutOfRange)
			}
			starts = t.snapshot(y + 2)
			last = len(starts) - 1
			continue
		}
		if ts < starts[y+1] {
			break
		}
		y++
	}
	return FirstYear + y, ts - starts[y], nil
}

// StartOf returns the tick at which year begins.
func (t *Table) StartOf(year int) (tick.Tick, error) {
	i := year - FirstYear
	if i < 0 || year > LastYear {
		return 0, fmt.Errorf("start of %d: %w", year, ErrOutOfRange)
	}
	return t.snapshot(i + 1)[i], nil
}
