// Package model holds the wake-up types shared by the schedule, ics and
// config packages.
package model

import (
	"time"

	"simtime/internal/tick"
)

// Event is a VEVENT before recurrence expansion. Times are local wall
// clock values carried in time.UTC; the zone is applied by the converter.
type Event struct {
	SourceID string // wake-up source ID from config
	UID      string

	Summary string
	AllDay  bool

	Start time.Time
	// RawRRule is the RRULE value without the "RRULE:" prefix.
	RawRRule string
	ExDates  []time.Time

	// Recurrence is the RECURRENCE-ID of an overridden instance.
	Recurrence *time.Time
	IsOverride bool
}

// Proposal is one source's next wake-up request.
type Proposal struct {
	SourceID string
	// Tick is the proposed time. Soft proposals carry a negative tick (see
	// tick.Soft).
	Tick tick.Tick
}

// Soft reports whether the proposal is tentative.
func (p Proposal) Soft() bool { return tick.IsSoft(p.Tick) }

// At returns the proposed time with the soft marking removed.
func (p Proposal) At() tick.Tick { return tick.ToHard(p.Tick) }
