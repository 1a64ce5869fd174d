package schedule

import (
	"sync"

	"simtime/internal/log"
	"simtime/internal/model"
	"simtime/internal/tick"
)

type entry struct {
	src  Source
	soft bool
}

// Planner merges several sources into one next wake-up. Soft sources
// propose tentative ticks (see tick.Soft). The winner is chosen with
// tick.Earliest: smallest magnitude, first registered on ties.
type Planner struct {
	mu      sync.RWMutex
	entries []entry
}

// NewPlanner returns an empty planner.
func NewPlanner() *Planner { return &Planner{} }

// Add registers src. Registration order breaks ties.
func (p *Planner) Add(src Source, soft bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry{src: src, soft: soft})
}

// Len returns the number of registered sources.
func (p *Planner) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Proposals returns each source's next wake-up after t, in registration
// order. Exhausted sources are omitted.
func (p *Planner) Proposals(after tick.Tick) []model.Proposal {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]model.Proposal, 0, len(p.entries))
	for _, e := range p.entries {
		t, ok := e.src.Next(after)
		if !ok {
			log.Debug("wake-up source exhausted", "id", e.src.ID(), "after", int64(after))
			continue
		}
		if e.soft {
			t = tick.Soft(t)
		}
		out = append(out, model.Proposal{SourceID: e.src.ID(), Tick: t})
	}
	return out
}

// Next returns the earliest proposal after t. It reports false when no
// source has a further wake-up.
func (p *Planner) Next(after tick.Tick) (model.Proposal, bool) {
	props := p.Proposals(after)
	ticks := make([]tick.Tick, len(props))
	for i, pr := range props {
		ticks[i] = pr.Tick
	}
	best := tick.Earliest(ticks)
	if best == tick.Never {
		return model.Proposal{Tick: tick.Never}, false
	}
	for _, pr := range props {
		if pr.Tick == best {
			return pr, true
		}
	}
	return model.Proposal{Tick: tick.Never}, false
}

// Upcoming returns up to n successive wake-ups after t.
func (p *Planner) Upcoming(after tick.Tick, n int) []model.Proposal {
	var out []model.Proposal
	for len(out) < n {
		pr, ok := p.Next(after)
		if !ok {
			break
		}
		out = append(out, pr)
		after = pr.At()
	}
	return out
}
