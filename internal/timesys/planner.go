package timesys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"simtime/internal/config"
	"simtime/internal/ics"
	"simtime/internal/log"
	"simtime/internal/schedule"
)

// Planner builds a wake-up planner from configured wake-ups, evaluated in
// sys's zone. A wake-up that cannot be built is reported in the joined
// error; the planner still holds every source that could.
func (sys *System) Planner(ctx context.Context, wakeups []config.Wakeup) (*schedule.Planner, error) {
	p := schedule.NewPlanner()

	var files []ics.Source
	for _, w := range wakeups {
		if w.ICS != "" && w.Cron == "" && w.RRule == "" {
			files = append(files, ics.Source{ID: w.ID, Path: w.ICS})
		}
	}
	read, errs := ics.ReadAll(ctx, files)
	bodies := make(map[string]ics.ReadResult, len(read))
	for _, r := range read {
		bodies[r.Source.ID] = r
	}

	for _, w := range wakeups {
		if err := ctx.Err(); err != nil {
			return p, err
		}
		srcs, err := sys.sources(w, bodies)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, s := range srcs {
			p.Add(s, w.Soft)
		}
		log.Debug("wake-up registered", "id", w.ID, "sources", len(srcs), "soft", w.Soft)
	}
	return p, errors.Join(errs...)
}

// sources builds w's wake-up sources. ICS bodies come from files, keyed by
// wake-up ID; a missing body was already reported by ics.ReadAll.
func (sys *System) sources(w config.Wakeup, files map[string]ics.ReadResult) ([]schedule.Source, error) {
	switch {
	case w.Cron != "":
		src, err := schedule.NewCron(w.ID, w.Cron, sys.Conv)
		if err != nil {
			return nil, err
		}
		return []schedule.Source{src}, nil

	case w.RRule != "":
		start, err := time.Parse(config.StartLayout, w.Start)
		if err != nil {
			return nil, fmt.Errorf("wake-up %s: start: %w", w.ID, err)
		}
		src, err := schedule.NewRRule(w.ID, w.RRule, start, nil, sys.Conv)
		if err != nil {
			return nil, err
		}
		return []schedule.Source{src}, nil

	case w.ICS != "":
		res, ok := files[w.ID]
		if !ok {
			return nil, nil
		}
		events, err := ics.ParseICS(res.Source, res.Body, sys.Conv)
		if err != nil {
			return nil, fmt.Errorf("wake-up %s: %w", w.ID, err)
		}
		return ics.Sources(events, sys.Conv)
	}
	return nil, fmt.Errorf("wake-up %s: %w", w.ID, schedule.ErrNoSchedule)
}
