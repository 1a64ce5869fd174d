package ics

import (
	"fmt"
	"sort"
	"time"

	"simtime/internal/calendar"
	"simtime/internal/log"
	"simtime/internal/model"
	"simtime/internal/schedule"
)

// Sources turns parsed events into wake-up sources:
//
//   - a VEVENT with an RRULE becomes an RRuleSource with its EXDATEs,
//   - a VEVENT without one becomes a one-shot source at DTSTART,
//   - a RECURRENCE-ID override removes the original instance from its
//     series and adds a one-shot source at its own DTSTART.
//
// Source IDs are "<source id>/<uid>". A series whose RRULE does not parse is
// logged and skipped.
func Sources(events []model.Event, conv *calendar.Converter) ([]schedule.Source, error) {
	if conv == nil {
		conv = calendar.NewConverter(nil)
	}

	overridesByUID := make(map[string][]model.Event)
	var bases []model.Event
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
		} else {
			bases = append(bases, ev)
		}
	}

	var out []schedule.Source
	for _, ev := range bases {
		id := ev.SourceID + "/" + ev.UID
		overrides := overridesByUID[ev.UID]

		if ev.RawRRule == "" {
			t, err := conv.FromCalendar(calendar.FromWall(ev.Start))
			if err != nil {
				log.Error("ics event start out of range", err, "uid", ev.UID)
				continue
			}
			out = append(out, schedule.Fixed{SourceID: id, At: t})
			continue
		}

		exdates := append([]time.Time(nil), ev.ExDates...)
		for _, o := range overrides {
			exdates = append(exdates, *o.Recurrence)
		}
		src, err := schedule.NewRRule(id, ev.RawRRule, ev.Start, exdates, conv)
		if err != nil {
			log.Error("ics rrule rejected", err, "uid", ev.UID, "rrule", ev.RawRRule)
			continue
		}
		out = append(out, src)
	}

	uids := make([]string, 0, len(overridesByUID))
	for uid := range overridesByUID {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	for _, uid := range uids {
		for i, o := range overridesByUID[uid] {
			t, err := conv.FromCalendar(calendar.FromWall(o.Start))
			if err != nil {
				log.Error("ics override start out of range", err, "uid", uid)
				continue
			}
			out = append(out, schedule.Fixed{SourceID: fmt.Sprintf("%s/%s#%d", o.SourceID, uid, i), At: t})
		}
	}

	if len(out) == 0 && len(events) > 0 {
		return nil, fmt.Errorf("no usable wake-ups in %d events", len(events))
	}
	return out, nil
}
