// Package ics reads wake-ups from iCalendar files and writes a zone's DST
// transitions as an iCalendar feed.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"simtime/internal/calendar"
	"simtime/internal/log"
	"simtime/internal/model"
	"simtime/internal/tick"
)

// ParseICS parses an iCalendar payload into events whose times are local
// wall clock values in conv's zone:
//
//   - UTC values ("...Z") and values with a TZID the library resolved are
//     absolute instants and are converted through conv.
//   - Floating values and dates are taken as local wall time.
//
// RRULE, EXDATE and RECURRENCE-ID are recorded, not expanded. A VEVENT that
// fails to parse is logged and skipped.
func ParseICS(src Source, body []byte, conv *calendar.Converter) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if conv == nil {
		conv = calendar.NewConverter(nil)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		log.Error("ics parse failed", err, "id", src.ID, "path", src.Path)
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp, conv)
		if perr != nil {
			log.Error("ics vevent parse failed", perr, "id", src.ID, "path", src.Path)
			continue
		}
		events = append(events, ev)
	}

	log.Info("ics parse completed", "id", src.ID, "path", src.Path, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent, conv *calendar.Converter) (model.Event, error) {
	out := model.Event{SourceID: src.ID}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("uid %s: missing DTSTART", out.UID)
	}
	start, err := ve.GetStartAt()
	if err != nil {
		if start, err = parseICSTime(dtStart.Value); err != nil {
			return out, fmt.Errorf("uid %s: DTSTART %q: %w", out.UID, dtStart.Value, err)
		}
	}
	tzid := ""
	if vs, ok := dtStart.ICalParameters["TZID"]; ok && len(vs) > 0 {
		tzid = vs[0]
	}
	if vs, ok := dtStart.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		out.AllDay = true
	}
	if !strings.Contains(dtStart.Value, "T") {
		out.AllDay = true
	}

	absolute := strings.HasSuffix(dtStart.Value, "Z") || (tzid != "" && start.Location() != time.UTC)
	if out.Start, err = toWall(start, absolute, conv); err != nil {
		return out, fmt.Errorf("uid %s: %w", out.UID, err)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part)
			if err != nil {
				continue
			}
			if w, err := toWall(t, strings.HasSuffix(part, "Z"), conv); err == nil {
				out.ExDates = append(out.ExDates, w)
			}
		}
	}

	if rid := ve.GetProperty("RECURRENCE-ID"); rid != nil {
		if t, err := parseICSTime(rid.Value); err == nil {
			if w, err := toWall(t, strings.HasSuffix(rid.Value, "Z"), conv); err == nil {
				out.Recurrence = &w
				out.IsOverride = true
			}
		}
	}
	return out, nil
}

// toWall returns t as a local wall time carried in time.UTC.
func toWall(t time.Time, absolute bool, conv *calendar.Converter) (time.Time, error) {
	if !absolute {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
	}
	dt, err := conv.ToLocal(tick.FromTime(t))
	if err != nil {
		return time.Time{}, err
	}
	return dt.Wall(), nil
}

// parseICSTime parses a basic DATE or DATE-TIME value. Non-UTC values come
// back as wall time in time.UTC.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.Parse("20060102T150405", v)
	}
	return time.Parse("20060102", v)
}
