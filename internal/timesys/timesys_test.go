package timesys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"simtime/internal/config"
	"simtime/internal/model"
	"simtime/internal/schedule"
	"simtime/internal/tick"
	"simtime/internal/timefmt"
)

// 2023-06-01 10:00 EDT.
const june1 = tick.Tick(1685628000)

func TestNew(t *testing.T) {
	sys, err := New(Options{
		Timezone: "America/New_York",
		Style:    timefmt.ISO,
		Now:      "2023-06-01 10:00:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if sys.Zone.Name() != "EST5EDT" {
		t.Errorf("zone = %q", sys.Zone.Name())
	}
	if got := sys.Clock.Now(); got != june1 {
		t.Errorf("Now() = %d, want %d", got, june1)
	}
	if got, err := sys.Parser.Parse("NOW"); err != nil || got != june1 {
		t.Errorf("Parse(NOW) = %d, %v", got, err)
	}
	if got, err := sys.Formatter.DateTime(june1); err != nil || got != "2023-06-01 10:00:00 EDT" {
		t.Errorf("DateTime = %q, %v", got, err)
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown zone", Options{Timezone: "Atlantis/Lost"}},
		{"bad now", Options{Timezone: "UTC0", Now: "whenever"}},
		{"missing rules", Options{Timezone: "UTC0", RulesPath: filepath.Join(t.TempDir(), "none.txt")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.opts); err == nil {
				t.Error("New succeeded")
			}
		})
	}
}

func TestNewRulesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.txt")
	if err := os.WriteFile(path, []byte("[2000]\nXST3XDT,M3.2.0,M11.1.0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	sys, err := New(Options{Timezone: "XST3XDT", RulesPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if !sys.Zone.HasRules() || !sys.Conv.IsDST(june1) {
		t.Error("custom rules not applied")
	}
}

func TestLoadAndCurrent(t *testing.T) {
	if Current() == nil {
		t.Fatal("Current() = nil")
	}

	sys, err := Load(Options{Timezone: "JST-9", Style: timefmt.US})
	if err != nil {
		t.Fatal(err)
	}
	if Current() != sys {
		t.Error("Load did not publish the system")
	}

	if _, err := Load(Options{Timezone: "Atlantis/Lost"}); err == nil {
		t.Fatal("Load accepted an unknown zone")
	}
	if Current() != sys {
		t.Error("failed Load replaced the current system")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{Timezone: "CET-1CEST", DateFormat: "EURO", Rules: "/tmp/r.txt", Now: "INIT"}
	got, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := Options{Timezone: "CET-1CEST", RulesPath: "/tmp/r.txt", Style: timefmt.EURO, Now: "INIT"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	if _, err := OptionsFromConfig(&config.Config{DateFormat: "KLINGON"}); err == nil {
		t.Error("accepted an unknown date format")
	}
}

const calendarFile = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//simtime test//EN
BEGIN:VEVENT
UID:call
DTSTART:20230601T150000Z
END:VEVENT
END:VCALENDAR
`

func TestPlanner(t *testing.T) {
	sys, err := New(Options{Timezone: "EST5EDT", Now: "2023-06-01 10:00:00"})
	if err != nil {
		t.Fatal(err)
	}
	icsPath := filepath.Join(t.TempDir(), "cal.ics")
	if err := os.WriteFile(icsPath, []byte(strings.ReplaceAll(calendarFile, "\n", "\r\n")), 0o600); err != nil {
		t.Fatal(err)
	}

	wakeups := []config.Wakeup{
		{ID: "morning", Cron: "0 7 * * *"},
		{ID: "review", RRule: "FREQ=WEEKLY;BYDAY=FR", Start: "2023-01-06 16:00:00"},
		{ID: "meetings", ICS: icsPath, Soft: true},
		{ID: "gone", ICS: filepath.Join(t.TempDir(), "gone.ics")},
		{ID: "empty"},
	}
	p, err := sys.Planner(context.Background(), wakeups)
	if !errors.Is(err, schedule.ErrNoSchedule) {
		t.Errorf("Planner error = %v, want ErrNoSchedule", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Planner error = %v, want the missing calendar reported", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", p.Len())
	}

	got := p.Upcoming(sys.Clock.Now(), 3)
	want := []model.Proposal{
		{SourceID: "meetings/call", Tick: -1685631600}, // 11:00 EDT, soft
		{SourceID: "morning", Tick: 1685703600},        // Fri 06-02 07:00 EDT
		{SourceID: "review", Tick: 1685736000},         // Fri 06-02 16:00 EDT
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Upcoming (-want +got):\n%s", diff)
	}
}

func TestPlannerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Current().Planner(ctx, []config.Wakeup{{ID: "a", Cron: "@daily"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
