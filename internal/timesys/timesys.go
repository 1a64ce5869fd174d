// Package timesys owns the process-wide time context: the loaded zone and
// the converter, formatter, parser and clock built on it.
//
// A System is immutable. Load builds a new one and publishes it atomically;
// readers call Current and never block.
package timesys

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"simtime/internal/calendar"
	"simtime/internal/config"
	"simtime/internal/dst"
	"simtime/internal/log"
	"simtime/internal/tick"
	"simtime/internal/timefmt"
)

// System is one consistent set of time services.
type System struct {
	Zone      *dst.Zone
	Conv      *calendar.Converter
	Formatter *timefmt.Formatter
	Parser    *timefmt.Parser
	Clock     tick.Clock
}

// Options selects what New builds.
type Options struct {
	// Timezone is a rule spec or locale alias. Empty means $TZ, then UTC0.
	Timezone string
	// Rules overrides RulesPath. Both empty means the built-in rules.
	Rules     *dst.RuleFile
	RulesPath string
	Style     timefmt.Style
	// Now pins the clock to a parsed time. Clock is used when Now is empty;
	// a nil Clock is the system clock.
	Now   string
	Clock tick.Clock
}

var (
	loadMu  sync.Mutex
	current atomic.Pointer[System]

	fallbackOnce sync.Once
	fallback     *System
)

// New builds a System without publishing it.
func New(opts Options) (*System, error) {
	rules := opts.Rules
	if rules == nil && opts.RulesPath != "" {
		f, err := os.Open(opts.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("rules: %w", err)
		}
		defer f.Close()
		if rules, err = dst.ParseRules(f); err != nil {
			return nil, fmt.Errorf("rules %s: %w", opts.RulesPath, err)
		}
	}

	tz := strings.TrimSpace(opts.Timezone)
	if tz == "" {
		if tz = strings.TrimSpace(os.Getenv("TZ")); tz == "" {
			tz = "UTC0"
		}
	}
	zone, err := dst.Load(tz, rules)
	if err != nil {
		return nil, err
	}

	conv := calendar.NewConverter(zone)
	clock := opts.Clock
	if clock == nil {
		clock = tick.SystemClock{}
	}
	if opts.Now != "" {
		at, err := timefmt.NewParser(conv, opts.Style, clock).Parse(opts.Now)
		if err != nil {
			return nil, fmt.Errorf("now: %w", err)
		}
		clock = tick.FixedClock(at)
	}

	return &System{
		Zone:      zone,
		Conv:      conv,
		Formatter: timefmt.NewFormatter(conv, opts.Style),
		Parser:    timefmt.NewParser(conv, opts.Style, clock),
		Clock:     clock,
	}, nil
}

// Load builds a System and makes it Current. On error the previous System
// stays current.
func Load(opts Options) (*System, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	sys, err := New(opts)
	if err != nil {
		log.Error("time system load failed", err, "tz", opts.Timezone)
		return nil, err
	}
	current.Store(sys)
	log.Info("time system loaded", "tz", sys.Zone.Name(), "style", opts.Style.String(), "dst", sys.Zone.HasRules())
	return sys, nil
}

// Current returns the last loaded System, or a GMT system in ISO8601 style
// if nothing was loaded.
func Current() *System {
	if sys := current.Load(); sys != nil {
		return sys
	}
	fallbackOnce.Do(func() {
		conv := calendar.NewConverter(nil)
		fallback = &System{
			Conv:      conv,
			Formatter: timefmt.NewFormatter(conv, timefmt.ISO8601),
			Parser:    timefmt.NewParser(conv, timefmt.ISO8601, nil),
			Clock:     tick.SystemClock{},
		}
	})
	return fallback
}

// OptionsFromConfig maps a loaded config onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("config is nil")
	}
	style, err := timefmt.ParseStyle(cfg.DateFormat)
	if err != nil {
		return Options{}, fmt.Errorf("date_format: %w", err)
	}
	return Options{
		Timezone:  cfg.Timezone,
		RulesPath: cfg.Rules,
		Style:     style,
		Now:       cfg.Now,
	}, nil
}
