package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// StartLayout is the layout of Wakeup.Start, a local wall time.
const StartLayout = "2006-01-02 15:04:05"

// Wakeup describes one wake-up source. Exactly one of Cron, RRule or ICS is
// set.
type Wakeup struct {
	ID string `yaml:"id" toml:"id"`

	// Cron is a five-field cron expression or descriptor ("@daily").
	Cron string `yaml:"cron,omitempty" toml:"cron,omitempty"`

	// RRule is an RFC 5545 recurrence anchored at Start.
	RRule string `yaml:"rrule,omitempty" toml:"rrule,omitempty"`
	Start string `yaml:"start,omitempty" toml:"start,omitempty"`

	// ICS is the path of an iCalendar file whose events are wake-ups.
	ICS string `yaml:"ics,omitempty" toml:"ics,omitempty"`

	// Soft marks the proposals of this source as tentative.
	Soft bool `yaml:"soft,omitempty" toml:"soft,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is a rule spec ("EST5EDT") or a locale alias from the rule
	// file ("America/New_York").
	Timezone string `yaml:"timezone" toml:"timezone"`

	// DateFormat is one of ISO8601, ISO, US, EURO.
	DateFormat string `yaml:"date_format" toml:"date_format"`

	// Rules is the path of a DST rule file. Empty means the built-in table.
	Rules string `yaml:"rules,omitempty" toml:"rules,omitempty"`

	// Now pins the clock to a parsed time instead of the system clock.
	Now string `yaml:"now,omitempty" toml:"now,omitempty"`

	LogLevel string `yaml:"log_level" toml:"log_level"`

	Wakeups []Wakeup `yaml:"wakeups" toml:"wakeups"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:   defaultTimezone(),
		DateFormat: "ISO8601",
		LogLevel:   "INFO",
		Wakeups:    []Wakeup{},
	}
}

func defaultTimezone() string {
	if tz := strings.TrimSpace(os.Getenv("TZ")); tz != "" {
		return tz
	}
	return "UTC0"
}

// Normalize fills in missing values so that partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = defaultTimezone()
	}
	if c.DateFormat == "" {
		c.DateFormat = "ISO8601"
	}
	c.DateFormat = strings.ToUpper(c.DateFormat)
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Wakeups == nil {
		c.Wakeups = []Wakeup{}
	}
	for i := range c.Wakeups {
		if c.Wakeups[i].ID == "" {
			c.Wakeups[i].ID = fmt.Sprintf("wakeup-%d", i+1)
		}
	}
}

// Validate checks the wake-up list. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Wakeups))
	for _, w := range c.Wakeups {
		if seen[w.ID] {
			errs = append(errs, fmt.Errorf("wakeup %q: duplicate id", w.ID))
		}
		seen[w.ID] = true

		n := 0
		for _, s := range []string{w.Cron, w.RRule, w.ICS} {
			if s != "" {
				n++
			}
		}
		if n != 1 {
			errs = append(errs, fmt.Errorf("wakeup %q: want exactly one of cron, rrule, ics", w.ID))
		}
		if w.RRule != "" && w.Start == "" {
			errs = append(errs, fmt.Errorf("wakeup %q: rrule needs start", w.ID))
		}
	}
	return errors.Join(errs...)
}

type format int

const (
	formatYAML format = iota
	formatTOML
)

func formatOf(path string) format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatYAML
}

// Load loads configuration from path. Files ending in .toml are TOML,
// anything else YAML.
//
// Behavior:
//   - If the file does not exist a default config is written with 0600
//     perms and returned.
//   - Otherwise the file is decoded, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg, err := Decode(data, formatOf(path) == formatTOML)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a YAML or TOML document.
func Decode(data []byte, isTOML bool) (*Config, error) {
	var cfg Config
	if isTOML {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func encode(cfg *Config, f format) ([]byte, error) {
	if f == formatTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(cfg)
}

// Save writes cfg to path in the format chosen by its extension.
//
// The write is atomic (temp file + rename in the same directory) and the
// final file has 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := encode(cfg, formatOf(path))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".simtime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
