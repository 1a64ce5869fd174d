// Package cmd is the simtime command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simtime/internal/config"
	"simtime/internal/log"
	"simtime/internal/timesys"
)

// rootOptions holds the persistent flags and what PersistentPreRunE builds
// from them.
type rootOptions struct {
	cfgFile  string
	timezone string
	rules    string
	format   string
	now      string
	verbose  bool

	cfg *config.Config
	sys *timesys.System
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "simtime",
		Short: "Simulation clock, calendar and DST toolkit",
		Long: `simtime converts between simulation ticks (seconds since
1970-01-01 00:00:00 GMT) and local calendar time using POSIX-style DST rules.

Timezones are rule specs such as EST5EDT or NST3:30NDT, or locale names
listed in the rule file (US/Eastern, Europe/Paris).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&o.cfgFile, "config", "", "config file (.yaml or .toml); created with defaults if missing")
	f.StringVar(&o.timezone, "timezone", "", "timezone spec or locale (overrides config, then $TZ)")
	f.StringVar(&o.rules, "rules", "", "DST rule file (default: built-in rules)")
	f.StringVar(&o.format, "format", "", "date format: ISO8601, ISO, US or EURO")
	f.StringVar(&o.now, "now", "", "pin the clock to this time")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newConvertCmd(o),
		newFormatCmd(o),
		newPartCmd(o),
		newDSTCmd(o),
		newNextCmd(o),
		newWatchCmd(o),
		newCheckCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		printError(err)
		return err
	}
	return nil
}

// setup loads the config, applies flag overrides and publishes the time
// system. Configuration errors are fatal.
func (o *rootOptions) setup() error {
	cfg := config.DefaultConfig()
	if o.cfgFile != "" {
		loaded, err := config.Load(o.cfgFile)
		if err != nil {
			log.Fatal("failed to load config", err, "config_path", o.cfgFile)
			return err
		}
		cfg = loaded
	}
	if o.timezone != "" {
		cfg.Timezone = o.timezone
	}
	if o.rules != "" {
		cfg.Rules = o.rules
	}
	if o.format != "" {
		cfg.DateFormat = o.format
	}
	if o.now != "" {
		cfg.Now = o.now
	}
	if o.verbose {
		cfg.LogLevel = string(log.LevelDebug)
	}
	cfg.Normalize()

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn("unknown log level; using INFO", "log_level", cfg.LogLevel)
		level = log.LevelInfo
	}
	log.SetLevel(level)

	opts, err := timesys.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal("invalid config", err, "config_path", o.cfgFile)
		return err
	}
	sys, err := timesys.Load(opts)
	if err != nil {
		log.Fatal("failed to load timezone", err, "tz", cfg.Timezone, "rules", cfg.Rules)
		return err
	}

	log.Debug("effective config",
		"timezone", cfg.Timezone,
		"date_format", cfg.DateFormat,
		"rules", cfg.Rules,
		"now", cfg.Now,
		"wakeups", len(cfg.Wakeups),
	)
	o.cfg, o.sys = cfg, sys
	return nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
