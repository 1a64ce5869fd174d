package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"simtime/internal/tick"
)

func newConvertCmd(o *rootOptions) *cobra.Command {
	var precise bool
	cmd := &cobra.Command{
		Use:   "convert TIME...",
		Short: "Parse times and print their ticks",
		Long: `Parse each TIME and print its tick and its local calendar form.

Accepted forms: ISO8601 with offset or Z, dates in the configured order with
an optional time and TZ label, INIT, NEVER, NOW, and numbers with an
s/m/h/d/w unit (a leading sign is relative to NOW).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, a := range args {
				if precise {
					r, err := o.sys.Parser.ParsePrecise(a)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%s\t%s\n", a, strconv.FormatFloat(r.Value, 'f', -1, 64), o.sys.Formatter.TickPrecise(r.Value))
					continue
				}
				t, err := o.sys.Parser.Parse(a)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%d\t%s\n", a, int64(t), o.sys.Formatter.Tick(t))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&precise, "precise", false, "keep fractional seconds")
	return cmd
}

func newFormatCmd(o *rootOptions) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "format TICK...",
		Short: "Print ticks as local calendar time",
		Long: `Print each TICK (an integer or fractional count of seconds since the
epoch) in the configured zone and date format. With --compact small values
print as scaled durations (1.500000h) and sentinels by name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, a := range args {
				if n, err := strconv.ParseInt(a, 10, 64); err == nil {
					t := tick.Tick(n)
					if compact {
						fmt.Fprintln(out, o.sys.Formatter.Tick(t))
						continue
					}
					s, err := o.sys.Formatter.DateTime(t)
					if err != nil {
						return fmt.Errorf("%s: %w", a, err)
					}
					fmt.Fprintln(out, s)
					continue
				}
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("%s: not a tick", a)
				}
				if !compact {
					if _, err := o.sys.Conv.ToLocalPrecise(v); err != nil {
						return fmt.Errorf("%s: %w", a, err)
					}
				}
				fmt.Fprintln(out, o.sys.Formatter.TickPrecise(v))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "scaled durations and sentinel names")
	return cmd
}

func newPartCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "part TIME NAME [VALUE]",
		Short: "Read or set a named part of a time",
		Long: `Read NAME of TIME, or with VALUE print TIME with that part replaced.

Parts: seconds, minutes, hours, days (the whole tick scaled), second, minute,
hour, day, month, year, yearday, nanosecond, isdst, weekday, tzoffset.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := o.sys.Parser.Parse(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 2 {
				v, err := o.sys.Conv.Part(t, args[1])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, strconv.FormatFloat(v, 'f', -1, 64))
				return nil
			}
			nt, err := o.sys.Conv.SetPart(t, args[1], args[2])
			if err != nil {
				return err
			}
			s, err := o.sys.Formatter.DateTime(nt)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d\t%s\n", int64(nt), s)
			return nil
		},
	}
}
