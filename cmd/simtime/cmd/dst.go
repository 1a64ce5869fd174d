package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simtime/internal/ics"
	"simtime/internal/log"
)

func newDSTCmd(o *rootOptions) *cobra.Command {
	var (
		from, to int
		icsPath  string
		expand   bool
	)
	cmd := &cobra.Command{
		Use:   "dst",
		Short: "List DST transitions of the zone",
		Long: `List the DST intervals that start in --from..--to (default: the current
year). With --ics the transitions are written as an iCalendar file instead,
"-" meaning standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == 0 || to == 0 {
				dt, err := o.sys.Conv.ToLocal(o.sys.Clock.Now())
				if err != nil {
					return err
				}
				if from == 0 {
					from = dt.Year
				}
				if to == 0 {
					to = max(from, dt.Year)
				}
			}
			zone := o.sys.Zone

			if icsPath != "" {
				doc, err := ics.ExportTransitions(zone, ics.ExportOptions{From: from, To: to, Expand: expand})
				if err != nil {
					return err
				}
				if icsPath == "-" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
					return err
				}
				if err := os.WriteFile(icsPath, []byte(doc), 0o644); err != nil {
					return err
				}
				log.Info("dst calendar written", "path", icsPath, "bytes", len(doc))
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: std %s, offset %ds west", zone.Name(), zone.Std(), zone.Offset())
			if zone.DST() != "" {
				fmt.Fprintf(out, ", dst %s", zone.DST())
			}
			fmt.Fprintln(out)
			if zone.DST() == "" || !zone.HasRules() {
				fmt.Fprintln(out, "no DST rules")
				return nil
			}
			for _, iv := range zone.Transitions(from, to) {
				start, err := o.sys.Formatter.DateTime(iv.Start)
				if err != nil {
					return err
				}
				end, err := o.sys.Formatter.DateTime(iv.End)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%d\t%s\t%s\n", int64(iv.Start), int64(iv.End), start, end)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "first year")
	cmd.Flags().IntVar(&to, "to", 0, "last year")
	cmd.Flags().StringVar(&icsPath, "ics", "", "write an iCalendar file (\"-\" for stdout)")
	cmd.Flags().BoolVar(&expand, "expand", false, "with --ics: one UTC event per transition instead of yearly rules")
	return cmd
}
