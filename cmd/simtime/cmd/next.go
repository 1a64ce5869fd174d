package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"simtime/internal/log"
	"simtime/internal/schedule"
)

func newNextCmd(o *rootOptions) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "next",
		Short: "List the upcoming wake-ups from the config",
		Long: `List the next --count wake-ups of the configured cron, rrule and ics
sources after NOW. Soft (tentative) wake-ups are marked with "~".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.planner(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, pr := range p.Upcoming(o.sys.Clock.Now(), count) {
				s, err := o.sys.Formatter.DateTime(pr.At())
				if err != nil {
					return err
				}
				mark := " "
				if pr.Soft() {
					mark = "~"
				}
				fmt.Fprintf(out, "%s %d\t%s\t%s\n", mark, int64(pr.At()), s, pr.SourceID)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "number of wake-ups")
	return cmd
}

// planner builds the configured wake-ups. Sources that fail are logged; it
// is an error only when none could be built.
func (o *rootOptions) planner(ctx context.Context) (*schedule.Planner, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := o.sys.Planner(ctx, o.cfg.Wakeups)
	if err != nil {
		log.Error("some wake-ups were skipped", err)
	}
	if p.Len() == 0 {
		return nil, fmt.Errorf("no wake-ups configured: %w", schedule.ErrNoSchedule)
	}
	return p, nil
}
