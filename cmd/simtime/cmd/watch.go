package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"simtime/internal/log"
	"simtime/internal/model"
	"simtime/internal/tick"
)

func newWatchCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log each configured wake-up as it fires",
		Long: `Sleep until each configured wake-up and log it, until interrupted.
The wall clock drives the sleeps; --now only sets where the search starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, err := o.planner(ctx)
			if err != nil {
				return err
			}
			n := watch(ctx, o, p.Next, time.Now)
			log.Info("watch stopped", "fired", n)
			return nil
		},
	}
}

// watch fires wake-ups from next until ctx is done or none remain and
// returns how many fired.
func watch(ctx context.Context, o *rootOptions, next func(tick.Tick) (model.Proposal, bool), now func() time.Time) int {
	after := o.sys.Clock.Now()
	fired := 0
	for ctx.Err() == nil {
		pr, ok := next(after)
		if !ok {
			log.Info("no further wake-ups")
			return fired
		}
		at := pr.At()
		when, _ := o.sys.Formatter.DateTime(at)
		log.Debug("waiting for wake-up", "id", pr.SourceID, "at", when)

		if d := at.Time().Sub(now()); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				log.Info("signal received, shutting down")
				return fired
			case <-timer.C:
			}
		}
		log.Info("wake-up", "id", pr.SourceID, "at", when, "tick", int64(at), "soft", pr.Soft())
		fired++
		after = at
	}
	return fired
}
