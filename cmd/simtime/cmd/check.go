package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simtime/internal/log"
	"simtime/internal/timefmt"
)

func newCheckCmd(o *rootOptions) *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Self-test DST edges and format/parse round trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := timefmt.Verify(o.sys.Formatter, o.sys.Parser, from, to)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d-%d: %d checked, %d failed\n",
				o.sys.Zone.Name(), o.sys.Formatter.Style(), from, to, rep.Checked, rep.Failed)
			if err != nil {
				log.Error("self test failed", err, "failed", rep.Failed)
				return fmt.Errorf("%d of %d checks failed", rep.Failed, rep.Checked)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 1970, "first year")
	cmd.Flags().IntVar(&to, "to", 2100, "last year")
	return cmd
}
