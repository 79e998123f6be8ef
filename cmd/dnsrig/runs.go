package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackmesh/dnsrig/pkg/errdefs"
	"github.com/stackmesh/dnsrig/pkg/journal"
)

var runsDir string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded scenario runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		jnl, err := journal.Open(runsDir)
		if err != nil {
			return errdefs.WrapSetup(err, "open journal")
		}
		defer jnl.Close()

		recs, err := jnl.List()
		if err != nil {
			return errdefs.WrapSetup(err, "list runs")
		}
		if len(recs) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-16s  %-13s  %s\n",
			"RUN", "STARTED", "SCENARIO", "OUTCOME", "TOOK")
		for _, rec := range recs {
			fmt.Printf("%-36s  %-19s  %-16s  %-13s  %s\n",
				rec.ID,
				rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
				rec.Scenario,
				rec.Outcome,
				rec.Duration().Round(time.Millisecond),
			)
			if rec.Error != "" {
				fmt.Printf("    %s\n", rec.Error)
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsDir, "journal-dir", "./dnsrig-data", "Directory holding the run journal")
}
