package cli

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/smallbiznis/affinity/internal/scheduler"
	"github.com/smallbiznis/affinity/internal/server"
)

var (
	schedulerInterval   time.Duration
	schedulerJobTimeout time.Duration
	schedulerStaleSweep bool
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the engine on an interval",
	Long: `Run the engine as a long-lived process that rebuilds the association
table on a fixed interval. Exposes /healthz and /metrics over HTTP.

Tuning knobs (min support, caps, rule multipliers) are read from
engine.yml and hot-reloaded between iterations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := append(baseOptions(),
			fx.Supply(scheduler.Config{
				RunInterval: schedulerInterval,
				JobTimeout:  schedulerJobTimeout,
				StaleSweep:  schedulerStaleSweep,
			}),
			scheduler.Module,
			server.Module,
		)

		app := fx.New(opts...)
		if err := app.Err(); err != nil {
			return err
		}
		app.Run()
		return nil
	},
}

func init() {
	defaults := scheduler.DefaultConfig()
	schedulerCmd.Flags().DurationVar(&schedulerInterval, "interval", defaults.RunInterval, "time between rebuilds")
	schedulerCmd.Flags().DurationVar(&schedulerJobTimeout, "job-timeout", defaults.JobTimeout, "per-job deadline")
	schedulerCmd.Flags().BoolVar(&schedulerStaleSweep, "stale-sweep", defaults.StaleSweep, "remove stale associations after each rebuild")

	rootCmd.AddCommand(schedulerCmd)
}
