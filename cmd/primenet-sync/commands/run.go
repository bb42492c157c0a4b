package commands

import (
	"context"
	"errors"
	"log/slog"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var runOnce bool

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Runs every phase that is due once and exits.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--once]",
	Short: "Reconciles the worker directories with PrimeNet until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, setup := buildEngine()
		defer setup.Close()

		shutdown, err := telemetry.SetupTracing(cmd.Context(), "primenet-sync", cfg.Otlp)
		if err != nil {
			serviceutil.Fatal("failed to setup tracing", err)
		}
		defer func() {
			err := shutdown(context.Background())
			if err != nil {
				slog.Warn("failed to flush traces", "err", err)
			}
		}()

		slog.Info(
			"starting",
			"username", cfg.Username,
			"workers", len(cfg.Workers),
			"min_assignment_count", cfg.MinAssignmentCount,
			"work_type", cfg.WorkType,
		)

		timeAPI := chrono.NewStandardTime()
		if runOnce {
			setup.Engine.Aggregator.Update(cmd.Context())
			ran := setup.Engine.Scheduler(timeAPI).Tick(cmd.Context())
			slog.Info("ran phases", "phases", ran)
			return
		}

		err = setup.Engine.Run(cmd.Context(), timeAPI)
		if err != nil && !errors.Is(err, context.Canceled) {
			serviceutil.Fatal("engine stopped", err)
		}
	},
}
