package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/schedule"
)

var scheduleAt string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline daily at a fixed time",
	Long:  "Stays resident and fires one collection run per day at the configured local time. A tick that lands while a run is active is skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		at := scheduleAt
		if at == "" {
			at = cfg.Schedule.At
		}

		err = schedule.Loop(ctx, at, func(ctx context.Context) error {
			_, err := env.Pipeline.Execute(ctx, queryFromFlags())
			return err
		})
		if eris.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "daily run time, HH:MM (default from config)")
	scheduleCmd.Flags().StringVar(&runCategory, "category", "", "business category to search (default from config)")
	scheduleCmd.Flags().StringVar(&runLocation, "location", "", "primary location (default from config)")
	scheduleCmd.Flags().StringVar(&runFallbackLocation, "fallback-location", "", "broader location tried when the primary falls short")
	rootCmd.AddCommand(scheduleCmd)
}
