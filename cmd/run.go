package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	runCategory         string
	runLocation         string
	runFallbackLocation string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one collection run",
	Long:  "Queries the configured sources for the target category and location, cleans the results, and writes the export files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		query := queryFromFlags()
		result, err := env.Pipeline.Execute(ctx, query)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func queryFromFlags() model.Query {
	query := model.Query{
		Category:         cfg.Query.Category,
		Location:         cfg.Query.Location,
		FallbackLocation: cfg.Query.FallbackLocation,
	}
	if runCategory != "" {
		query.Category = runCategory
	}
	if runLocation != "" {
		query.Location = runLocation
	}
	if runFallbackLocation != "" {
		query.FallbackLocation = runFallbackLocation
	}
	return query
}

func init() {
	runCmd.Flags().StringVar(&runCategory, "category", "", "business category to search (default from config)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "primary location (default from config)")
	runCmd.Flags().StringVar(&runFallbackLocation, "fallback-location", "", "broader location tried when the primary falls short")
	rootCmd.AddCommand(runCmd)
}
