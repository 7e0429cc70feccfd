package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
)

var (
	runsStatus string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded collection runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(runsStatus),
			Limit:  runsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCATEGORY\tLOCATION\tSTATUS\tRECORDS\tCREATED")
		for _, run := range runs {
			records := "-"
			if run.Result != nil {
				records = fmt.Sprintf("%d", len(run.Result.Records))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				run.ID,
				run.Query.Category,
				run.Query.Location,
				run.Status,
				records,
				run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStatus, "status", "", "filter by run status")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
