package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"westwise/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show prediction totals per label",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := repo.GetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total predictions: %d\n", stats.TotalPredictions)
		fmt.Fprintf(out, "Average confidence: %.4f\n\n", stats.AverageConfidence)

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "LABEL\tCOUNT")
		for _, name := range model.CategoryNames() {
			fmt.Fprintf(w, "%s\t%d\n", name, stats.PerLabel[name])
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
