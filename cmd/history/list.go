package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"westwise/internal/model"
)

var (
	listLabel string
	listLimit int
	listPage  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored predictions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listLimit <= 0 {
			listLimit = 20
		}
		if listPage <= 0 {
			listPage = 1
		}
		filter := &model.PredictionFilter{
			Limit:  listLimit,
			Offset: (listPage - 1) * listLimit,
		}
		if listLabel != "" {
			c, ok := model.ParseCategory(listLabel)
			if !ok {
				return fmt.Errorf("unknown label %q", listLabel)
			}
			filter.Label = &c
		}

		predictions, err := repo.GetAll(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to list predictions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(predictions) == 0 {
			fmt.Fprintln(out, "No predictions found.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tCONFIDENCE\tFILE\tCREATED")
		fmt.Fprintln(w, "--\t-----\t----------\t----\t-------")
		for _, p := range predictions {
			fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\t%s\n", p.ID, p.Label, p.Confidence, p.Filename, p.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().StringVar(&listLabel, "label", "", "Only show this label")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Rows per page")
	listCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	rootCmd.AddCommand(listCmd)
}
