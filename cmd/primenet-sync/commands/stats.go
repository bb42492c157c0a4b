package commands

import (
	"fmt"

	"primenet-sync/cmd/primenet-sync/utils"
	"primenet-sync/internal/stats"
	"primenet-sync/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the credit earned in each rolling window.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, setup := buildEngine()
		defer setup.Close()

		totals, err := setup.Engine.Aggregator.Compute(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to compute statistics", err)
		}

		t := utils.NewTable()
		t.SetTitle(fmt.Sprintf("Credit (GHz-days), %s source", cfg.Statistics.Source))
		t.AppendHeader(table.Row{"Window", "Credit"})
		for i, w := range stats.Windows {
			t.AppendRow(table.Row{w.Label, fmt.Sprintf("%.4f", totals.Windows[i])})
		}
		t.AppendFooter(table.Row{"All time", fmt.Sprintf("%.4f", totals.AllTime)})
		t.Render()
	},
}
