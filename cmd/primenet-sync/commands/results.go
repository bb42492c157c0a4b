package commands

import (
	"fmt"
	"time"

	"primenet-sync/cmd/primenet-sync/utils"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var resultsLimit int

func init() {
	resultsCmd.Flags().IntVarP(&resultsLimit, "limit", "n", 50, "The number of results to list.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results [--limit <n>]",
	Short: "Lists the most recent results PrimeNet recorded for the account.",
	Run: func(cmd *cobra.Command, args []string) {
		_, setup := buildEngine()
		defer setup.Close()

		now := time.Now()
		rows, err := setup.Client.FetchResults(cmd.Context(), now.Format("2006-01-02-15-04")+"-cli", primenet.ResultsQuery{
			Limit: resultsLimit,
		})
		if err != nil {
			serviceutil.Fatal("failed to download results", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"CPU", "Exponent", "Type", "Received", "Result", "Credit"})
		total := 0.0
		for _, row := range rows {
			received := now.Add(-row.Age)
			if !row.Received.IsZero() {
				received = row.Received
			}
			t.AppendRow(table.Row{
				row.CpuName,
				row.Exponent,
				row.ResultType,
				received.Local().Format(time.DateTime),
				row.Result,
				fmt.Sprintf("%.4f", row.Credit),
			})
			total += row.Credit
		}
		t.AppendFooter(table.Row{"", "", "", "", "Total", fmt.Sprintf("%.4f", total)})
		t.Render()
	},
}
