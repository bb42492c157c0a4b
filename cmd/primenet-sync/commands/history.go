package commands

import (
	"errors"
	"fmt"

	"primenet-sync/cmd/primenet-sync/utils"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyType   string
	historyMember string
)

func init() {
	historyCmd.Flags().StringVarP(&historyType, "type", "t", "all", "The leaderboard to read.")
	historyCmd.Flags().StringVarP(&historyMember, "member", "m", "", "The member to look up, defaults to the configured member.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--type <name>] [--member <name>]",
	Short: "Prints the standing of a member across every stored download of a leaderboard.",
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := primenet.ParseReportType(historyType)
		if err != nil {
			serviceutil.Fatal("unknown report type", err)
		}

		cfg, setup := buildEngine()
		defer setup.Close()
		if setup.Store == nil {
			serviceutil.Fatal("failed to read history", errors.New("leaderboard downloads are disabled"))
		}

		member := historyMember
		if member == "" {
			member = cfg.ReportMember()
		}
		points, err := setup.Store.History(cmd.Context(), rt, member)
		if err != nil {
			serviceutil.Fatal("failed to read history", err)
		}

		t := utils.NewTable()
		t.SetTitle(fmt.Sprintf("%s in %s", member, rt))
		t.AppendHeader(table.Row{"Hour", "Rank", "Credit"})
		for _, p := range points {
			t.AppendRow(table.Row{p.LogId, p.Rank, fmt.Sprintf("%.3f", p.Credit)})
		}
		t.Render()
	},
}
