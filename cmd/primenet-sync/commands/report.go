package commands

import (
	"errors"
	"fmt"
	"time"

	"primenet-sync/cmd/primenet-sync/utils"
	"primenet-sync/internal/reports"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	reportType   string
	reportStored bool
	reportTeam   bool
)

func init() {
	reportCmd.Flags().StringVarP(&reportType, "type", "t", "all", "The leaderboard to print.")
	reportCmd.Flags().BoolVar(&reportStored, "stored", false, "Prints the last stored download instead of downloading the leaderboard.")
	reportCmd.Flags().BoolVar(&reportTeam, "team", false, "Downloads the team leaderboard instead of the member one.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--type <name>] [--stored] [--team]",
	Short: "Prints a top producers leaderboard, highlighting the configured member.",
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := primenet.ParseReportType(reportType)
		if err != nil {
			serviceutil.Fatal("unknown report type", err)
		}

		cfg, setup := buildEngine()
		defer setup.Close()

		var rows []primenet.ReportRow
		var title string
		if reportStored {
			if setup.Store == nil {
				serviceutil.Fatal("failed to read stored report", errors.New("leaderboard downloads are disabled"))
			}
			snapshot, err := setup.Store.Latest(cmd.Context(), rt)
			if err != nil {
				serviceutil.Fatal("failed to read stored report", err)
			}
			rows = snapshot.Rows
			title = fmt.Sprintf("%s (stored %s)", rt, snapshot.LogId)
		} else {
			now := time.Now()
			rows, err = setup.Client.FetchReport(cmd.Context(), reports.LogId(now)+"-cli", primenet.ReportQuery{
				Team:   reportTeam,
				Type:   rt,
				RankLo: cfg.Reports.RankLo,
				RankHi: cfg.Reports.RankHi,
				Start:  reports.ProjectStart,
			})
			if err != nil {
				serviceutil.Fatal("failed to download report", err)
			}
			title = rt.String()
		}

		standing := reports.FindStanding(rt, rows, cfg.ReportMember())

		t := utils.NewTable()
		t.SetTitle(title)
		counted := len(rows) > 0 && rows[0].Counted
		header := table.Row{"Rank", "Member", "Credit"}
		if counted {
			header = append(header, "Attempts", "Successes")
		}
		t.AppendHeader(header)
		for _, row := range rows {
			r := table.Row{row.Rank, row.Member, fmt.Sprintf("%.3f", row.Credit)}
			if counted {
				r = append(r, row.Attempts, row.Successes)
			}
			if standing.Found && row.Rank == standing.Row.Rank && row.Member == standing.Row.Member {
				for i := range r {
					r[i] = text.Bold.Sprint(r[i])
				}
			}
			t.AppendRow(r)
		}
		t.Render()

		if !standing.Found {
			fmt.Printf("%s does not appear in this leaderboard\n", cfg.ReportMember())
		}
	},
}
