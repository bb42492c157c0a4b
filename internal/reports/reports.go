// Package reports downloads the configured leaderboards, stores them and logs
// where the configured account stands in them.
package reports

import (
	"context"
	"log/slog"
	"time"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/reportstore"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/lib/textutil"
)

// LogIdLayout formats the hour a batch of leaderboards belongs to.
const LogIdLayout = "2006-01-02-15"

// ProjectStart is the first day leaderboards are counted from.
var ProjectStart = time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	report_downloader_fetch = "downloader.fetch"
	report_downloader_save  = "downloader.save"
)

type Fetcher interface {
	FetchReport(ctx context.Context, logId string, q primenet.ReportQuery) ([]primenet.ReportRow, error)
}

type Store interface {
	Save(ctx context.Context, snapshot reportstore.Snapshot) error
}

type Options struct {
	// Member is the leaderboard name looked up in every downloaded report.
	Member string
	Types  []primenet.ReportType
	RankLo int
	RankHi int
}

type Downloader struct {
	fetcher Fetcher
	store   Store
	time    chrono.TimeAPI
	opts    Options
	tel     telemetry.API
}

func NewDownloader(fetcher Fetcher, store Store, timeAPI chrono.TimeAPI, opts Options, tel telemetry.API) *Downloader {
	return &Downloader{
		fetcher: fetcher,
		store:   store,
		time:    timeAPI,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("reports", tel),
	}
}

// LogId names the hour a download at now belongs to. Past the first minute of an
// hour the download is attributed to the next hour.
func LogId(now time.Time) string {
	now = now.UTC()
	hour := now.Truncate(time.Hour)
	if now.Minute() > 1 {
		hour = hour.Add(time.Hour)
	}
	return hour.Format(LogIdLayout)
}

// Standing is where the configured member appears in one leaderboard.
type Standing struct {
	Type  primenet.ReportType
	Found bool
	Row   primenet.ReportRow
}

// DownloadAll fetches every configured leaderboard in order. A leaderboard that
// fails to download or store is reported and skipped.
func (d *Downloader) DownloadAll(ctx context.Context) []Standing {
	now := d.time.Now()
	logId := LogId(now)

	var standings []Standing
	for _, reportType := range d.opts.Types {
		if ctx.Err() != nil {
			break
		}

		rows, err := d.fetcher.FetchReport(ctx, logId, primenet.ReportQuery{
			Type:   reportType,
			RankLo: d.opts.RankLo,
			RankHi: d.opts.RankHi,
			Start:  ProjectStart,
		})
		if err != nil {
			d.tel.ReportWarning(report_downloader_fetch, err, reportType.String())
			continue
		}

		err = d.store.Save(ctx, reportstore.Snapshot{
			LogId:     logId,
			Type:      reportType,
			FetchedAt: now,
			Rows:      rows,
		})
		if err != nil {
			d.tel.ReportBroken(report_downloader_save, err, reportType.String())
		}

		standing := FindStanding(reportType, rows, d.opts.Member)
		standings = append(standings, standing)
		if standing.Found {
			slog.Info(
				"report standing",
				"report", reportType.String(),
				"rank", standing.Row.Rank,
				"credit", standing.Row.Credit,
			)
		}
	}
	return standings
}

// FindStanding looks member up among the rows of one leaderboard.
func FindStanding(reportType primenet.ReportType, rows []primenet.ReportRow, member string) Standing {
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Member
	}
	idx := textutil.FindMember(member, names)
	if idx < 0 {
		return Standing{Type: reportType}
	}
	return Standing{Type: reportType, Found: true, Row: rows[idx]}
}
