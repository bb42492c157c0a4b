package engine

import (
	"fmt"
	"path/filepath"
	"time"

	"primenet-sync/internal/components/audit"
	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/files"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/config"
	"primenet-sync/internal/reports"
	"primenet-sync/internal/reportstore"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/internal/staging"
	"primenet-sync/internal/stats"
	"primenet-sync/internal/worker"
)

// Setup is an engine and the resources it was built on.
type Setup struct {
	Engine *Engine
	Client *primenet.Client
	// Store is nil when leaderboard downloads are disabled.
	Store *reportstore.Store
}

func (s Setup) Close() error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Close()
}

// Build wires every component of the engine from the configuration.
func Build(cfg config.Config, timeAPI chrono.TimeAPI, tel telemetry.API) (Setup, error) {
	password, err := cfg.ResolvePassword()
	if err != nil {
		return Setup{}, fmt.Errorf("resolve password: %w", err)
	}
	workType, err := cfg.ParsedWorkType()
	if err != nil {
		return Setup{}, err
	}
	reportTypes, err := cfg.ParsedReportTypes()
	if err != nil {
		return Setup{}, err
	}

	weblogs, err := audit.NewFilesystemOutput(cfg.WeblogsDir())
	if err != nil {
		return Setup{}, fmt.Errorf("create weblogs directory: %w", err)
	}
	client, err := primenet.NewClient(primenet.ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		Username:          cfg.Username,
		Password:          password,
		Audit:             weblogs,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, tel)
	if err != nil {
		return Setup{}, err
	}

	fs := files.NewStandard()
	tracker := worker.NewTracker(cfg.Workers, fs, client, worker.Options{
		MinAssignmentCount: cfg.MinAssignmentCount,
		WorkType:           workType,
		ExponentLow:        cfg.ExponentLow,
		ExponentHigh:       cfg.ExponentHigh,
	}, tel)
	pipeline, err := staging.NewPipeline(cfg.StagingDir(), cfg.BackupDir(), fs, client, tel)
	if err != nil {
		return Setup{}, err
	}

	var source stats.Source
	switch cfg.Statistics.Source {
	case config.StatisticsRemote:
		source = stats.RemoteSource{
			Fetcher:    client,
			Time:       timeAPI,
			ResultType: cfg.Statistics.ResultType,
			Limit:      cfg.Statistics.Limit,
		}
	default:
		source = stats.LocalSource{Dir: weblogs.Directory(), Files: fs}
	}

	setup := Setup{
		Client: client,
		Engine: &Engine{
			Tracker:      tracker,
			Pipeline:     pipeline,
			Aggregator:   stats.NewAggregator(source, timeAPI, tel),
			UploadOffset: time.Duration(cfg.UploadOffsetMinutes) * time.Minute,
			ReportOffset: time.Duration(cfg.ReportOffsetMinutes) * time.Minute,
		},
	}

	if !cfg.Reports.Disabled && len(reportTypes) > 0 {
		err = fs.EnsureDir(filepath.Dir(cfg.ReportsDatabase()))
		if err != nil {
			return Setup{}, err
		}
		store, err := reportstore.Open(cfg.ReportsDatabase())
		if err != nil {
			return Setup{}, fmt.Errorf("open report store: %w", err)
		}
		setup.Store = store
		setup.Engine.Reports = reports.NewDownloader(client, store, timeAPI, reports.Options{
			Member: cfg.ReportMember(),
			Types:  reportTypes,
			RankLo: cfg.Reports.RankLo,
			RankHi: cfg.Reports.RankHi,
		}, tel)
	}

	return setup, nil
}
