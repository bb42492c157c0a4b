// Package engine composes the tracker, the staging pipeline, the statistics
// aggregator and the report downloader into the phases of one scheduler.
package engine

import (
	"context"
	"time"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/reports"
	"primenet-sync/internal/scheduler"
	"primenet-sync/internal/staging"
	"primenet-sync/internal/stats"
	"primenet-sync/internal/worker"
)

const (
	AssignmentInterval = 10*time.Minute + 11*time.Second
	ResultInterval     = time.Minute + 3*time.Second
)

const (
	PhaseAssignments = "assignments"
	PhaseResults     = "results"
	PhaseUpload      = "upload"
	PhaseStats       = "stats"
	PhaseReports     = "reports"
)

type Engine struct {
	Tracker    *worker.Tracker
	Pipeline   *staging.Pipeline
	Aggregator *stats.Aggregator
	// Reports is optional, without it no leaderboards are downloaded.
	Reports *reports.Downloader

	UploadOffset time.Duration
	ReportOffset time.Duration
}

// CheckResults harvests every worker into a fresh staging batch.
func (e *Engine) CheckResults(ctx context.Context) *staging.Batch {
	batch := e.Pipeline.NewBatch()
	e.Tracker.CheckResults(ctx, batch)
	return batch
}

// Scheduler returns a scheduler running every phase of the engine. Statistics
// are recomputed right after each upload pass.
func (e *Engine) Scheduler(timeAPI chrono.TimeAPI) *scheduler.Scheduler {
	s := scheduler.New(timeAPI)
	s.Add(
		scheduler.IntervalPhase(PhaseAssignments, AssignmentInterval, func(ctx context.Context, _ time.Time) {
			e.Tracker.CheckAssignments(ctx)
		}),
		scheduler.IntervalPhase(PhaseResults, ResultInterval, func(ctx context.Context, _ time.Time) {
			e.CheckResults(ctx)
		}),
		scheduler.HourlyPhase(PhaseUpload, e.UploadOffset, func(ctx context.Context, _ time.Time) {
			e.Pipeline.UploadPending(ctx)
		}),
		scheduler.HourlyPhase(PhaseStats, e.UploadOffset, func(ctx context.Context, _ time.Time) {
			e.Aggregator.Update(ctx)
		}),
	)
	if e.Reports != nil {
		s.Add(scheduler.HourlyPhase(PhaseReports, e.ReportOffset, func(ctx context.Context, _ time.Time) {
			e.Reports.DownloadAll(ctx)
		}))
	}
	return s
}

// Run computes the statistics once and then runs the scheduler until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context, timeAPI chrono.TimeAPI) error {
	e.Aggregator.Update(ctx)
	return e.Scheduler(timeAPI).Run(ctx)
}
