package worker

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"primenet-sync/internal/components/files"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/scrapers/primenet"

	"github.com/google/uuid"
)

const (
	WorkTodoFile = "worktodo.txt"
	ResultsFile  = "results.txt"
)

// lines with these prefixes count as assignments a worker already holds
var assignmentPrefixes = []string{"Test=", "DoubleCheck="}

const (
	report_tracker_check_assignments = "tracker.check-assignments"
	report_tracker_check_results     = "tracker.check-results"
)

// Worker is one compute directory and the watermarks of its two tracked files.
type Worker struct {
	Directory    string
	WorkTodoPath string
	ResultsPath  string

	workTodoWatermark time.Time
	resultsWatermark  time.Time
	// leading lines of results.txt already staged while truncating it failed
	stagedLines int
}

func NewWorker(dir string) *Worker {
	return &Worker{
		Directory:    dir,
		WorkTodoPath: filepath.Join(dir, WorkTodoFile),
		ResultsPath:  filepath.Join(dir, ResultsFile),
	}
}

func (w *Worker) WorkTodoWatermark() time.Time {
	return w.workTodoWatermark
}

func (w *Worker) ResultsWatermark() time.Time {
	return w.resultsWatermark
}

// Assigner requests new assignment lines from the portal.
type Assigner interface {
	RequestAssignments(ctx context.Context, logId string, req primenet.AssignmentRequest) ([]string, error)
}

// ResultSink receives the result lines harvested from workers.
type ResultSink interface {
	Append(lines []string) error
}

type Options struct {
	MinAssignmentCount int
	WorkType           primenet.WorkType
	ExponentLow        int
	ExponentHigh       int
}

// Tracker detects changes to the worker files by their modification time and
// reconciles them. A file whose modification time still equals its watermark
// is not read at all.
//
// Tracker is not safe for concurrent use, the scheduler owns it.
type Tracker struct {
	workers  []*Worker
	files    files.API
	assigner Assigner
	opts     Options
	tel      telemetry.API
}

func NewTracker(dirs []string, fs files.API, assigner Assigner, opts Options, tel telemetry.API) *Tracker {
	workers := make([]*Worker, len(dirs))
	for i, dir := range dirs {
		workers[i] = NewWorker(dir)
	}
	return &Tracker{
		workers:  workers,
		files:    fs,
		assigner: assigner,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("worker", tel),
	}
}

func (t *Tracker) Workers() []*Worker {
	return t.workers
}

// CountAssignments returns how many lines start with a recognized assignment
// prefix once surrounding whitespace is trimmed.
func CountAssignments(lines []string) int {
	count := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		for _, prefix := range assignmentPrefixes {
			if strings.HasPrefix(line, prefix) {
				count++
				break
			}
		}
	}
	return count
}

// changedSince makes sure the file exists and returns its modification time,
// changed is false when it still equals the watermark. A time moving backwards,
// like a file restored from a backup, counts as a change.
func (t *Tracker) changedSince(path string, watermark time.Time) (time.Time, bool, error) {
	err := t.files.EnsureExists(path)
	if err != nil {
		return time.Time{}, false, err
	}
	mtime, err := t.files.ModTime(path)
	if err != nil {
		return time.Time{}, false, err
	}
	return mtime, !mtime.Equal(watermark), nil
}

// CheckAssignments tops up every changed worktodo.txt to the minimum assignment
// count. It returns the number of assignment lines added across all workers.
func (t *Tracker) CheckAssignments(ctx context.Context) int {
	added := 0
	for _, w := range t.workers {
		if ctx.Err() != nil {
			break
		}
		added += t.checkAssignments(ctx, w)
	}
	return added
}

func (t *Tracker) checkAssignments(ctx context.Context, w *Worker) int {
	mtime, changed, err := t.changedSince(w.WorkTodoPath, w.workTodoWatermark)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_assignments, err, w.WorkTodoPath)
		return 0
	}
	if !changed {
		return 0
	}

	lines, err := t.files.ReadLines(w.WorkTodoPath)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_assignments, err, w.WorkTodoPath)
		return 0
	}
	shortfall := t.opts.MinAssignmentCount - CountAssignments(lines)
	if shortfall <= 0 {
		w.workTodoWatermark = mtime
		return 0
	}

	assigned, err := t.assigner.RequestAssignments(ctx, uuid.NewString(), primenet.AssignmentRequest{
		Cores:        shortfall,
		PerCore:      1,
		WorkType:     t.opts.WorkType,
		ExponentLow:  t.opts.ExponentLow,
		ExponentHigh: t.opts.ExponentHigh,
	})
	if err != nil || len(assigned) == 0 {
		// the watermark stays behind so the request is retried next cycle
		return 0
	}

	err = t.files.AppendLines(w.WorkTodoPath, assigned)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_assignments, err, w.WorkTodoPath)
		return 0
	}
	mtime, err = t.files.ModTime(w.WorkTodoPath)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_assignments, err, w.WorkTodoPath)
		return len(assigned)
	}
	w.workTodoWatermark = mtime

	slog.Info("added assignments", "worker", w.Directory, "count", len(assigned))
	return len(assigned)
}

// CheckResults moves the lines of every changed results.txt into sink and
// empties the file. It returns the number of lines harvested across all workers.
func (t *Tracker) CheckResults(ctx context.Context, sink ResultSink) int {
	harvested := 0
	for _, w := range t.workers {
		if ctx.Err() != nil {
			break
		}
		harvested += t.checkResults(w, sink)
	}
	return harvested
}

func (t *Tracker) checkResults(w *Worker, sink ResultSink) int {
	mtime, changed, err := t.changedSince(w.ResultsPath, w.resultsWatermark)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_results, err, w.ResultsPath)
		return 0
	}
	if !changed {
		return 0
	}

	lines, err := t.files.ReadLines(w.ResultsPath)
	if err != nil {
		t.tel.ReportBroken(report_tracker_check_results, err, w.ResultsPath)
		return 0
	}
	lines = files.NonBlank(lines)

	// a shorter file was rewritten by someone else, nothing of it is staged
	if w.stagedLines > len(lines) {
		w.stagedLines = 0
	}
	fresh := lines[w.stagedLines:]
	if len(fresh) > 0 {
		err = sink.Append(fresh)
		if err != nil {
			t.tel.ReportBroken(report_tracker_check_results, err, w.ResultsPath)
			return 0
		}
	}

	if len(lines) > 0 {
		err = t.files.Truncate(w.ResultsPath)
		if err != nil {
			// the lines are staged, only the ones appended later are harvested
			w.stagedLines = len(lines)
			w.resultsWatermark = mtime
			t.tel.ReportBroken(report_tracker_check_results, err, w.ResultsPath)
			return len(fresh)
		}
		w.stagedLines = 0
		mtime, err = t.files.ModTime(w.ResultsPath)
		if err != nil {
			t.tel.ReportBroken(report_tracker_check_results, err, w.ResultsPath)
			return len(fresh)
		}
	}
	w.resultsWatermark = mtime

	if len(fresh) > 0 {
		slog.Info("harvested results", "worker", w.Directory, "count", len(fresh))
	}
	return len(fresh)
}
