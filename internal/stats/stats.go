package stats

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"time"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/telemetry"
)

const day = 24 * time.Hour

// Window is one rolling credit window.
type Window struct {
	Label  string
	Length time.Duration
}

// Windows are the rolling windows, shortest first. The all time total is kept
// separately.
var Windows = []Window{
	{Label: "1 day", Length: day},
	{Label: "7 days", Length: 7 * day},
	{Label: "30 days", Length: 30 * day},
	{Label: "90 days", Length: 90 * day},
	{Label: "365 days", Length: 365 * day},
}

const report_aggregator_update = "aggregator.update"

// Entry is one credit award and the time it was earned at.
type Entry struct {
	Credit float64
	Time   time.Time
}

// Source produces the credit entries statistics are computed from.
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// Totals holds the credit of each window in Windows, followed by the all time
// total.
type Totals struct {
	Windows [5]float64
	AllTime float64
}

// Compute buckets entries by their age at now. An entry belongs to a window
// when its age is less than or equal to the window's length.
func Compute(now time.Time, entries []Entry) Totals {
	var totals Totals
	for _, e := range entries {
		age := now.Sub(e.Time)
		totals.AllTime += e.Credit
		for i, w := range Windows {
			if age <= w.Length {
				totals.Windows[i] += e.Credit
			}
		}
	}
	return totals
}

// Fingerprint combines the bits of every bucket. Each bucket is rotated by its
// position first, so equal buckets do not cancel each other out.
func (t Totals) Fingerprint() uint64 {
	var fp uint64
	for i, v := range t.Windows {
		fp ^= bits.RotateLeft64(math.Float64bits(v), i*11)
	}
	fp ^= bits.RotateLeft64(math.Float64bits(t.AllTime), len(t.Windows)*11)
	return fp
}

func (t Totals) String() string {
	return fmt.Sprintf(
		"1: %.4f, 7: %.4f, 30: %.4f, 90: %.4f, 365: %.4f, total: %.4f",
		t.Windows[0], t.Windows[1], t.Windows[2], t.Windows[3], t.Windows[4], t.AllTime,
	)
}

// Aggregator recomputes the totals from its source on every update and only
// emits a status line when they changed since the last emission.
type Aggregator struct {
	source Source
	time   chrono.TimeAPI
	tel    telemetry.API

	emitted     bool
	fingerprint uint64
}

func NewAggregator(source Source, timeAPI chrono.TimeAPI, tel telemetry.API) *Aggregator {
	return &Aggregator{
		source: source,
		time:   timeAPI,
		tel:    telemetry.NewScopedAPI("stats", tel),
	}
}

// Compute returns the current totals without touching the emission state.
func (a *Aggregator) Compute(ctx context.Context) (Totals, error) {
	entries, err := a.source.Entries(ctx)
	if err != nil {
		return Totals{}, err
	}
	return Compute(a.time.Now(), entries), nil
}

// Update recomputes the totals and logs them if they differ from the last
// logged totals. It reports whether a status line was emitted.
func (a *Aggregator) Update(ctx context.Context) (Totals, bool) {
	totals, err := a.Compute(ctx)
	if err != nil {
		a.tel.ReportBroken(report_aggregator_update, err)
		return Totals{}, false
	}

	fp := totals.Fingerprint()
	if a.emitted && fp == a.fingerprint {
		return totals, false
	}
	a.emitted = true
	a.fingerprint = fp

	slog.Info("credit", "stats", totals.String())
	return totals, true
}
