// Package scheduler runs timed phases from a single polling loop. Phases never
// overlap, each one runs to completion before the next is considered.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"primenet-sync/internal/components/chrono"
)

// DefaultQuantum is the pause between two iterations of the loop.
const DefaultQuantum = time.Second

// Phase is one unit of periodic work. Interval phases run whenever Every has
// elapsed since their last run. Hourly phases run at most once per hour, on the
// first iteration at or after Offset past the hour.
type Phase struct {
	Name   string
	Every  time.Duration
	Offset time.Duration
	Hourly bool
	Run    func(ctx context.Context, now time.Time)

	lastRun     time.Time
	ranThisHour bool
}

func IntervalPhase(name string, every time.Duration, run func(ctx context.Context, now time.Time)) *Phase {
	return &Phase{Name: name, Every: every, Run: run}
}

func HourlyPhase(name string, offset time.Duration, run func(ctx context.Context, now time.Time)) *Phase {
	return &Phase{Name: name, Offset: offset, Hourly: true, Run: run}
}

func (p *Phase) LastRun() time.Time {
	return p.lastRun
}

// Due reports whether the phase should run at now. For hourly phases it also
// clears the same-hour flag once the clock is back before the offset.
func (p *Phase) Due(now time.Time) bool {
	if !p.Hourly {
		return p.lastRun.IsZero() || now.Sub(p.lastRun) >= p.Every
	}
	if chrono.PastTheHour(now) < p.Offset {
		p.ranThisHour = false
		return false
	}
	if p.ranThisHour && p.lastRun.Truncate(time.Hour).Equal(now.Truncate(time.Hour)) {
		return false
	}
	return true
}

func (p *Phase) markRun(now time.Time) {
	p.lastRun = now
	p.ranThisHour = true
}

type Scheduler struct {
	Quantum time.Duration

	phases []*Phase
	time   chrono.TimeAPI
}

func New(timeAPI chrono.TimeAPI) *Scheduler {
	return &Scheduler{
		Quantum: DefaultQuantum,
		time:    timeAPI,
	}
}

// Add registers phases, phases due in the same iteration run in the order they
// were added.
func (s *Scheduler) Add(phases ...*Phase) {
	s.phases = append(s.phases, phases...)
}

func (s *Scheduler) Phases() []*Phase {
	return s.phases
}

// Tick runs every due phase once and returns the names of the phases that ran.
func (s *Scheduler) Tick(ctx context.Context) []string {
	var ran []string
	for _, p := range s.phases {
		if ctx.Err() != nil {
			break
		}
		now := s.time.Now()
		if !p.Due(now) {
			continue
		}
		slog.Debug("running phase", "phase", p.Name)
		p.Run(ctx, now)
		p.markRun(now)
		ran = append(ran, p.Name)
	}
	return ran
}

// Run ticks every Quantum until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Quantum)
	defer ticker.Stop()

	for {
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
