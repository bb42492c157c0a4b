package stats

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/files"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/scrapers/primenet"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestComputeInclusiveBoundaries(t *testing.T) {
	totals := Compute(now, []Entry{
		{Credit: 1, Time: now.Add(-time.Hour)},
		{Credit: 2, Time: now.Add(-day)},
		{Credit: 4, Time: now.Add(-day - time.Second)},
		{Credit: 8, Time: now.Add(-30 * day)},
		{Credit: 16, Time: now.Add(-365 * day)},
		{Credit: 32, Time: now.Add(-400 * day)},
	})

	require.Equal(t, Totals{
		Windows: [5]float64{3, 7, 15, 15, 31},
		AllTime: 63,
	}, totals)
}

func TestFingerprintOfEqualBuckets(t *testing.T) {
	a := Totals{Windows: [5]float64{5, 5, 5, 5, 5}, AllTime: 5}
	b := Totals{Windows: [5]float64{6, 6, 6, 6, 6}, AllTime: 6}
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	require.Equal(t, a.Fingerprint(), Totals{Windows: [5]float64{5, 5, 5, 5, 5}, AllTime: 5}.Fingerprint())
}

type staticSource struct {
	entries []Entry
	err     error
}

func (s *staticSource) Entries(ctx context.Context) ([]Entry, error) {
	return s.entries, s.err
}

func TestAggregatorSuppressesUnchangedTotals(t *testing.T) {
	clock := &chrono.FixedTime{T: now}
	source := &staticSource{entries: []Entry{{Credit: 10, Time: now.Add(-3 * day)}}}
	agg := NewAggregator(source, clock, &telemetry.Recorder{})

	totals, emitted := agg.Update(context.Background())
	require.True(t, emitted)
	require.Equal(t, 10.0, totals.Windows[1])

	_, emitted = agg.Update(context.Background())
	require.False(t, emitted)

	// the entry ages but stays in the same windows
	clock.Advance(time.Hour)
	_, emitted = agg.Update(context.Background())
	require.False(t, emitted)

	// the entry leaves the 7 day window
	clock.Advance(5 * day)
	totals, emitted = agg.Update(context.Background())
	require.True(t, emitted)
	require.Equal(t, 0.0, totals.Windows[1])
	require.Equal(t, 10.0, totals.Windows[2])
}

func TestAggregatorEmitsZeroTotalsOnce(t *testing.T) {
	agg := NewAggregator(&staticSource{}, &chrono.FixedTime{T: now}, &telemetry.Recorder{})

	_, emitted := agg.Update(context.Background())
	require.True(t, emitted)
	_, emitted = agg.Update(context.Background())
	require.False(t, emitted)
}

func TestAggregatorSourceFailure(t *testing.T) {
	tel := &telemetry.Recorder{}
	agg := NewAggregator(&staticSource{err: errors.New("gone")}, &chrono.FixedTime{T: now}, tel)

	_, emitted := agg.Update(context.Background())
	require.False(t, emitted)
	require.Equal(t, []string{"stats:aggregator.update"}, tel.Broken)
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string, mtime time.Time) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	write("a.upload.html", "CPU credit is 1.5 GHz-days.<br>CPU credit is 2 GHz-days.", now.Add(-2*time.Hour))
	write("b.upload.html", "Done processing:", now.Add(-10*day))
	write("a.login.html", "CPU credit is 100 GHz-days.", now)

	entries, err := LocalSource{Dir: dir, Files: files.NewStandard()}.Entries(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Credit: 3.5, Time: now.Add(-2 * time.Hour)},
		{Credit: 0, Time: now.Add(-10 * day)},
	}, entries)
}

type fakeFetcher struct {
	rows  []primenet.ResultRow
	query primenet.ResultsQuery
}

func (f *fakeFetcher) FetchResults(ctx context.Context, logId string, q primenet.ResultsQuery) ([]primenet.ResultRow, error) {
	f.query = q
	return f.rows, nil
}

func TestRemoteSource(t *testing.T) {
	fetcher := &fakeFetcher{rows: []primenet.ResultRow{
		{ResultType: "LL", Credit: 4, Received: now.Add(-day)},
		{ResultType: "TF", Credit: 1, Received: now.Add(-day)},
		{ResultType: "LL", Credit: 2, Age: 36 * time.Hour},
	}}
	source := RemoteSource{
		Fetcher:    fetcher,
		Time:       &chrono.FixedTime{T: now},
		ResultType: "LL",
		Limit:      50,
	}

	entries, err := source.Entries(context.Background())
	require.NoError(t, err)
	require.Equal(t, 50, fetcher.query.Limit)
	require.Equal(t, []Entry{
		{Credit: 4, Time: now.Add(-day)},
		{Credit: 2, Time: now.Add(-36 * time.Hour)},
	}, entries)

	totals := Compute(now, entries)
	require.Equal(t, 4.0, totals.Windows[0])
	require.Equal(t, 6.0, totals.Windows[1])
}
