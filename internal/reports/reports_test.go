package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/reportstore"
	"primenet-sync/internal/scrapers/primenet"

	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func TestLogId(t *testing.T) {
	table := []struct {
		now      time.Time
		expected string
	}{
		{now: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC), expected: "2024-05-01-13"},
		{now: time.Date(2024, 5, 1, 13, 1, 59, 0, time.UTC), expected: "2024-05-01-13"},
		{now: time.Date(2024, 5, 1, 13, 2, 0, 0, time.UTC), expected: "2024-05-01-14"},
		{now: time.Date(2024, 5, 1, 23, 12, 0, 0, time.UTC), expected: "2024-05-02-00"},
		// 05:01 and 05:02 UTC in a half hour zone
		{now: time.Date(2024, 5, 1, 10, 31, 0, 0, ist), expected: "2024-05-01-05"},
		{now: time.Date(2024, 5, 1, 10, 32, 0, 0, ist), expected: "2024-05-01-06"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, LogId(row.now))
	}
}

type fakeFetcher struct {
	queries []primenet.ReportQuery
	logIds  []string
	fail    map[primenet.ReportType]bool
}

func (f *fakeFetcher) FetchReport(ctx context.Context, logId string, q primenet.ReportQuery) ([]primenet.ReportRow, error) {
	f.queries = append(f.queries, q)
	f.logIds = append(f.logIds, logId)
	if f.fail[q.Type] {
		return nil, primenet.ErrFormatMismatch
	}
	return []primenet.ReportRow{
		{Rank: 1, Member: "Curtis Cooper", Credit: 900},
		{Rank: 2, Member: "Alice  Smith", Credit: 17.25},
	}, nil
}

type memoryStore struct {
	saved []reportstore.Snapshot
	err   error
}

func (s *memoryStore) Save(ctx context.Context, snapshot reportstore.Snapshot) error {
	s.saved = append(s.saved, snapshot)
	return s.err
}

func TestDownloadAll(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[primenet.ReportType]bool{primenet.ReportP1Factoring: true}}
	store := &memoryStore{}
	tel := &telemetry.Recorder{}
	clock := &chrono.FixedTime{T: time.Date(2024, 5, 1, 13, 12, 0, 0, time.UTC)}

	d := NewDownloader(fetcher, store, clock, Options{
		Member: "alice smith",
		Types:  primenet.AllReportTypes(),
		RankLo: 1,
		RankHi: 500,
	}, tel)

	standings := d.DownloadAll(context.Background())
	require.Len(t, fetcher.queries, 7)
	for i, q := range fetcher.queries {
		require.Equal(t, primenet.ReportType(i), q.Type)
		require.Equal(t, 1, q.RankLo)
		require.Equal(t, 500, q.RankHi)
		require.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), q.Start)
		require.True(t, q.End.IsZero())
		require.Equal(t, "2024-05-01-14", fetcher.logIds[i])
	}

	require.Len(t, store.saved, 6)
	require.Len(t, standings, 6)
	for _, standing := range standings {
		require.True(t, standing.Found)
		require.Equal(t, 2, standing.Row.Rank)
	}
	require.Equal(t, []string{"reports:downloader.fetch"}, tel.Warnings)
}

func TestDownloadAllKeepsGoingWhenStoreFails(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	tel := &telemetry.Recorder{}
	d := NewDownloader(&fakeFetcher{}, store, &chrono.FixedTime{}, Options{
		Member: "nobody",
		Types:  []primenet.ReportType{primenet.ReportAll, primenet.ReportECMFermat},
	}, tel)

	standings := d.DownloadAll(context.Background())
	require.Len(t, standings, 2)
	require.False(t, standings[0].Found)
	require.Len(t, tel.Broken, 2)
}

func TestFindStanding(t *testing.T) {
	rows := []primenet.ReportRow{
		{Rank: 1, Member: "Curtis Cooper"},
		{Rank: 2, Member: "alice"},
	}
	standing := FindStanding(primenet.ReportAll, rows, "Curtis Coope")
	require.True(t, standing.Found)
	require.Equal(t, 1, standing.Row.Rank)

	require.False(t, FindStanding(primenet.ReportAll, rows, "bob").Found)
}
