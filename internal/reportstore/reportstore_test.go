package reportstore

import (
	"context"
	"testing"
	"time"

	"primenet-sync/internal/scrapers/primenet"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = store.Latest(ctx, primenet.ReportAll)
	require.ErrorIs(t, err, ErrNoSnapshot)

	fetched := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	first := Snapshot{
		LogId:     "2024-05-01-13",
		Type:      primenet.ReportAll,
		FetchedAt: fetched,
		Rows: []primenet.ReportRow{
			{Rank: 1, Member: "Curtis Cooper", Credit: 812.5},
			{Rank: 2, Member: "alice", Credit: 17.25},
		},
	}
	require.NoError(t, store.Save(ctx, first))

	second := Snapshot{
		LogId:     "2024-05-01-14",
		Type:      primenet.ReportAll,
		FetchedAt: fetched.Add(time.Hour),
		Rows: []primenet.ReportRow{
			{Rank: 1, Member: "alice", Credit: 900, Counted: true, Attempts: 10, Successes: 2},
			{Rank: 2, Member: "Curtis Cooper", Credit: 812.5, Counted: true, Attempts: 3},
		},
	}
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, Snapshot{
		LogId:     "2024-05-01-15",
		Type:      primenet.ReportDoubleCheck,
		FetchedAt: fetched,
		Rows:      []primenet.ReportRow{{Rank: 1, Member: "bob", Credit: 1}},
	}))

	latest, err := store.Latest(ctx, primenet.ReportAll)
	require.NoError(t, err)
	if diff := cmp.Diff(second, latest); diff != "" {
		t.Fatal(diff)
	}

	history, err := store.History(ctx, primenet.ReportAll, "alice")
	require.NoError(t, err)
	require.Equal(t, []HistoryPoint{
		{LogId: "2024-05-01-13", Rank: 2, Credit: 17.25},
		{LogId: "2024-05-01-14", Rank: 1, Credit: 900},
	}, history)
}

func TestSaveReplacesSameLogId(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	snapshot := Snapshot{
		LogId: "2024-05-01-13",
		Type:  primenet.ReportFirstLL,
		Rows:  []primenet.ReportRow{{Rank: 1, Member: "alice", Credit: 1}},
	}
	require.NoError(t, store.Save(ctx, snapshot))
	snapshot.Rows = []primenet.ReportRow{{Rank: 1, Member: "alice", Credit: 2}}
	require.NoError(t, store.Save(ctx, snapshot))

	latest, err := store.Latest(ctx, primenet.ReportFirstLL)
	require.NoError(t, err)
	require.Equal(t, []primenet.ReportRow{{Rank: 1, Member: "alice", Credit: 2}}, latest.Rows)

	history, err := store.History(ctx, primenet.ReportFirstLL, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
}
