// Package reportstore keeps every downloaded leaderboard in a local sqlite
// database so rank and credit can be followed over time.
package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"primenet-sync/internal/reportstore/db"
	"primenet-sync/internal/scrapers/primenet"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("primenet-sync/reportstore")

// ErrNoSnapshot is returned when no leaderboard of the requested type was stored yet.
var ErrNoSnapshot = errors.New("no stored report")

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

// Open opens (and creates if needed) the database at path, `:memory:` keeps
// it in memory.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a second connection to `:memory:` would see an empty database
	database.SetMaxOpenConns(1)

	_, err = database.Exec(db.Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: database, qry: db.New(database)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot is one stored leaderboard.
type Snapshot struct {
	LogId     string
	Type      primenet.ReportType
	FetchedAt time.Time
	Rows      []primenet.ReportRow
}

// Save stores the rows of one leaderboard, replacing what was stored under the
// same log id and report type.
func (s *Store) Save(ctx context.Context, snapshot Snapshot) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	err := s.save(ctx, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Store) save(ctx context.Context, snapshot Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	reportType := snapshot.Type.String()
	err = txqry.DeleteSnapshotRows(ctx, db.DeleteSnapshotRowsParams{
		LogID:      snapshot.LogId,
		ReportType: reportType,
	})
	if err != nil {
		return err
	}
	err = txqry.DeleteSnapshot(ctx, db.DeleteSnapshotParams{
		LogID:      snapshot.LogId,
		ReportType: reportType,
	})
	if err != nil {
		return err
	}

	id, err := txqry.CreateSnapshot(ctx, db.CreateSnapshotParams{
		LogID:      snapshot.LogId,
		ReportType: reportType,
		FetchedAt:  snapshot.FetchedAt.Unix(),
	})
	if err != nil {
		return err
	}
	for _, row := range snapshot.Rows {
		err = txqry.CreateReportRow(ctx, db.CreateReportRowParams{
			SnapshotID: id,
			Rank:       int64(row.Rank),
			Member:     row.Member,
			Credit:     row.Credit,
			Counted:    row.Counted,
			Attempts:   int64(row.Attempts),
			Successes:  int64(row.Successes),
		})
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Latest returns the most recent leaderboard of the given type.
func (s *Store) Latest(ctx context.Context, reportType primenet.ReportType) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "Latest")
	defer span.End()

	stored, err := s.qry.GetLatestSnapshot(ctx, reportType.String())
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	rows, err := s.qry.GetSnapshotRows(ctx, stored.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		LogId:     stored.LogID,
		Type:      reportType,
		FetchedAt: time.Unix(stored.FetchedAt, 0).UTC(),
		Rows:      make([]primenet.ReportRow, len(rows)),
	}
	for i, row := range rows {
		snapshot.Rows[i] = primenet.ReportRow{
			Rank:      int(row.Rank),
			Member:    row.Member,
			Credit:    row.Credit,
			Counted:   row.Counted,
			Attempts:  int(row.Attempts),
			Successes: int(row.Successes),
		}
	}
	return snapshot, nil
}

// HistoryPoint is the standing of one member in one stored leaderboard.
type HistoryPoint struct {
	LogId  string
	Rank   int
	Credit float64
}

// History returns the standing of member in every stored leaderboard of the
// given type, oldest first.
func (s *Store) History(ctx context.Context, reportType primenet.ReportType, member string) ([]HistoryPoint, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()

	rows, err := s.qry.GetMemberHistory(ctx, db.GetMemberHistoryParams{
		ReportType: reportType.String(),
		Member:     member,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	points := make([]HistoryPoint, len(rows))
	for i, row := range rows {
		points[i] = HistoryPoint{LogId: row.LogID, Rank: int(row.Rank), Credit: row.Credit}
	}
	return points, nil
}
