package db

import (
	"context"
)

const createReportRow = `-- name: CreateReportRow :exec
insert into report_row (snapshot_id, rank, member, credit, counted, attempts, successes)
values (?, ?, ?, ?, ?, ?, ?)
`

type CreateReportRowParams struct {
	SnapshotID int64
	Rank       int64
	Member     string
	Credit     float64
	Counted    bool
	Attempts   int64
	Successes  int64
}

func (q *Queries) CreateReportRow(ctx context.Context, arg CreateReportRowParams) error {
	_, err := q.db.ExecContext(ctx, createReportRow,
		arg.SnapshotID,
		arg.Rank,
		arg.Member,
		arg.Credit,
		arg.Counted,
		arg.Attempts,
		arg.Successes,
	)
	return err
}

const createSnapshot = `-- name: CreateSnapshot :one
insert into report_snapshot (log_id, report_type, fetched_at)
values (?, ?, ?)
returning id
`

type CreateSnapshotParams struct {
	LogID      string
	ReportType string
	FetchedAt  int64
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSnapshot, arg.LogID, arg.ReportType, arg.FetchedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const deleteSnapshot = `-- name: DeleteSnapshot :exec
delete from report_snapshot where log_id = ? and report_type = ?
`

type DeleteSnapshotParams struct {
	LogID      string
	ReportType string
}

func (q *Queries) DeleteSnapshot(ctx context.Context, arg DeleteSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, deleteSnapshot, arg.LogID, arg.ReportType)
	return err
}

const deleteSnapshotRows = `-- name: DeleteSnapshotRows :exec
delete from report_row where snapshot_id in (
    select id from report_snapshot where log_id = ? and report_type = ?
)
`

type DeleteSnapshotRowsParams struct {
	LogID      string
	ReportType string
}

func (q *Queries) DeleteSnapshotRows(ctx context.Context, arg DeleteSnapshotRowsParams) error {
	_, err := q.db.ExecContext(ctx, deleteSnapshotRows, arg.LogID, arg.ReportType)
	return err
}

const getLatestSnapshot = `-- name: GetLatestSnapshot :one
select id, log_id, report_type, fetched_at from report_snapshot
where report_type = ?
order by log_id desc
limit 1
`

func (q *Queries) GetLatestSnapshot(ctx context.Context, reportType string) (ReportSnapshot, error) {
	row := q.db.QueryRowContext(ctx, getLatestSnapshot, reportType)
	var i ReportSnapshot
	err := row.Scan(
		&i.ID,
		&i.LogID,
		&i.ReportType,
		&i.FetchedAt,
	)
	return i, err
}

const getMemberHistory = `-- name: GetMemberHistory :many
select report_snapshot.log_id, report_row.rank, report_row.credit
from report_row
inner join report_snapshot on report_snapshot.id = report_row.snapshot_id
where report_snapshot.report_type = ? and report_row.member = ?
order by report_snapshot.log_id asc
`

type GetMemberHistoryParams struct {
	ReportType string
	Member     string
}

type GetMemberHistoryRow struct {
	LogID  string
	Rank   int64
	Credit float64
}

func (q *Queries) GetMemberHistory(ctx context.Context, arg GetMemberHistoryParams) ([]GetMemberHistoryRow, error) {
	rows, err := q.db.QueryContext(ctx, getMemberHistory, arg.ReportType, arg.Member)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetMemberHistoryRow
	for rows.Next() {
		var i GetMemberHistoryRow
		if err := rows.Scan(&i.LogID, &i.Rank, &i.Credit); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getSnapshotRows = `-- name: GetSnapshotRows :many
select snapshot_id, rank, member, credit, counted, attempts, successes from report_row
where snapshot_id = ?
order by rank asc
`

func (q *Queries) GetSnapshotRows(ctx context.Context, snapshotID int64) ([]ReportRow, error) {
	rows, err := q.db.QueryContext(ctx, getSnapshotRows, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ReportRow
	for rows.Next() {
		var i ReportRow
		if err := rows.Scan(
			&i.SnapshotID,
			&i.Rank,
			&i.Member,
			&i.Credit,
			&i.Counted,
			&i.Attempts,
			&i.Successes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
