package db

type ReportRow struct {
	SnapshotID int64
	Rank       int64
	Member     string
	Credit     float64
	Counted    bool
	Attempts   int64
	Successes  int64
}

type ReportSnapshot struct {
	ID         int64
	LogID      string
	ReportType string
	FetchedAt  int64
}
