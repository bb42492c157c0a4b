package stats

import (
	"context"

	"primenet-sync/internal/components/chrono"
	"primenet-sync/internal/components/files"
	"primenet-sync/internal/scrapers/primenet"
)

// UploadPagePattern matches the archived upload confirmation pages.
const UploadPagePattern = "*.upload.html"

// LocalSource reads the credit out of the archived upload confirmation pages,
// each page is dated by its modification time.
type LocalSource struct {
	Dir   string
	Files files.API
}

func (s LocalSource) Entries(ctx context.Context) ([]Entry, error) {
	paths, err := s.Files.Glob(s.Dir, UploadPagePattern)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		mtime, err := s.Files.ModTime(path)
		if err != nil {
			return nil, err
		}
		contents, err := s.Files.ReadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Credit: primenet.ExtractCreditTotal(contents),
			Time:   mtime,
		})
	}
	return entries, nil
}

// ResultsFetcher downloads the account's results listing.
type ResultsFetcher interface {
	FetchResults(ctx context.Context, logId string, q primenet.ResultsQuery) ([]primenet.ResultRow, error)
}

// RemoteSource reads the credit of the most recent rows of the results listing.
// Rows are dated by their received time, or by their age when that is missing.
type RemoteSource struct {
	Fetcher ResultsFetcher
	Time    chrono.TimeAPI
	// ResultType keeps only rows of this type, empty keeps every row.
	ResultType string
	Limit      int
}

func (s RemoteSource) Entries(ctx context.Context) ([]Entry, error) {
	now := s.Time.Now()
	rows, err := s.Fetcher.FetchResults(
		ctx,
		now.Format("2006-01-02-15-04"),
		primenet.ResultsQuery{Limit: s.Limit},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		if s.ResultType != "" && row.ResultType != s.ResultType {
			continue
		}
		earned := row.Received
		if earned.IsZero() {
			earned = now.Add(-row.Age)
		}
		entries = append(entries, Entry{Credit: row.Credit, Time: earned})
	}
	return entries, nil
}
