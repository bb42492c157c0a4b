package staging

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"primenet-sync/internal/components/files"
	"primenet-sync/internal/components/telemetry"

	"github.com/google/uuid"
)

const batchExt = ".txt"

const (
	report_pipeline_read_batch = "pipeline.read-batch"
	report_pipeline_list       = "pipeline.list-batches"
	report_pipeline_backup     = "pipeline.backup-batch"
	report_pipeline_upload     = "pipeline.upload-batch"
)

// Uploader submits the result lines of one batch, logId correlates the pages
// fetched while doing so.
type Uploader interface {
	UploadResults(ctx context.Context, logId string, lines []string) error
}

// Pipeline moves harvested result lines through the staging directory and into
// the backup directory once they are uploaded.
type Pipeline struct {
	stagingDir string
	backupDir  string
	files      files.API
	uploader   Uploader
	tel        telemetry.API
}

func NewPipeline(stagingDir, backupDir string, fs files.API, uploader Uploader, tel telemetry.API) (*Pipeline, error) {
	for _, dir := range []string{stagingDir, backupDir} {
		err := fs.EnsureDir(dir)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Pipeline{
		stagingDir: stagingDir,
		backupDir:  backupDir,
		files:      fs,
		uploader:   uploader,
		tel:        telemetry.NewScopedAPI("staging", tel),
	}, nil
}

func (p *Pipeline) StagingDir() string {
	return p.stagingDir
}

func (p *Pipeline) BackupDir() string {
	return p.backupDir
}

// Batch collects the result lines of one reconciliation pass. Its file only
// exists once something has been appended.
type Batch struct {
	Name  string
	path  string
	files files.API
	count int
}

// NewBatch names a new batch, nothing is written until lines are appended.
// Names are version 7 uuids so they sort in creation order.
func (p *Pipeline) NewBatch() *Batch {
	name := uuid.Must(uuid.NewV7()).String()
	return &Batch{
		Name:  name,
		path:  filepath.Join(p.stagingDir, name+batchExt),
		files: p.files,
	}
}

func (b *Batch) Path() string {
	return b.path
}

// Len is the number of lines appended to the batch.
func (b *Batch) Len() int {
	return b.count
}

func (b *Batch) Append(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	err := b.files.AppendLines(b.path, lines)
	if err != nil {
		return err
	}
	b.count += len(lines)
	return nil
}

// Pending lists the paths of every batch waiting in staging, oldest first.
func (p *Pipeline) Pending() ([]string, error) {
	return p.files.Glob(p.stagingDir, "*"+batchExt)
}

// UploadPending uploads every non-empty batch in staging. Uploaded batches are
// moved to backup, batches that fail stay in staging for the next pass. It
// returns the names of the batches that were uploaded.
func (p *Pipeline) UploadPending(ctx context.Context) []string {
	paths, err := p.Pending()
	if err != nil {
		p.tel.ReportBroken(report_pipeline_list, err, p.stagingDir)
		return nil
	}

	var uploaded []string
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		lines, err := p.files.ReadLines(path)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_read_batch, err, path)
			continue
		}
		lines = files.NonBlank(lines)
		if len(lines) == 0 {
			continue
		}

		base := filepath.Base(path)
		name := strings.TrimSuffix(base, batchExt)
		err = p.uploader.UploadResults(ctx, name, lines)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_upload, err, name)
			continue
		}

		err = p.files.Move(path, filepath.Join(p.backupDir, base))
		if err != nil {
			p.tel.ReportBroken(report_pipeline_backup, err, name)
			continue
		}
		slog.Info("uploaded batch", "batch", name, "lines", len(lines))
		uploaded = append(uploaded, name)
	}
	return uploaded
}
