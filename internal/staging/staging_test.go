package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"primenet-sync/internal/components/files"
	"primenet-sync/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type scriptedUploader struct {
	reject map[string]bool
	calls  []string
}

func (u *scriptedUploader) UploadResults(ctx context.Context, logId string, lines []string) error {
	u.calls = append(u.calls, logId)
	if u.reject[logId] {
		return errors.New("results were not accepted")
	}
	return nil
}

func newTestPipeline(t *testing.T, uploader Uploader) (*Pipeline, *telemetry.Recorder) {
	t.Helper()
	root := t.TempDir()
	tel := &telemetry.Recorder{}
	p, err := NewPipeline(filepath.Join(root, "staging"), filepath.Join(root, "backup"), files.NewStandard(), uploader, tel)
	require.NoError(t, err)
	return p, tel
}

func TestBatchIsMaterializedLazily(t *testing.T) {
	p, _ := newTestPipeline(t, &scriptedUploader{})

	batch := p.NewBatch()
	require.NoError(t, batch.Append(nil))
	require.NoFileExists(t, batch.Path())
	require.Equal(t, filepath.Join(p.StagingDir(), batch.Name+".txt"), batch.Path())

	require.NoError(t, batch.Append([]string{"a", "b"}))
	require.NoError(t, batch.Append([]string{"c"}))
	require.Equal(t, 3, batch.Len())

	contents, err := os.ReadFile(batch.Path())
	require.NoError(t, err)
	require.Equal(t, "a\nb\nc\n", string(contents))

	require.NotEqual(t, batch.Name, p.NewBatch().Name)
}

func TestPendingInCreationOrder(t *testing.T) {
	p, _ := newTestPipeline(t, &scriptedUploader{})

	var expected []string
	for i := 0; i < 5; i++ {
		batch := p.NewBatch()
		require.NoError(t, batch.Append([]string{"r"}))
		expected = append(expected, batch.Path())
	}

	pending, err := p.Pending()
	require.NoError(t, err)
	require.Equal(t, expected, pending)
}

func TestUploadPending(t *testing.T) {
	uploader := &scriptedUploader{reject: map[string]bool{"b": true}}
	p, tel := newTestPipeline(t, uploader)

	write := func(name, contents string) {
		require.NoError(t, os.WriteFile(filepath.Join(p.StagingDir(), name), []byte(contents), 0644))
	}
	write("a.txt", "r1\nr2\n")
	write("b.txt", "r3\n")
	write("c.txt", "\n  \n")
	write("notes.md", "not a batch")

	uploaded := p.UploadPending(context.Background())
	require.Equal(t, []string{"a"}, uploaded)
	// blank batches are never submitted
	require.Equal(t, []string{"a", "b"}, uploader.calls)
	require.Equal(t, []string{"staging:pipeline.upload-batch"}, tel.Warnings)

	require.FileExists(t, filepath.Join(p.BackupDir(), "a.txt"))
	pending, err := p.Pending()
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(p.StagingDir(), "b.txt"),
		filepath.Join(p.StagingDir(), "c.txt"),
	}, pending)

	// the rejected batch is retried on the next pass
	uploader.reject = nil
	uploaded = p.UploadPending(context.Background())
	require.Equal(t, []string{"b"}, uploaded)
	require.FileExists(t, filepath.Join(p.BackupDir(), "b.txt"))
}

func TestUploadPendingStopsWhenCancelled(t *testing.T) {
	uploader := &scriptedUploader{}
	p, _ := newTestPipeline(t, uploader)
	require.NoError(t, os.WriteFile(filepath.Join(p.StagingDir(), "a.txt"), []byte("r1\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Empty(t, p.UploadPending(ctx))
	require.Empty(t, uploader.calls)
}
