package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "weblogs")

	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.Equal(t, dir, out.Directory())

	out.Write("2024-01-02-03", "report", "<html>one</html>")
	out.Write("abc", "upload", "CPU credit is 1 GHz-days.")

	contents, err := os.ReadFile(filepath.Join(dir, "2024-01-02-03.report.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>one</html>", string(contents))

	contents, err = os.ReadFile(filepath.Join(dir, "abc.upload.html"))
	require.NoError(t, err)
	require.Equal(t, "CPU credit is 1 GHz-days.", string(contents))

	// reopening must keep existing pages
	_, err = NewFilesystemOutput(dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "abc.upload.html"))
	require.NoError(t, err)
}
