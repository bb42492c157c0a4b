package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Output persists fetched pages for later inspection.
//
// note: fault injection point
type Output interface {
	// Write stores the body of one response under a correlation id and an operation tag.
	Write(logId, tag, contents string)
}

// FileName is the name a page is stored under: `{logId}.{tag}.html`.
func FileName(logId, tag string) string {
	return fmt.Sprintf("%s.%s.html", logId, tag)
}

// FilesystemOutput writes every page into a single directory. Existing pages are
// kept, the directory doubles as the source of local credit statistics.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(logId, tag, contents string) {
	path := filepath.Join(o.directory, FileName(logId, tag))
	err := os.WriteFile(path, []byte(contents), 0644)
	if err != nil {
		slog.Warn("failed to write audit page", "path", path, "err", err)
	}
}

// Discard drops every page.
type Discard struct{}

func (Discard) Write(string, string, string) {}

// Memory keeps every page in memory keyed by its file name.
type Memory struct {
	mutex sync.Mutex
	Pages map[string]string
}

func NewMemory() *Memory {
	return &Memory{Pages: map[string]string{}}
}

func (m *Memory) Write(logId, tag, contents string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Pages[FileName(logId, tag)] = contents
}

// Names returns the stored file names in sorted order.
func (m *Memory) Names() []string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	names := make([]string, 0, len(m.Pages))
	for name := range m.Pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
