package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// API is the interface that anything reading or writing worker, staging or
// log files should use.
//
// note: fault injection point
type API interface {
	// ModTime returns the last modification time of the file at path.
	ModTime(path string) (time.Time, error)
	// EnsureExists creates an empty file at path if nothing exists there yet.
	EnsureExists(path string) error
	// ReadLines returns every line of the file, without line terminators.
	ReadLines(path string) ([]string, error)
	// AppendLines appends each line followed by a newline, creating the file if needed.
	AppendLines(path string, lines []string) error
	// Truncate empties the file at path.
	Truncate(path string) error
	// ReadFile returns the whole contents of the file.
	ReadFile(path string) (string, error)
	// WriteFile replaces the whole contents of the file.
	WriteFile(path string, contents string) error
	// Glob lists the files in dir matching pattern, sorted by name.
	Glob(dir, pattern string) ([]string, error)
	// Move relocates src to dst, replacing dst.
	Move(src, dst string) error
	// EnsureDir creates the directory at path and any missing parents.
	EnsureDir(path string) error
}

// Standard implements API on top of the os package.
type Standard struct{}

func NewStandard() Standard {
	return Standard{}
}

func (Standard) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}

func (Standard) EnsureExists(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func (Standard) ReadLines(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(string(contents)), nil
}

func (Standard) AppendLines(path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err = f.WriteString(b.String())
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (Standard) Truncate(path string) error {
	return os.WriteFile(path, nil, 0644)
}

func (Standard) ReadFile(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(contents), nil
}

func (Standard) WriteFile(path string, contents string) error {
	return os.WriteFile(path, []byte(contents), 0644)
}

func (Standard) Glob(dir, pattern string) ([]string, error) {
	// filepath.Glob returns matches in lexical order
	return filepath.Glob(filepath.Join(dir, pattern))
}

func (Standard) Move(src, dst string) error {
	return os.Rename(src, dst)
}

func (Standard) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// SplitLines splits text on line feeds, dropping a trailing carriage return from
// each line and the empty remainder after a final newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// NonBlank returns the lines that contain something other than whitespace.
func NonBlank(lines []string) []string {
	var out []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
