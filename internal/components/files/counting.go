package files

import (
	"sync/atomic"
	"time"
)

// Counting wraps another API and counts the calls that touch file contents.
type Counting struct {
	Inner  API
	reads  atomic.Int64
	writes atomic.Int64
}

func NewCounting(inner API) *Counting {
	return &Counting{Inner: inner}
}

// Reads is the number of ReadLines and ReadFile calls so far.
func (c *Counting) Reads() int64 {
	return c.reads.Load()
}

// Writes is the number of AppendLines, Truncate, WriteFile and Move calls so far.
func (c *Counting) Writes() int64 {
	return c.writes.Load()
}

func (c *Counting) Reset() {
	c.reads.Store(0)
	c.writes.Store(0)
}

func (c *Counting) ModTime(path string) (time.Time, error) {
	return c.Inner.ModTime(path)
}

func (c *Counting) EnsureExists(path string) error {
	return c.Inner.EnsureExists(path)
}

func (c *Counting) EnsureDir(path string) error {
	return c.Inner.EnsureDir(path)
}

func (c *Counting) ReadLines(path string) ([]string, error) {
	c.reads.Add(1)
	return c.Inner.ReadLines(path)
}

func (c *Counting) AppendLines(path string, lines []string) error {
	c.writes.Add(1)
	return c.Inner.AppendLines(path, lines)
}

func (c *Counting) Truncate(path string) error {
	c.writes.Add(1)
	return c.Inner.Truncate(path)
}

func (c *Counting) ReadFile(path string) (string, error) {
	c.reads.Add(1)
	return c.Inner.ReadFile(path)
}

func (c *Counting) WriteFile(path string, contents string) error {
	c.writes.Add(1)
	return c.Inner.WriteFile(path, contents)
}

func (c *Counting) Glob(dir, pattern string) ([]string, error) {
	return c.Inner.Glob(dir, pattern)
}

func (c *Counting) Move(src, dst string) error {
	c.writes.Add(1)
	return c.Inner.Move(src, dst)
}
