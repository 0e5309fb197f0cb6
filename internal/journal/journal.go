package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Stream names the two logical record streams.
type Stream string

const (
	// StreamEvents holds event records.
	StreamEvents Stream = "events"

	// StreamPostings holds posting records.
	StreamPostings Stream = "postings"
)

// subdir is the fixed partition root under the journal root.
const subdir = "controllog"

// Journal appends records to date-partitioned NDJSON files.
//
// Thread-safety: Append opens, writes, and closes per call; concurrent
// appends within one process interleave at line granularity via O_APPEND.
type Journal struct {
	root string
	now  func() time.Time
}

// Option configures a Journal.
type Option func(*Journal)

// WithClock overrides the clock used for partition dates. Used in tests to
// pin records to a known partition.
func WithClock(now func() time.Time) Option {
	return func(j *Journal) {
		j.now = now
	}
}

// New creates a journal rooted at the given directory. The directory itself
// is created lazily on first append.
func New(root string, opts ...Option) *Journal {
	j := &Journal{
		root: root,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Root returns the journal's root directory.
func (j *Journal) Root() string {
	return j.root
}

// partitionDir returns (creating if needed) the partition directory for the
// current UTC date.
func (j *Journal) partitionDir() (string, error) {
	date := j.now().UTC().Format("2006-01-02")
	dir := filepath.Join(j.root, subdir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}
	return dir, nil
}

// Append serializes record as one JSON line and appends it to the stream's
// file in the current date partition.
//
// The line is written with a single Write call on an O_APPEND descriptor.
// There is no internal retry: a failed append surfaces to the caller, who is
// expected to treat ledger failures as non-fatal to the primary workflow.
func (j *Journal) Append(stream Stream, record any) error {
	line, err := Encode(record)
	if err != nil {
		return fmt.Errorf("append %s: %w", stream, err)
	}

	dir, err := j.partitionDir()
	if err != nil {
		return fmt.Errorf("append %s: %w", stream, err)
	}

	path := filepath.Join(dir, string(stream)+".jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append %s: open %s: %w", stream, path, err)
	}

	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append %s: write %s: %w", stream, path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("append %s: close %s: %w", stream, path, err)
	}

	return nil
}

// Partitions returns the paths of all partition files for a stream, sorted
// lexically. Date-named directories make lexical order chronological.
// Returns an empty slice if the journal has no partitions yet.
func (j *Journal) Partitions(stream Stream) ([]string, error) {
	pattern := filepath.Join(j.root, subdir, "*", string(stream)+".jsonl")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("discover %s partitions: %w", stream, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// maxLine bounds a single journal line. Payloads carry full request and
// response texts, so the default bufio limit is too small.
const maxLine = 16 * 1024 * 1024

// Scan reads a partition file line by line, invoking fn for each non-empty
// line. Scanning stops at the first error from fn.
func Scan(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("scan %s:%d: %w", path, lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	return nil
}
