package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fixedClock pins the partition date for deterministic paths.
func fixedClock() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestAppend_CreatesDatePartition(t *testing.T) {
	root := t.TempDir()
	j := New(root, WithClock(fixedClock))

	err := j.Append(StreamEvents, map[string]any{"kind": "utility"})
	if err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	path := filepath.Join(root, "controllog", "2025-01-02", "events.jsonl")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("partition file missing: %v", err)
	}
}

func TestAppend_OneLinePerRecord(t *testing.T) {
	root := t.TempDir()
	j := New(root, WithClock(fixedClock))

	for i := 0; i < 3; i++ {
		if err := j.Append(StreamPostings, map[string]any{"unit": "tasks", "delta_numeric": i}); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	b, err := os.ReadFile(filepath.Join(root, "controllog", "2025-01-02", "postings.jsonl"))
	if err != nil {
		t.Fatalf("read partition: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	for i, line := range lines {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestPartitions_SortedAcrossDates(t *testing.T) {
	root := t.TempDir()

	day1 := New(root, WithClock(func() time.Time {
		return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	}))
	day2 := New(root, WithClock(func() time.Time {
		return time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	}))

	// Write day 2 first; discovery order must still be chronological.
	if err := day2.Append(StreamEvents, map[string]any{"kind": "b"}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := day1.Append(StreamEvents, map[string]any{"kind": "a"}); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	paths, err := day1.Partitions(StreamEvents)
	if err != nil {
		t.Fatalf("Partitions() failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("partitions = %d, want 2", len(paths))
	}
	if !strings.Contains(paths[0], "2025-01-01") || !strings.Contains(paths[1], "2025-01-02") {
		t.Errorf("partitions out of order: %v", paths)
	}
}

func TestPartitions_EmptyJournal(t *testing.T) {
	j := New(t.TempDir())
	paths, err := j.Partitions(StreamEvents)
	if err != nil {
		t.Fatalf("Partitions() failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("partitions = %v, want none", paths)
	}
}

func TestScan_RoundTrip(t *testing.T) {
	root := t.TempDir()
	j := New(root, WithClock(fixedClock))

	want := []string{"model_prompt", "model_completion", "state_move"}
	for _, kind := range want {
		if err := j.Append(StreamEvents, map[string]any{"kind": kind}); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	paths, err := j.Partitions(StreamEvents)
	if err != nil || len(paths) != 1 {
		t.Fatalf("Partitions() = %v, %v", paths, err)
	}

	var got []string
	err = Scan(paths[0], func(line []byte) error {
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			return err
		}
		got = append(got, m["kind"].(string))
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("scanned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], want[i])
		}
	}
}
