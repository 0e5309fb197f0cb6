package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/roach88/controllog/internal/journal"
	"github.com/roach88/controllog/internal/ledger"
)

func testClock() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

// newTestSDK builds an SDK writing into a temp journal with a pinned clock.
func newTestSDK(t *testing.T, mutate func(*Config)) *SDK {
	t.Helper()

	cfg := Config{
		ProjectID: "connections_eval",
		Root:      t.TempDir(),
		Now:       testClock,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return s
}

// readLines decodes every wire line of a stream across all partitions.
func readLines(t *testing.T, s *SDK, stream journal.Stream) []map[string]any {
	t.Helper()

	paths, err := s.Journal().Partitions(stream)
	if err != nil {
		t.Fatalf("Partitions(%s) failed: %v", stream, err)
	}

	var lines []map[string]any
	for _, path := range paths {
		err := journal.Scan(path, func(line []byte) error {
			var m map[string]any
			if err := json.Unmarshal(line, &m); err != nil {
				return err
			}
			lines = append(lines, m)
			return nil
		})
		if err != nil {
			t.Fatalf("Scan(%s) failed: %v", path, err)
		}
	}
	return lines
}

func statePostings(t *testing.T) []ledger.Posting {
	t.Helper()
	give, err := ledger.NewPosting(ledger.AccountState, "task:T1", ledger.UnitTasks, -1, nil)
	if err != nil {
		t.Fatalf("NewPosting() failed: %v", err)
	}
	take, err := ledger.NewPosting(ledger.AccountState, "task:T1", ledger.UnitTasks, +1, nil)
	if err != nil {
		t.Fatalf("NewPosting() failed: %v", err)
	}
	return []ledger.Posting{give, take}
}

func TestEmit_BalancedEventAndPostings(t *testing.T) {
	s := newTestSDK(t, nil)

	ev, err := s.Emit(context.Background(), EmitParams{
		Kind:     "state_move",
		Postings: statePostings(t),
	})
	if err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	if ev.EventID.IsZero() {
		t.Error("event id not generated")
	}
	if ev.ProjectID != "connections_eval" {
		t.Errorf("project_id = %q, want configured default", ev.ProjectID)
	}
	if ev.Source != DefaultSource {
		t.Errorf("source = %q, want %q", ev.Source, DefaultSource)
	}
	if ev.IdempotencyKey != ev.EventID.String() {
		t.Errorf("idempotency_key = %q, want event id %q", ev.IdempotencyKey, ev.EventID)
	}

	events := readLines(t, s, journal.StreamEvents)
	postings := readLines(t, s, journal.StreamPostings)
	if len(events) != 1 {
		t.Fatalf("event lines = %d, want 1", len(events))
	}
	if len(postings) != 2 {
		t.Fatalf("posting lines = %d, want 2", len(postings))
	}

	// Postings carry the persisted event's id, in supplied order.
	for i, p := range postings {
		if p["event_id"] != ev.EventID.String() {
			t.Errorf("posting %d event_id = %v, want %s", i, p["event_id"], ev.EventID)
		}
	}
	if postings[0]["delta_numeric"].(float64) != -1 || postings[1]["delta_numeric"].(float64) != 1 {
		t.Errorf("posting order not preserved: %v", postings)
	}
}

func TestEmit_UnbalancedWritesNothing(t *testing.T) {
	s := newTestSDK(t, nil)

	missing, err := ledger.NewPosting(ledger.AccountState, "task:T1", ledger.UnitTasks, -1, nil)
	if err != nil {
		t.Fatalf("NewPosting() failed: %v", err)
	}

	_, err = s.Emit(context.Background(), EmitParams{
		Kind:     "state_move",
		Postings: []ledger.Posting{missing},
	})

	var balErr *ledger.BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("Emit() error = %v, want *ledger.BalanceError", err)
	}
	if balErr.AccountType != ledger.AccountState || balErr.Unit != ledger.UnitTasks {
		t.Errorf("BalanceError names %s/%s, want truth.state/tasks", balErr.AccountType, balErr.Unit)
	}

	// Nothing partially written: neither stream has any lines.
	if got := readLines(t, s, journal.StreamEvents); len(got) != 0 {
		t.Errorf("event lines = %d, want 0", len(got))
	}
	if got := readLines(t, s, journal.StreamPostings); len(got) != 0 {
		t.Errorf("posting lines = %d, want 0", len(got))
	}
}

func TestEmit_DefaultDimsOnEveryLine(t *testing.T) {
	s := newTestSDK(t, func(cfg *Config) {
		cfg.DefaultDims = ledger.Dims{"env": "ci", "kind": "should-lose"}
	})

	ev, err := s.Emit(context.Background(), EmitParams{
		Kind:     "utility",
		Postings: nil,
	})
	if err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	events := readLines(t, s, journal.StreamEvents)
	if len(events) != 1 {
		t.Fatalf("event lines = %d, want 1", len(events))
	}

	line := events[0]
	if line["env"] != "ci" {
		t.Errorf("default dim env missing from wire line: %v", line)
	}
	// Record fields win over colliding default dims.
	if line["kind"] != "utility" {
		t.Errorf("kind = %v, want record value to shadow default dim", line["kind"])
	}
	if line["event_id"] != ev.EventID.String() {
		t.Errorf("event_id = %v, want %s", line["event_id"], ev.EventID)
	}
}

func TestEmit_ExplicitFieldsWin(t *testing.T) {
	s := newTestSDK(t, nil)

	ev, err := s.Emit(context.Background(), EmitParams{
		Kind:           "utility",
		Actor:          Actor{AgentID: "a1", TaskID: "T9"},
		RunID:          "r7",
		ProjectID:      "other_project",
		Source:         "runtime",
		IdempotencyKey: "custom-key",
		Payload:        ledger.Dims{"metric": "solved"},
	})
	if err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	if ev.ProjectID != "other_project" {
		t.Errorf("project_id = %q, want other_project", ev.ProjectID)
	}
	if ev.Source != "runtime" {
		t.Errorf("source = %q, want runtime", ev.Source)
	}
	if ev.IdempotencyKey != "custom-key" {
		t.Errorf("idempotency_key = %q, want custom-key", ev.IdempotencyKey)
	}
	if ev.ActorAgentID != "a1" || ev.ActorTaskID != "T9" {
		t.Errorf("actor = %s/%s, want a1/T9", ev.ActorAgentID, ev.ActorTaskID)
	}
	if ev.RunID != "r7" {
		t.Errorf("run_id = %q, want r7", ev.RunID)
	}
	if !ev.EventTime.Equal(testClock()) {
		t.Errorf("event_time = %v, want pinned clock", ev.EventTime)
	}
}

func TestEmit_MissingKindRejected(t *testing.T) {
	s := newTestSDK(t, nil)
	if _, err := s.Emit(context.Background(), EmitParams{}); err == nil {
		t.Error("Emit() without kind should fail")
	}
}

func TestEmit_NotConfigured(t *testing.T) {
	var s *SDK
	_, err := s.Emit(context.Background(), EmitParams{Kind: "utility"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Emit() on nil SDK = %v, want ErrNotConfigured", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Root: "x"}); err == nil {
		t.Error("New() without ProjectID should fail")
	}
	if _, err := New(Config{ProjectID: "p"}); err == nil {
		t.Error("New() without Root should fail")
	}
}

func TestEmit_CanceledContext(t *testing.T) {
	s := newTestSDK(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Emit(ctx, EmitParams{Kind: "utility"}); err == nil {
		t.Error("Emit() with canceled context should fail")
	}
	if got := readLines(t, s, journal.StreamEvents); len(got) != 0 {
		t.Errorf("event lines = %d, want 0", len(got))
	}
}
