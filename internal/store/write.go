package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/controllog/internal/ledger"
)

// nullable maps empty optional strings to SQL NULL, preserving the wire
// schema's string|null fields.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertEvent inserts an event row, returning whether a new row was written.
//
// Uses ON CONFLICT DO NOTHING for idempotency: a row whose event_id (primary
// key) or idempotency_key (business key, UNIQUE) already exists is silently
// skipped. Skips are the loader's normal dedup path, not errors.
func (s *Store) InsertEvent(ctx context.Context, ev ledger.Event) (bool, error) {
	payloadJSON, err := json.Marshal(ev.Payload)
	if err != nil {
		return false, fmt.Errorf("insert event: marshal payload: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO events
		(event_id, event_time, ingest_time, kind, actor_agent_id, actor_task_id,
		 project_id, run_id, source, idempotency_key, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		ev.EventID.String(),
		ev.EventTime.UTC().Format(time.RFC3339Nano),
		ev.IngestTime.UTC().Format(time.RFC3339Nano),
		ev.Kind,
		nullable(ev.ActorAgentID),
		nullable(ev.ActorTaskID),
		ev.ProjectID,
		nullable(ev.RunID),
		ev.Source,
		ev.IdempotencyKey,
		string(payloadJSON),
	)
	if err != nil {
		return false, fmt.Errorf("insert event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert event: rows affected: %w", err)
	}
	return rows > 0, nil
}

// InsertPosting inserts a posting row, returning whether a new row was
// written. Duplicate posting_ids are silently skipped.
func (s *Store) InsertPosting(ctx context.Context, p ledger.Posting) (bool, error) {
	dimsJSON, err := json.Marshal(p.Dims)
	if err != nil {
		return false, fmt.Errorf("insert posting: marshal dims: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO postings
		(posting_id, event_id, account_type, account_id, unit, delta_numeric, dims_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(posting_id) DO NOTHING
	`,
		p.PostingID.String(),
		p.EventID.String(),
		p.AccountType,
		p.AccountID,
		p.Unit,
		p.Delta,
		string(dimsJSON),
	)
	if err != nil {
		return false, fmt.Errorf("insert posting: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert posting: rows affected: %w", err)
	}
	return rows > 0, nil
}
