package store

import (
	"context"
	"fmt"
)

// CountEvents returns the number of event rows.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	return s.scalar(ctx, "SELECT COUNT(*) FROM events")
}

// CountPostings returns the number of posting rows.
func (s *Store) CountPostings(ctx context.Context) (int64, error) {
	return s.scalar(ctx, "SELECT COUNT(*) FROM postings")
}

// CountDistinctEventKeys returns the number of distinct business keys.
// Equal to CountEvents when the store holds no duplicates.
func (s *Store) CountDistinctEventKeys(ctx context.Context) (int64, error) {
	return s.scalar(ctx, "SELECT COUNT(DISTINCT COALESCE(idempotency_key, event_id)) FROM events")
}

// CountOrphanPostings returns the number of postings whose event is absent.
// Orphans arise from the documented gap between the event append and the
// posting appends, or from a load failure between the two streams.
func (s *Store) CountOrphanPostings(ctx context.Context) (int64, error) {
	return s.scalar(ctx, `
		SELECT COUNT(*)
		FROM postings p
		LEFT JOIN events e ON p.event_id = e.event_id
		WHERE e.event_id IS NULL
	`)
}

func (s *Store) scalar(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("scalar query: %w", err)
	}
	return n, nil
}

// KindCount is one row of the per-kind event breakdown.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int64  `json:"count"`
}

// EventsByKind returns event counts grouped by kind, most frequent first.
func (s *Store) EventsByKind(ctx context.Context) ([]KindCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) AS n
		FROM events
		GROUP BY kind
		ORDER BY n DESC, kind ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("events by kind: %w", err)
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("events by kind: scan: %w", err)
		}
		out = append(out, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events by kind: iterate: %w", err)
	}

	if out == nil {
		out = []KindCount{}
	}
	return out, nil
}

// AccountNet is the net delta accumulated by one (account_type, unit) pair
// across the whole store. Conserved families net to zero when every event
// balanced and no postings were lost.
type AccountNet struct {
	AccountType string  `json:"account_type"`
	Unit        string  `json:"unit"`
	Net         float64 `json:"net"`
}

// NetByAccountType returns per-(account_type, unit) sums over all postings.
func (s *Store) NetByAccountType(ctx context.Context) ([]AccountNet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_type, unit, SUM(delta_numeric)
		FROM postings
		GROUP BY account_type, unit
		ORDER BY account_type ASC, unit ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("net by account type: %w", err)
	}
	defer rows.Close()

	var out []AccountNet
	for rows.Next() {
		var an AccountNet
		if err := rows.Scan(&an.AccountType, &an.Unit, &an.Net); err != nil {
			return nil, fmt.Errorf("net by account type: scan: %w", err)
		}
		out = append(out, an)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("net by account type: iterate: %w", err)
	}

	if out == nil {
		out = []AccountNet{}
	}
	return out, nil
}
