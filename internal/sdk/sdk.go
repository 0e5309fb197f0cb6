package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/controllog/internal/journal"
	"github.com/roach88/controllog/internal/ledger"
)

// Actor identifies the entity and unit of work that produced an event.
// Both fields are optional weak references.
type Actor struct {
	AgentID string
	TaskID  string
}

// EmitParams are the inputs to one Emit call. Kind is required; everything
// else is optional and defaulted as documented on each field.
type EmitParams struct {
	// Kind is the event discriminator, e.g. "model_prompt" or "state_move".
	Kind string

	Actor Actor

	// RunID correlates events from one evaluation run.
	RunID string

	// Payload is kind-specific structured data. Nil becomes an empty object.
	Payload ledger.Dims

	// Postings are validated for conservation before anything is written.
	Postings []ledger.Posting

	// ProjectID defaults to the SDK's configured project.
	ProjectID string

	// Source defaults to the SDK's configured source tag.
	Source string

	// IdempotencyKey defaults to the generated event id.
	IdempotencyKey string
}

// Emit assembles, validates, and durably appends one event together with its
// postings, returning the persisted event record.
//
// On a conservation failure Emit returns a *ledger.BalanceError and writes
// nothing: no partial event, no partial postings. Storage errors after the
// event line is appended can leave postings missing; there is no rollback,
// and the loader's verify pass is the detection mechanism.
//
// Emit never retries. Callers that must not abort their primary workflow on
// telemetry failure wrap Emit in a Guard.
func (s *SDK) Emit(ctx context.Context, p EmitParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}
	if p.Kind == "" {
		return ledger.Event{}, fmt.Errorf("emit: missing kind")
	}
	if err := ctx.Err(); err != nil {
		return ledger.Event{}, fmt.Errorf("emit %s: %w", p.Kind, err)
	}

	// Validate before generating any durable state.
	if err := ledger.CheckBalance(p.Kind, p.Postings); err != nil {
		return ledger.Event{}, err
	}

	eventID := ledger.NewID()

	payload := p.Payload
	if payload == nil {
		payload = ledger.Dims{}
	}
	source := p.Source
	if source == "" {
		source = s.cfg.Source
	}
	idempotencyKey := p.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = eventID.String()
	}

	ev := ledger.Event{
		EventID:        eventID,
		EventTime:      s.now().UTC(),
		IngestTime:     s.now().UTC(),
		Kind:           p.Kind,
		ActorAgentID:   p.Actor.AgentID,
		ActorTaskID:    p.Actor.TaskID,
		ProjectID:      s.projectOr(p.ProjectID),
		RunID:          p.RunID,
		Source:         source,
		IdempotencyKey: idempotencyKey,
		Payload:        payload,
	}

	record, err := s.wireRecord(ev)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("emit %s: %w", p.Kind, err)
	}
	if err := s.journal.Append(journal.StreamEvents, record); err != nil {
		return ledger.Event{}, fmt.Errorf("emit %s: %w", p.Kind, err)
	}

	// Stamp and append postings in the supplied order. A failure here leaves
	// the event line already durable; see package doc.
	for i, posting := range p.Postings {
		posting.EventID = eventID
		record, err := s.wireRecord(posting)
		if err != nil {
			return ledger.Event{}, fmt.Errorf("emit %s: posting %d: %w", p.Kind, i, err)
		}
		if err := s.journal.Append(journal.StreamPostings, record); err != nil {
			return ledger.Event{}, fmt.Errorf("emit %s: posting %d: %w", p.Kind, i, err)
		}
	}

	return ev, nil
}

// wireRecord flattens a record to a map and overlays it on the configured
// default dims, so defaults appear as top-level keys on every line but never
// shadow record fields.
func (s *SDK) wireRecord(rec any) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("flatten record: %w", err)
	}

	out := make(map[string]any, len(s.cfg.DefaultDims)+len(fields))
	for k, v := range s.cfg.DefaultDims {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}
