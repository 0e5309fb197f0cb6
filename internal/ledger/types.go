package ledger

import "time"

// Account type families. Types under "resource." plus AccountUtility and
// AccountState are conserved: their postings must net to zero per event.
// Other namespaces are informational and exempt from balance checks.
const (
	AccountTokens  = "resource.tokens"
	AccountMoney   = "resource.money"
	AccountTimeMS  = "resource.time_ms"
	AccountState   = "truth.state"
	AccountUtility = "value.utility"
)

// Units used by the built-in account families.
const (
	UnitTokens = "+tokens"
	UnitMoney  = "$"
	UnitMS     = "ms"
	UnitTasks  = "tasks"
	UnitPoints = "points"
)

// Dims is a schema-less key-value map used for event payloads and posting
// dimension tags. Per-kind payload shapes are documented but not statically
// enforced.
type Dims map[string]any

// Merge returns a new Dims with overlay applied on top of d.
// Neither input is mutated. Returns non-nil even for empty inputs.
func (d Dims) Merge(overlay Dims) Dims {
	out := make(Dims, len(d)+len(overlay))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Event is an immutable record of something that happened. Once written it
// is never mutated or deleted; the bulk loader treats duplicate lines as
// no-ops rather than updates.
type Event struct {
	EventID    ID        `json:"event_id"`
	EventTime  time.Time `json:"event_time"`
	IngestTime time.Time `json:"ingest_time"`
	Kind       string    `json:"kind"`

	// Weak references to the producing entity and unit of work. No
	// ownership, no cascading delete.
	ActorAgentID string `json:"actor_agent_id,omitempty"`
	ActorTaskID  string `json:"actor_task_id,omitempty"`

	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id,omitempty"`
	Source    string `json:"source"`

	// IdempotencyKey defaults to the event id, so undecorated events are
	// never considered duplicates of each other except by identical id.
	IdempotencyKey string `json:"idempotency_key"`

	Payload Dims `json:"payload_json"`
}

// Posting is one line in the double-entry ledger, created in the context of
// exactly one event. Positive Delta means the account gained, negative means
// it lost.
type Posting struct {
	PostingID ID `json:"posting_id"`

	// EventID is empty at construction and stamped by the event writer.
	EventID ID `json:"event_id"`

	AccountType string  `json:"account_type"`
	AccountID   string  `json:"account_id"`
	Unit        string  `json:"unit"`
	Delta       float64 `json:"delta_numeric"`
	Dims        Dims    `json:"dims_json"`
}
