package sdk

import (
	"context"
	"fmt"

	"github.com/roach88/controllog/internal/ledger"
)

// SourceRuntime tags events emitted by the runtime-facing builders, as
// opposed to direct Emit calls which default to "sdk".
const SourceRuntime = "runtime"

// StateTransition describes a task state-machine move recorded alongside a
// model response.
type StateTransition struct {
	From string
	To   string
}

// pair appends a balanced two-posting transfer: amount leaves fromID and
// arrives at toID, both under the same account type and unit. Each posting
// gets its own copy of dims.
func pair(ps []ledger.Posting, accountType, fromID, toID, unit string, amount float64, dims ledger.Dims) ([]ledger.Posting, error) {
	debit, err := ledger.NewPosting(accountType, fromID, unit, -amount, dims.Merge(nil))
	if err != nil {
		return nil, err
	}
	credit, err := ledger.NewPosting(accountType, toID, unit, +amount, dims.Merge(nil))
	if err != nil {
		return nil, err
	}
	return append(ps, debit, credit), nil
}

// ModelPromptParams are the inputs to ModelPrompt.
type ModelPromptParams struct {
	TaskID    string
	AgentID   string
	RunID     string
	ProjectID string

	Provider     string
	Model        string
	PromptTokens int

	// RequestText, when non-empty, is carried verbatim in the payload.
	RequestText string

	// Payload entries are merged over the builder's base payload.
	Payload ledger.Dims

	// ExchangeID correlates this prompt with its completion. Generated when
	// empty.
	ExchangeID string
}

// ModelPrompt emits a "model_prompt" event whose prompt tokens flow from the
// provider account to the project account, tagged phase=prompt. The
// idempotency key is "<exchange_id>:prompt" so a retried prompt for the same
// exchange deduplicates on load.
func (s *SDK) ModelPrompt(ctx context.Context, p ModelPromptParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}

	project := s.projectOr(p.ProjectID)
	exchangeID := p.ExchangeID
	if exchangeID == "" {
		exchangeID = ledger.NewID().String()
	}

	dims := ledger.Dims{"model": p.Model, "phase": "prompt"}
	postings, err := pair(nil, ledger.AccountTokens,
		"provider:"+p.Provider, "project:"+project,
		ledger.UnitTokens, float64(p.PromptTokens), dims)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_prompt: %w", err)
	}

	payload := ledger.Dims{
		"provider":      p.Provider,
		"model":         p.Model,
		"prompt_tokens": p.PromptTokens,
		"phase":         "prompt",
	}
	if p.RequestText != "" {
		payload["request_text"] = p.RequestText
	}
	payload = payload.Merge(p.Payload)
	payload["exchange_id"] = exchangeID

	return s.Emit(ctx, EmitParams{
		Kind:           "model_prompt",
		Actor:          Actor{AgentID: p.AgentID, TaskID: p.TaskID},
		RunID:          p.RunID,
		Payload:        payload,
		Postings:       postings,
		ProjectID:      project,
		Source:         SourceRuntime,
		IdempotencyKey: exchangeID + ":prompt",
	})
}

// ModelCompletionParams are the inputs to ModelCompletion.
type ModelCompletionParams struct {
	TaskID    string
	AgentID   string
	RunID     string
	ProjectID string

	Provider         string
	Model            string
	CompletionTokens int
	WallMS           int64

	ResponseText string

	// CostMoney and UpstreamCostMoney, when non-nil, each add an independent
	// balanced money pair (billing vendor and upstream vendor respectively).
	CostMoney         *float64
	UpstreamCostMoney *float64

	Payload    ledger.Dims
	ExchangeID string
}

// ModelCompletion emits a "model_completion" event: completion tokens flow
// provider→project tagged phase=completion, wall-clock milliseconds flow
// agent→project, and optional cost pairs flow vendor→project. The idempotency
// key is "<exchange_id>:completion".
func (s *SDK) ModelCompletion(ctx context.Context, p ModelCompletionParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}

	project := s.projectOr(p.ProjectID)
	exchangeID := p.ExchangeID
	if exchangeID == "" {
		exchangeID = ledger.NewID().String()
	}

	modelDims := ledger.Dims{"model": p.Model, "phase": "completion"}
	postings, err := pair(nil, ledger.AccountTokens,
		"provider:"+p.Provider, "project:"+project,
		ledger.UnitTokens, float64(p.CompletionTokens), modelDims)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_completion: %w", err)
	}
	postings, err = pair(postings, ledger.AccountTimeMS,
		"agent:"+p.AgentID, "project:"+project,
		ledger.UnitMS, float64(p.WallMS), ledger.Dims{"kind": "wall"})
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_completion: %w", err)
	}
	postings, err = s.moneyPairs(postings, project, p.Model, p.CostMoney, p.UpstreamCostMoney)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_completion: %w", err)
	}

	payload := ledger.Dims{
		"provider":          p.Provider,
		"model":             p.Model,
		"completion_tokens": p.CompletionTokens,
		"wall_ms":           p.WallMS,
		"phase":             "completion",
	}
	if p.ResponseText != "" {
		payload["response_text"] = p.ResponseText
	}
	payload = payload.Merge(p.Payload)
	payload["exchange_id"] = exchangeID

	return s.Emit(ctx, EmitParams{
		Kind:           "model_completion",
		Actor:          Actor{AgentID: p.AgentID, TaskID: p.TaskID},
		RunID:          p.RunID,
		Payload:        payload,
		Postings:       postings,
		ProjectID:      project,
		Source:         SourceRuntime,
		IdempotencyKey: exchangeID + ":completion",
	})
}

// moneyPairs adds the optional billing-vendor and upstream-vendor cost pairs.
func (s *SDK) moneyPairs(ps []ledger.Posting, project, model string, cost, upstreamCost *float64) ([]ledger.Posting, error) {
	var err error
	if cost != nil {
		ps, err = pair(ps, ledger.AccountMoney,
			"vendor:openrouter", "project:"+project,
			ledger.UnitMoney, *cost, ledger.Dims{"model": model})
		if err != nil {
			return nil, err
		}
	}
	if upstreamCost != nil {
		ps, err = pair(ps, ledger.AccountMoney,
			"vendor:upstream", "project:"+project,
			ledger.UnitMoney, *upstreamCost, ledger.Dims{"model": model})
		if err != nil {
			return nil, err
		}
	}
	return ps, nil
}

// ModelResponseParams are the inputs to ModelResponse, the combined
// prompt+completion builder for callers that record one event per exchange.
type ModelResponseParams struct {
	TaskID    string
	AgentID   string
	RunID     string
	ProjectID string

	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	WallMS           int64

	// Reward, when non-nil, adds a value.utility pair (task gains, project
	// funds) tagged metric=reward.
	Reward *float64

	CostMoney         *float64
	UpstreamCostMoney *float64

	// StateTransition, when non-nil, records the task's state-machine move
	// as a conserved truth.state handoff.
	StateTransition *StateTransition

	RequestText  string
	ResponseText string
	Payload      ledger.Dims
}

// ModelResponse emits a single "model_response" event covering a whole
// exchange: total tokens (prompt+completion) provider→project, wall-clock
// milliseconds agent→project, and the optional reward, state, and cost pairs.
func (s *SDK) ModelResponse(ctx context.Context, p ModelResponseParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}

	project := s.projectOr(p.ProjectID)
	totalTokens := p.PromptTokens + p.CompletionTokens

	postings, err := pair(nil, ledger.AccountTokens,
		"provider:"+p.Provider, "project:"+project,
		ledger.UnitTokens, float64(totalTokens), ledger.Dims{"model": p.Model})
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_response: %w", err)
	}
	postings, err = pair(postings, ledger.AccountTimeMS,
		"agent:"+p.AgentID, "project:"+project,
		ledger.UnitMS, float64(p.WallMS), ledger.Dims{"kind": "wall"})
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_response: %w", err)
	}

	if p.StateTransition != nil {
		from, to := statePair("task:"+p.TaskID, p.StateTransition.From, p.StateTransition.To)
		postings = append(postings, from, to)
	}

	if p.Reward != nil {
		postings, err = pair(postings, ledger.AccountUtility,
			"project:"+project, "task:"+p.TaskID,
			ledger.UnitPoints, *p.Reward, ledger.Dims{"metric": "reward"})
		if err != nil {
			return ledger.Event{}, fmt.Errorf("model_response: %w", err)
		}
	}

	postings, err = s.moneyPairs(postings, project, p.Model, p.CostMoney, p.UpstreamCostMoney)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("model_response: %w", err)
	}

	payload := ledger.Dims{
		"provider":          p.Provider,
		"model":             p.Model,
		"prompt_tokens":     p.PromptTokens,
		"completion_tokens": p.CompletionTokens,
		"wall_ms":           p.WallMS,
	}
	if p.RequestText != "" {
		payload["request_text"] = p.RequestText
	}
	if p.ResponseText != "" {
		payload["response_text"] = p.ResponseText
	}
	payload = payload.Merge(p.Payload)

	return s.Emit(ctx, EmitParams{
		Kind:      "model_response",
		Actor:     Actor{AgentID: p.AgentID, TaskID: p.TaskID},
		RunID:     p.RunID,
		Payload:   payload,
		Postings:  postings,
		ProjectID: project,
		Source:    SourceRuntime,
	})
}

// statePair builds the two truth.state postings for one transition: the task
// account gives up one unit of state-occupancy tagged with the old state and
// receives one tagged with the new state, so the account always holds exactly
// one unit.
func statePair(taskAccount, from, to string) (ledger.Posting, ledger.Posting) {
	// Deltas of ±1 are always finite, so NewPosting cannot fail here.
	give, _ := ledger.NewPosting(ledger.AccountState, taskAccount, ledger.UnitTasks, -1, ledger.Dims{"from": from})
	take, _ := ledger.NewPosting(ledger.AccountState, taskAccount, ledger.UnitTasks, +1, ledger.Dims{"to": to})
	return give, take
}

// StateMoveParams are the inputs to StateMove.
type StateMoveParams struct {
	TaskID    string
	From      string
	To        string
	ProjectID string
	AgentID   string
	RunID     string
	Payload   ledger.Dims
}

// StateMove emits a "state_move" event modeling a task's state-machine
// transition as a conserved resource handoff on the task account.
func (s *SDK) StateMove(ctx context.Context, p StateMoveParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}

	give, take := statePair("task:"+p.TaskID, p.From, p.To)

	payload := p.Payload
	if payload == nil {
		payload = ledger.Dims{"reason": nil}
	}

	return s.Emit(ctx, EmitParams{
		Kind:      "state_move",
		Actor:     Actor{AgentID: p.AgentID, TaskID: p.TaskID},
		RunID:     p.RunID,
		Payload:   payload,
		Postings:  []ledger.Posting{give, take},
		ProjectID: s.projectOr(p.ProjectID),
		Source:    SourceRuntime,
	})
}

// UtilityParams are the inputs to Utility.
type UtilityParams struct {
	TaskID    string
	ProjectID string
	Metric    string
	Value     float64
	AgentID   string
	RunID     string
	Payload   ledger.Dims
}

// Utility emits a "utility" event crediting value points to the task account,
// funded by the project account, tagged with the metric name.
func (s *SDK) Utility(ctx context.Context, p UtilityParams) (ledger.Event, error) {
	if s == nil || s.journal == nil {
		return ledger.Event{}, ErrNotConfigured
	}

	project := s.projectOr(p.ProjectID)

	postings, err := pair(nil, ledger.AccountUtility,
		"project:"+project, "task:"+p.TaskID,
		ledger.UnitPoints, p.Value, ledger.Dims{"metric": p.Metric})
	if err != nil {
		return ledger.Event{}, fmt.Errorf("utility: %w", err)
	}

	payload := p.Payload
	if payload == nil {
		payload = ledger.Dims{"metric": p.Metric, "value": p.Value}
	}

	return s.Emit(ctx, EmitParams{
		Kind:      "utility",
		Actor:     Actor{AgentID: p.AgentID, TaskID: p.TaskID},
		RunID:     p.RunID,
		Payload:   payload,
		Postings:  postings,
		ProjectID: project,
		Source:    SourceRuntime,
	})
}
