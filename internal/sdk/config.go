package sdk

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/controllog/internal/journal"
	"github.com/roach88/controllog/internal/ledger"
)

// ErrNotConfigured is returned when an emit is attempted on a nil or
// zero-value SDK. Construction must go through New.
var ErrNotConfigured = errors.New("controllog: sdk not configured (call sdk.New first)")

// DefaultSource is the provenance tag stamped on events whose emit call does
// not supply one.
const DefaultSource = "sdk"

// Config holds the write-path configuration. It is read-only after New:
// concurrent Emit calls read it without locking.
type Config struct {
	// ProjectID is the logical namespace for events emitted without an
	// explicit project. Required.
	ProjectID string

	// Root is the base directory for the journal's date partitions.
	// Required.
	Root string

	// DefaultDims are merged into the top level of every event and posting
	// wire record. Record fields win on key collision.
	DefaultDims ledger.Dims

	// Source overrides DefaultSource for events that don't set their own.
	Source string

	// Logger receives diagnostics from the best-effort guard. Nil means
	// no logging.
	Logger *zap.Logger

	// Now overrides the clock. Used in tests.
	Now func() time.Time
}

// SDK is the event writer. Safe for concurrent use by multiple goroutines:
// all mutable state lives in the filesystem.
type SDK struct {
	cfg     Config
	journal *journal.Journal
	log     *zap.Logger
	now     func() time.Time
}

// New validates cfg and returns an SDK writing to a journal under cfg.Root.
func New(cfg Config) (*SDK, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("sdk: config missing ProjectID")
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("sdk: config missing Root")
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.DefaultDims == nil {
		cfg.DefaultDims = ledger.Dims{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &SDK{
		cfg:     cfg,
		journal: journal.New(cfg.Root, journal.WithClock(now)),
		log:     log,
		now:     now,
	}, nil
}

// Journal exposes the underlying journal, mainly for the loader and tests.
func (s *SDK) Journal() *journal.Journal {
	return s.journal
}

// projectOr returns the explicit project id or the configured default.
func (s *SDK) projectOr(projectID string) string {
	if projectID != "" {
		return projectID
	}
	return s.cfg.ProjectID
}
