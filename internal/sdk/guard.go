package sdk

import "go.uber.org/zap"

// Guard makes the "log-and-continue" caller policy explicit: ledger failures
// must not abort the primary workflow, but they are logged, never silently
// swallowed.
type Guard struct {
	log *zap.Logger
}

// NewGuard creates a guard logging through the given logger. A nil logger
// degrades to zap's nop logger.
func NewGuard(log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{log: log}
}

// Do runs fn, which should wrap a single emit call. On failure the error is
// logged at Warn with the operation name and execution continues; the caller
// deliberately loses telemetry for this step rather than its primary task.
func (g *Guard) Do(op string, fn func() error) {
	if err := fn(); err != nil {
		g.log.Warn("controllog emit failed, continuing",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
