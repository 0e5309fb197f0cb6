package ledger

import "fmt"

// ErrCodeUnbalanced identifies a conservation violation.
const ErrCodeUnbalanced = "UNBALANCED_POSTINGS"

// BalanceError reports a conservation violation for one (account_type, unit)
// group within a single event's postings. The event is never persisted:
// balance failures are hard, synchronous rejections of the whole emit call.
type BalanceError struct {
	// Kind is the event kind whose postings failed to balance.
	Kind string

	// AccountType and Unit identify the unbalanced group.
	AccountType string
	Unit        string

	// Net is the computed sum in the group's unit.
	Net float64
}

// Error implements the error interface.
func (e *BalanceError) Error() string {
	return fmt.Sprintf("%s: account_type=%s, unit=%s, net=%g for event kind=%s",
		ErrCodeUnbalanced, e.AccountType, e.Unit, e.Net, e.Kind)
}
