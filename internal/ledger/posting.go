package ledger

import (
	"fmt"
	"math"
)

// NewPosting builds a single posting value. Pure: no I/O, no global state.
//
// A fresh posting id is generated; EventID is left unset and stamped later
// by the event writer. Nil dims become an empty map so the wire record always
// carries a JSON object.
//
// NaN and infinite deltas are rejected: a non-finite delta can never balance
// and would poison downstream sums silently.
func NewPosting(accountType, accountID, unit string, delta float64, dims Dims) (Posting, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return Posting{}, fmt.Errorf("new posting: non-finite delta %v for account_type=%s account_id=%s", delta, accountType, accountID)
	}
	if dims == nil {
		dims = Dims{}
	}
	return Posting{
		PostingID:   NewID(),
		AccountType: accountType,
		AccountID:   accountID,
		Unit:        unit,
		Delta:       delta,
		Dims:        dims,
	}, nil
}
