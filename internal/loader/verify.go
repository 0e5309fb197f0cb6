package loader

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/controllog/internal/ledger"
	"github.com/roach88/controllog/internal/store"
)

// Report is the result of the read-only integrity pass over a merged store.
type Report struct {
	Events         int64 `json:"events"`
	Postings       int64 `json:"postings"`
	OrphanPostings int64 `json:"orphan_postings"`

	// DuplicateEventKeys is events minus distinct business keys; nonzero
	// means rows slipped past insert-time dedup (e.g. loaded before the
	// unique index existed).
	DuplicateEventKeys int64 `json:"duplicate_event_keys"`

	// UnbalancedAccounts lists conserved (account_type, unit) pairs whose
	// store-wide net is nonzero: the signature of lost postings, since every
	// event balanced at write time.
	UnbalancedAccounts []store.AccountNet `json:"unbalanced_accounts"`
}

// Clean reports whether the store shows no integrity findings.
func (r Report) Clean() bool {
	return r.OrphanPostings == 0 && r.DuplicateEventKeys == 0 && len(r.UnbalancedAccounts) == 0
}

// Verify runs the integrity pass. It detects the gaps the write path accepts
// (orphaned postings, store-wide imbalance from lost lines) without mutating
// anything; corrective maintenance is an external rebuild-and-swap operation.
func Verify(ctx context.Context, st *store.Store) (Report, error) {
	var r Report
	var err error

	if r.Events, err = st.CountEvents(ctx); err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	if r.Postings, err = st.CountPostings(ctx); err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	if r.OrphanPostings, err = st.CountOrphanPostings(ctx); err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}

	distinct, err := st.CountDistinctEventKeys(ctx)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	r.DuplicateEventKeys = r.Events - distinct

	nets, err := st.NetByAccountType(ctx)
	if err != nil {
		return r, fmt.Errorf("verify: %w", err)
	}
	unbalanced := []store.AccountNet{}
	for _, an := range nets {
		if ledger.Conserved(an.AccountType) && math.Abs(an.Net) > ledger.Epsilon {
			unbalanced = append(unbalanced, an)
		}
	}
	r.UnbalancedAccounts = unbalanced

	return r, nil
}
