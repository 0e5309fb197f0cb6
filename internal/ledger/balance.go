package ledger

import (
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Epsilon is the tolerance for conservation sums. Deltas are float64, so
// exact zero cannot be demanded across mixed-magnitude postings.
const Epsilon = 1e-9

// groupKey identifies a balance group within one event's postings.
type groupKey struct {
	accountType string
	unit        string
}

// Conserved reports whether an account type belongs to a conserved family:
// any "resource.*" type, plus value.utility and truth.state. Types outside
// these families are informational and exempt from balance checks.
func Conserved(accountType string) bool {
	return strings.HasPrefix(accountType, "resource.") ||
		accountType == AccountUtility ||
		accountType == AccountState
}

// CheckBalance enforces conservation across a postings batch belonging to one
// not-yet-persisted event of the given kind.
//
// Postings are grouped by (account_type, unit); group keys are NFC-normalized
// so that visually identical unit strings compare equal. For every conserved
// group the deltas must sum to zero within Epsilon, otherwise a *BalanceError
// is returned naming the account type, unit, computed net, and event kind.
//
// An empty batch passes trivially.
func CheckBalance(kind string, postings []Posting) error {
	if len(postings) == 0 {
		return nil
	}

	sums := make(map[groupKey]float64, len(postings))
	for _, p := range postings {
		key := groupKey{
			accountType: norm.NFC.String(p.AccountType),
			unit:        norm.NFC.String(p.Unit),
		}
		sums[key] += p.Delta
	}

	for key, net := range sums {
		if !Conserved(key.accountType) {
			continue
		}
		if math.Abs(net) > Epsilon {
			return &BalanceError{
				Kind:        kind,
				AccountType: key.accountType,
				Unit:        key.unit,
				Net:         net,
			}
		}
	}

	return nil
}
