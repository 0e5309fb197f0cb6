// Package ledger defines the controllog data model: events, double-entry
// postings, time-sortable identifiers, and the conservation invariant that
// gates every write.
//
// An Event records that something happened. Postings are signed ledger lines
// attached to exactly one event; for conserved account families (the
// "resource.*" types plus "value.utility" and "truth.state") the postings of
// one event must net to zero per (account_type, unit) pair. CheckBalance
// enforces this before anything is persisted.
//
// The package is pure: no I/O, no global state. Persistence lives in the
// journal, sdk, store, and loader packages.
package ledger
