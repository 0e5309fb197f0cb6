// Package sdk is the sole write path into the controllog ledger.
//
// Callers construct an SDK once at process start with New and an explicit
// Config (there is no package-global state), then emit events through Emit or
// the convenience builders (ModelPrompt, ModelCompletion, ModelResponse,
// StateMove, Utility). Every emit validates the conservation invariant before
// anything touches disk: an unbalanced postings batch rejects the whole call
// and writes nothing.
//
// Emit performs two durable appends per event (one event line, N posting
// lines). There is no rollback if the posting appends fail after the event
// append succeeded; the loader's verify pass detects the resulting orphans.
package sdk
