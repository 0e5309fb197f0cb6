package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ID is a time-sortable, globally unique identifier for events, postings,
// and externally-shared correlation tokens (exchange ids).
//
// IDs are UUIDv7 values: a 48-bit millisecond timestamp in the most
// significant bits followed by 74 cryptographically random bits. Sorting the
// string form lexically approximates chronological order to millisecond
// resolution. Two IDs generated in the same millisecond are ordered
// arbitrarily by the random suffix.
//
// The bit layout is an implementation detail. Callers that need the creation
// time use Time(); callers that need a sortable token use String().
type ID struct {
	u uuid.UUID
}

// NewID generates a fresh identifier. It never fails.
//
// Uses github.com/google/uuid for RFC 4122 compliant UUIDv7 generation.
// Safe for concurrent use; collisions across processes are ruled out by the
// 74-bit random component.
func NewID() ID {
	return ID{u: uuid.Must(uuid.NewV7())}
}

// ParseID parses the hyphenated string form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("parse id: %w", err)
	}
	return ID{u: u}, nil
}

// String returns the hyphenated form, e.g.
// "0192d5b0-8a1c-7def-a716-446655440000" (36 characters).
func (id ID) String() string {
	return id.u.String()
}

// Time returns the creation time embedded in the identifier, truncated to
// millisecond resolution, in UTC.
func (id ID) Time() time.Time {
	sec, nsec := id.u.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}

// IsZero reports whether the ID is the zero value (not yet assigned).
func (id ID) IsZero() bool {
	return id.u == uuid.Nil
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as plain
// strings in JSON records.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	id.u = u
	return nil
}
