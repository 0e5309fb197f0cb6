package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Encode serializes a record as one newline-terminated JSON line.
//
// HTML escaping is disabled so payload text (request/response bodies with
// < > &) round-trips unmangled. Map-typed records serialize with sorted keys,
// which keeps the wire form deterministic for a given record.
func Encode(record any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	// json.Encoder already appends the trailing newline.
	return buf.Bytes(), nil
}
