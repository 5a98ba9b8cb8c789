// internal/domain/models/id.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a record identifier. The CampusCard API emits numeric ids; the
// console treats them as opaque strings and accepts either form.
type ID string

func (id ID) String() string { return string(id) }

// Numeric reports whether id is a base-10 integer, the only form the API
// accepts in request bodies.
func (id ID) Numeric() bool {
	_, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil
}

// MarshalJSON writes numeric ids as JSON numbers and anything else as a
// string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.Numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}
