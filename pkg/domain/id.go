package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is the numeric identifier assigned by the backend. Decoding accepts a
// JSON number or a numeric string so identifiers typed into forms or CLIs are
// coerced before submission; encoding always emits a number.
type ID int64

// ParseID coerces a textual identifier to an ID.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty id")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not numeric: %w", s, err)
	}
	return ID(v), nil
}

// String renders the identifier in base 10.
func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

// MarshalJSON encodes the identifier as a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	var text string
	switch val := v.(type) {
	case json.Number:
		text = val.String()
	case string:
		text = val
	default:
		return fmt.Errorf("id: unexpected type %T", v)
	}
	parsed, err := ParseID(text)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = parsed
	return nil
}
