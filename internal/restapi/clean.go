package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CleanEntity converts a record to the JSON object sent to the backend. A null
// id is removed, and nested relationship objects whose id is "" or -1 (an
// unselected reference) are dropped.
func CleanEntity(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("record is not a JSON object: %w", err)
	}
	for key, value := range fields {
		if key == "id" && value == nil {
			delete(fields, key)
			continue
		}
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if emptyReference(nested["id"]) {
			delete(fields, key)
		}
	}
	return fields, nil
}

func emptyReference(id any) bool {
	switch v := id.(type) {
	case string:
		return v == ""
	case json.Number:
		return v.String() == "-1"
	}
	return false
}
