package domain

import (
	"encoding/json"
	"fmt"
)

// Action enumerates the kinds of change recorded by EntityHistory.
type Action string

// Supported action tags.
const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Actions lists every valid action tag in declaration order.
func Actions() []Action {
	return []Action{ActionCreate, ActionUpdate, ActionDelete}
}

// Valid reports whether a is a known action tag.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown action tags.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !Action(s).Valid() {
		return fmt.Errorf("unknown action %q", s)
	}
	*a = Action(s)
	return nil
}
