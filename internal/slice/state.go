// Package slice implements the per-entity client state container: a
// generic state value, the actions that drive its request lifecycles, the
// pure reducer that applies them, and the Slice type that couples the reducer
// to a REST collection.
package slice

import "github.com/hugperez/jhipster-listener/pkg/domain"

// State is the client-side view of one entity collection.
type State[T domain.Record] struct {
	// Loading is true while a list or get request is outstanding.
	Loading bool `json:"loading"`
	// Updating is true while a create, update, partial update or delete is outstanding.
	Updating bool `json:"updating"`
	// UpdateSuccess is set once the latest mutation has been fulfilled.
	UpdateSuccess bool `json:"updateSuccess"`
	// ErrorMessage holds the serialized error of the latest rejected request.
	ErrorMessage string `json:"errorMessage,omitempty"`
	// Entities is the last list fetched from the server.
	Entities []T `json:"entities"`
	// Entity is the record currently viewed or edited.
	Entity T `json:"entity"`
}

// InitialState returns the empty state a slice starts with and returns to on reset.
func InitialState[T domain.Record]() State[T] {
	return State[T]{Entities: []T{}}
}

// Clone returns a copy whose entity list can be modified independently.
func (s State[T]) Clone() State[T] {
	s.Entities = cloneEntities(s.Entities)
	return s
}

func cloneEntities[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
