package slice

import "github.com/hugperez/jhipster-listener/pkg/domain"

// Op names an action family.
type Op string

// Action families. The asynchronous ones go through the three request phases;
// OpReset and OpHydrate are applied synchronously.
const (
	OpFetchList     Op = "fetch_entity_list"
	OpFetch         Op = "fetch_entity"
	OpCreate        Op = "create_entity"
	OpUpdate        Op = "update_entity"
	OpPartialUpdate Op = "partial_update_entity"
	OpDelete        Op = "delete_entity"
	OpReset         Op = "reset"
	OpHydrate       Op = "hydrate"
)

// IsFetch reports whether the op reads from the server (drives Loading).
func (o Op) IsFetch() bool { return o == OpFetchList || o == OpFetch }

// IsMutation reports whether the op writes to the server (drives Updating).
func (o Op) IsMutation() bool {
	switch o {
	case OpCreate, OpUpdate, OpPartialUpdate, OpDelete:
		return true
	}
	return false
}

// Phase is the stage of an asynchronous request lifecycle.
type Phase string

// Request lifecycle phases.
const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// ErrMissingID is returned by Update and PartialUpdate for records without
// an id. No request is sent.
var ErrMissingID = domain.ErrMissingID

// Action is a state transition request delivered to Reduce.
type Action[T domain.Record] struct {
	Slice string
	Op    Op
	Phase Phase

	// Request arguments.
	Sort string
	ID   domain.ID
	Arg  T

	// Results.
	Entity   T
	Entities []T
	Err      error
}

// Type renders the action name, e.g. "entityB/create_entity/fulfilled".
func (a Action[T]) Type() string {
	name := a.Slice + "/" + string(a.Op)
	if a.Phase == "" {
		return name
	}
	return name + "/" + string(a.Phase)
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
