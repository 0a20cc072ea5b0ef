package slice

import "github.com/hugperez/jhipster-listener/pkg/domain"

// Reduce applies an action to a state and returns the next state. It never
// mutates its inputs.
func Reduce[T domain.Record](state State[T], action Action[T]) State[T] {
	switch action.Op {
	case OpReset:
		return InitialState[T]()
	case OpHydrate:
		next := InitialState[T]()
		next.Entities = cloneEntities(action.Entities)
		next.Entity = action.Entity
		return next
	}

	next := state.Clone()
	switch action.Phase {
	case PhasePending:
		next.ErrorMessage = ""
		next.UpdateSuccess = false
		if action.Op.IsFetch() {
			next.Loading = true
		} else if action.Op.IsMutation() {
			next.Updating = true
		}
	case PhaseRejected:
		next.ErrorMessage = errorMessage(action.Err)
		next.UpdateSuccess = false
		if action.Op.IsFetch() {
			next.Loading = false
		} else if action.Op.IsMutation() {
			next.Updating = false
		}
	case PhaseFulfilled:
		switch action.Op {
		case OpFetchList:
			next.Loading = false
			next.Entities = SortEntities(action.Entities, action.Sort)
		case OpFetch:
			next.Loading = false
			next.Entity = action.Entity
		case OpCreate, OpUpdate, OpPartialUpdate:
			next.Updating = false
			next.Loading = false
			next.UpdateSuccess = true
			next.Entity = action.Entity
		case OpDelete:
			var empty T
			next.Updating = false
			next.UpdateSuccess = true
			next.Entity = empty
		}
	}
	return next
}
