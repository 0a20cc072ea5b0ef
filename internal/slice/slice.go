package slice

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hugperez/jhipster-listener/internal/observability"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// Collection is the REST collection a slice reads from and writes to.
type Collection[T domain.Record] interface {
	List(ctx context.Context, sort string) ([]T, error)
	Get(ctx context.Context, id domain.ID) (T, error)
	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, record T) (T, error)
	PartialUpdate(ctx context.Context, record T) (T, error)
	Delete(ctx context.Context, id domain.ID) error
}

// Listener receives the state produced by every dispatched action, in
// dispatch order. Listeners must not dispatch on the same slice.
type Listener[T domain.Record] func(action Action[T], state State[T])

// Option configures a Slice.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	recorder observability.Recorder
	tracer   observability.Tracer
}

// WithLogger sets the logger used for lifecycle transitions.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder wrapped around each request.
func WithRecorder(r observability.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTracer sets the tracer wrapped around each request.
func WithTracer(t observability.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// Slice owns the client-side state of one entity type and the request
// lifecycles that mutate it. Requests are not serialized: overlapping calls
// all proceed and the state reflects completion order.
type Slice[T domain.Record] struct {
	name string
	api  Collection[T]
	opts options

	mu        sync.Mutex
	state     State[T]
	listeners map[uint64]Listener[T]
	nextID    uint64

	// notify orders listener delivery without holding mu during callbacks.
	notify sync.Mutex

	followUps sync.WaitGroup
}

// New builds a slice named name (e.g. "entityA") on top of api.
func New[T domain.Record](name string, api Collection[T], opts ...Option) *Slice[T] {
	o := options{
		logger:   zap.NewNop(),
		recorder: observability.Nop(),
		tracer:   observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(zap.String("slice", name))
	return &Slice[T]{
		name:      name,
		api:       api,
		opts:      o,
		state:     InitialState[T](),
		listeners: make(map[uint64]Listener[T]),
	}
}

// Name returns the slice name used as the action type prefix.
func (s *Slice[T]) Name() string { return s.name }

// State returns a copy of the current state.
func (s *Slice[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers l and returns a func that removes it.
func (s *Slice[T]) Subscribe(l Listener[T]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Dispatch reduces action into the slice state and notifies listeners.
func (s *Slice[T]) Dispatch(action Action[T]) State[T] {
	if action.Slice == "" {
		action.Slice = s.name
	}
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, action)
	snapshot := s.state.Clone()
	listeners := make([]Listener[T], 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	s.logTransition(action)
	for _, l := range listeners {
		l(action, snapshot.Clone())
	}
	return snapshot
}

// Reset restores the initial state, discarding any previously loaded data.
func (s *Slice[T]) Reset() {
	s.Dispatch(Action[T]{Op: OpReset})
}

// Settle blocks until every follow-up list refresh started by a mutation has
// completed.
func (s *Slice[T]) Settle() {
	s.followUps.Wait()
}

// List fetches the collection. The stored list is re-sorted client-side with
// the same sort token; an empty token keeps the server order.
func (s *Slice[T]) List(ctx context.Context, sort string) ([]T, error) {
	s.Dispatch(Action[T]{Op: OpFetchList, Phase: PhasePending, Sort: sort})
	return s.completeList(ctx, sort)
}

func (s *Slice[T]) completeList(ctx context.Context, sort string) ([]T, error) {
	var entities []T
	err := s.observe(ctx, OpFetchList, func(ctx context.Context) error {
		var err error
		entities, err = s.api.List(ctx, sort)
		return err
	})
	if err != nil {
		s.Dispatch(Action[T]{Op: OpFetchList, Phase: PhaseRejected, Sort: sort, Err: err})
		return nil, err
	}
	s.Dispatch(Action[T]{Op: OpFetchList, Phase: PhaseFulfilled, Sort: sort, Entities: entities})
	return SortEntities(entities, sort), nil
}

// Get fetches one record and makes it the current entity.
func (s *Slice[T]) Get(ctx context.Context, id domain.ID) (T, error) {
	s.Dispatch(Action[T]{Op: OpFetch, Phase: PhasePending, ID: id})
	var entity T
	err := s.observe(ctx, OpFetch, func(ctx context.Context) error {
		var err error
		entity, err = s.api.Get(ctx, id)
		return err
	})
	if err != nil {
		s.Dispatch(Action[T]{Op: OpFetch, Phase: PhaseRejected, ID: id, Err: err})
		var zero T
		return zero, err
	}
	s.Dispatch(Action[T]{Op: OpFetch, Phase: PhaseFulfilled, ID: id, Entity: entity})
	return entity, nil
}

// Create posts a new record. On success the unsorted list is refreshed in the
// background.
func (s *Slice[T]) Create(ctx context.Context, record T) (T, error) {
	return s.mutate(ctx, OpCreate, record, s.api.Create)
}

// Update replaces a persisted record.
func (s *Slice[T]) Update(ctx context.Context, record T) (T, error) {
	return s.mutate(ctx, OpUpdate, record, s.api.Update)
}

// PartialUpdate patches the fields present in record.
func (s *Slice[T]) PartialUpdate(ctx context.Context, record T) (T, error) {
	return s.mutate(ctx, OpPartialUpdate, record, s.api.PartialUpdate)
}

// Delete removes a record and clears the current entity.
func (s *Slice[T]) Delete(ctx context.Context, id domain.ID) error {
	s.Dispatch(Action[T]{Op: OpDelete, Phase: PhasePending, ID: id})
	err := s.observe(ctx, OpDelete, func(ctx context.Context) error {
		return s.api.Delete(ctx, id)
	})
	if err != nil {
		s.Dispatch(Action[T]{Op: OpDelete, Phase: PhaseRejected, ID: id, Err: err})
		return err
	}
	s.refreshInBackground(ctx)
	s.Dispatch(Action[T]{Op: OpDelete, Phase: PhaseFulfilled, ID: id})
	return nil
}

func (s *Slice[T]) mutate(ctx context.Context, op Op, record T, call func(context.Context, T) (T, error)) (T, error) {
	var zero T
	s.Dispatch(Action[T]{Op: op, Phase: PhasePending, Arg: record})
	if op != OpCreate {
		if _, ok := record.RecordID(); !ok {
			s.Dispatch(Action[T]{Op: op, Phase: PhaseRejected, Arg: record, Err: ErrMissingID})
			return zero, ErrMissingID
		}
	}
	var result T
	err := s.observe(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = call(ctx, record)
		return err
	})
	if err != nil {
		s.Dispatch(Action[T]{Op: op, Phase: PhaseRejected, Arg: record, Err: err})
		return zero, err
	}
	s.refreshInBackground(ctx)
	s.Dispatch(Action[T]{Op: op, Phase: PhaseFulfilled, Arg: record, Entity: result})
	return result, nil
}

// refreshInBackground enters the list pending phase immediately and completes
// the request on its own goroutine. The caller's cancellation does not reach it.
func (s *Slice[T]) refreshInBackground(ctx context.Context) {
	s.Dispatch(Action[T]{Op: OpFetchList, Phase: PhasePending})
	ctx = context.WithoutCancel(ctx)
	s.followUps.Add(1)
	go func() {
		defer s.followUps.Done()
		if _, err := s.completeList(ctx, ""); err != nil {
			s.opts.logger.Warn("follow-up refresh failed", zap.Error(err))
		}
	}()
}

func (s *Slice[T]) observe(ctx context.Context, op Op, fn func(context.Context) error) error {
	operation := s.name + "." + string(op)
	ctx, span := s.opts.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	s.opts.recorder.Observe(ctx, operation, err == nil, time.Since(start))
	span.End(err)
	return err
}

func (s *Slice[T]) logTransition(action Action[T]) {
	if action.Phase == PhaseRejected {
		s.opts.logger.Warn("request rejected", zap.String("action", action.Type()), zap.Error(action.Err))
		return
	}
	if ce := s.opts.logger.Check(zap.DebugLevel, "dispatch"); ce != nil {
		fields := []zap.Field{zap.String("action", action.Type())}
		if action.Sort != "" {
			fields = append(fields, zap.String("sort", action.Sort))
		}
		if action.Phase == PhaseFulfilled && action.Op == OpFetchList {
			fields = append(fields, zap.Int("count", len(action.Entities)))
		}
		ce.Write(fields...)
	}
}
