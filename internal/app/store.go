// Package app assembles the entity slices into one store and connects them to
// the snapshot cache and the history content blob store.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hugperez/jhipster-listener/internal/blob"
	"github.com/hugperez/jhipster-listener/internal/persistence"
	"github.com/hugperez/jhipster-listener/internal/restapi"
	"github.com/hugperez/jhipster-listener/internal/slice"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// Slice names, used as action type prefixes and cache bucket names.
const (
	SliceEntityA       = "entityA"
	SliceEntityB       = "entityB"
	SliceEntityHistory = "entityHistory"
)

var (
	// ErrNoCache is returned by Persist and Restore when no cache is configured.
	ErrNoCache = errors.New("app: no snapshot cache configured")
	// ErrNoBlobStore is returned by the history content operations when no blob store is configured.
	ErrNoBlobStore = errors.New("app: no blob store configured")
	// ErrNoContent is returned when exporting a history record without content.
	ErrNoContent = errors.New("app: history record has no content")
)

// RootState aggregates the state of every slice.
type RootState struct {
	EntityA       slice.State[domain.EntityA]       `json:"entityA"`
	EntityB       slice.State[domain.EntityB]       `json:"entityB"`
	EntityHistory slice.State[domain.EntityHistory] `json:"entityHistory"`
}

// Option configures a Store.
type Option func(*Store)

// WithCache sets the snapshot cache used by Persist and Restore.
func WithCache(c persistence.Store) Option {
	return func(s *Store) { s.cache = c }
}

// WithBlobStore sets the store used for history content export and import.
func WithBlobStore(b blob.Store) Option {
	return func(s *Store) { s.blobs = b }
}

// WithLogger sets the logger shared with the slices.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSliceOptions passes opts to every slice.
func WithSliceOptions(opts ...slice.Option) Option {
	return func(s *Store) { s.sliceOpts = append(s.sliceOpts, opts...) }
}

// Store owns one slice per entity type.
type Store struct {
	EntityA *slice.Slice[domain.EntityA]
	EntityB *slice.Slice[domain.EntityB]
	History *slice.Slice[domain.EntityHistory]

	cache     persistence.Store
	blobs     blob.Store
	logger    *zap.Logger
	sliceOpts []slice.Option
}

// New builds the store on top of client.
func New(client *restapi.Client, opts ...Option) *Store {
	s := &Store{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	sliceOpts := append([]slice.Option{slice.WithLogger(s.logger)}, s.sliceOpts...)
	s.EntityA = slice.New[domain.EntityA](SliceEntityA,
		restapi.NewCollection[domain.EntityA](client, domain.CollectionEntityA), sliceOpts...)
	s.EntityB = slice.New[domain.EntityB](SliceEntityB,
		restapi.NewCollection[domain.EntityB](client, domain.CollectionEntityB), sliceOpts...)
	s.History = slice.New[domain.EntityHistory](SliceEntityHistory,
		restapi.NewCollection[domain.EntityHistory](client, domain.CollectionEntityHistory), sliceOpts...)
	return s
}

// Snapshot returns a copy of every slice state.
func (s *Store) Snapshot() RootState {
	return RootState{
		EntityA:       s.EntityA.State(),
		EntityB:       s.EntityB.State(),
		EntityHistory: s.History.State(),
	}
}

// RefreshAll lists every collection concurrently with the same sort token.
func (s *Store) RefreshAll(ctx context.Context, sort string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { _, err := s.EntityA.List(ctx, sort); return err })
	g.Go(func() error { _, err := s.EntityB.List(ctx, sort); return err })
	g.Go(func() error { _, err := s.History.List(ctx, sort); return err })
	return g.Wait()
}

// Settle waits for the follow-up refreshes of every slice.
func (s *Store) Settle() {
	s.EntityA.Settle()
	s.EntityB.Settle()
	s.History.Settle()
}

// cached is the persisted subset of a slice state. Busy flags and error
// messages describe in-flight work and are never stored.
type cached[T domain.Record] struct {
	Entities []T `json:"entities"`
	Entity   T   `json:"entity"`
}

func encodeCached[T domain.Record](st slice.State[T]) ([]byte, error) {
	return json.Marshal(cached[T]{Entities: st.Entities, Entity: st.Entity})
}

func hydrate[T domain.Record](sl *slice.Slice[T], payload []byte) error {
	var c cached[T]
	if err := json.Unmarshal(payload, &c); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", sl.Name(), err)
	}
	if c.Entities == nil {
		c.Entities = []T{}
	}
	sl.Dispatch(slice.Action[T]{Op: slice.OpHydrate, Entities: c.Entities, Entity: c.Entity})
	return nil
}

// Persist writes the loaded records of every slice to the cache.
func (s *Store) Persist(ctx context.Context) error {
	if s.cache == nil {
		return ErrNoCache
	}
	snap := s.Snapshot()
	payloads := make(map[string][]byte, 3)
	var err error
	if payloads[SliceEntityA], err = encodeCached(snap.EntityA); err != nil {
		return err
	}
	if payloads[SliceEntityB], err = encodeCached(snap.EntityB); err != nil {
		return err
	}
	if payloads[SliceEntityHistory], err = encodeCached(snap.EntityHistory); err != nil {
		return err
	}
	if err := s.cache.Save(ctx, payloads); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	s.logger.Debug("snapshot persisted", zap.Int("buckets", len(payloads)))
	return nil
}

// Restore hydrates every slice that has a cached bucket and returns how many
// slices were restored.
func (s *Store) Restore(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, ErrNoCache
	}
	payloads, err := s.cache.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	restored := 0
	steps := []struct {
		bucket string
		apply  func([]byte) error
	}{
		{SliceEntityA, func(b []byte) error { return hydrate(s.EntityA, b) }},
		{SliceEntityB, func(b []byte) error { return hydrate(s.EntityB, b) }},
		{SliceEntityHistory, func(b []byte) error { return hydrate(s.History, b) }},
	}
	for _, step := range steps {
		payload, ok := payloads[step.bucket]
		if !ok {
			continue
		}
		if err := step.apply(payload); err != nil {
			return restored, err
		}
		restored++
	}
	s.logger.Debug("snapshot restored", zap.Int("slices", restored))
	return restored, nil
}
