package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hugperez/jhipster-listener/internal/slice"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// ErrUnknownEntity is returned by Entity for names that match no slice.
var ErrUnknownEntity = errors.New("app: unknown entity")

// Entity names accepted by Entity.
const (
	EntityNameA       = "entity-a"
	EntityNameB       = "entity-b"
	EntityNameHistory = "entity-history"
)

// EntityNames lists the names accepted by Entity.
func EntityNames() []string {
	return []string{EntityNameA, EntityNameB, EntityNameHistory}
}

// Handle drives one slice with JSON documents, for callers that pick the
// entity type at runtime.
type Handle interface {
	Name() string
	List(ctx context.Context, sort string) (json.RawMessage, error)
	Get(ctx context.Context, id domain.ID) (json.RawMessage, error)
	Create(ctx context.Context, data []byte) (json.RawMessage, error)
	Update(ctx context.Context, data []byte) (json.RawMessage, error)
	PartialUpdate(ctx context.Context, data []byte) (json.RawMessage, error)
	Delete(ctx context.Context, id domain.ID) error
	State() (json.RawMessage, error)
	Settle()
}

// Entity resolves a CLI entity name to its slice handle.
func (s *Store) Entity(name string) (Handle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EntityNameA:
		return handle[domain.EntityA]{s.EntityA}, nil
	case EntityNameB:
		return handle[domain.EntityB]{s.EntityB}, nil
	case EntityNameHistory:
		return handle[domain.EntityHistory]{s.History}, nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownEntity, name, strings.Join(EntityNames(), ", "))
}

type handle[T domain.Record] struct {
	s *slice.Slice[T]
}

func (h handle[T]) Name() string { return h.s.Name() }

func (h handle[T]) List(ctx context.Context, sort string) (json.RawMessage, error) {
	entities, err := h.s.List(ctx, sort)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entities)
}

func (h handle[T]) Get(ctx context.Context, id domain.ID) (json.RawMessage, error) {
	entity, err := h.s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entity)
}

func (h handle[T]) Create(ctx context.Context, data []byte) (json.RawMessage, error) {
	return h.write(ctx, data, h.s.Create)
}

func (h handle[T]) Update(ctx context.Context, data []byte) (json.RawMessage, error) {
	return h.write(ctx, data, h.s.Update)
}

func (h handle[T]) PartialUpdate(ctx context.Context, data []byte) (json.RawMessage, error) {
	return h.write(ctx, data, h.s.PartialUpdate)
}

func (h handle[T]) Delete(ctx context.Context, id domain.ID) error {
	return h.s.Delete(ctx, id)
}

func (h handle[T]) State() (json.RawMessage, error) {
	return json.Marshal(h.s.State())
}

func (h handle[T]) Settle() { h.s.Settle() }

func (h handle[T]) write(ctx context.Context, data []byte, call func(context.Context, T) (T, error)) (json.RawMessage, error) {
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", h.s.Name(), err)
	}
	result, err := call(ctx, record)
	if err != nil {
		return nil, err
	}
	return json.Marshal(result)
}
