package slice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hugperez/jhipster-listener/internal/observability"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// fakeCollection is an in-memory backend keyed by id.
type fakeCollection struct {
	mu      sync.Mutex
	nextID  domain.ID
	records []domain.EntityA
	err     error // returned by every call when set
	block   chan struct{}
	lists   int
	// gates holds Create calls for a record name until the channel closes.
	gates map[string]chan struct{}
}

func (f *fakeCollection) List(_ context.Context, _ string) ([]domain.EntityA, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.EntityA(nil), f.records...), nil
}

func (f *fakeCollection) Get(_ context.Context, id domain.ID) (domain.EntityA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.EntityA{}, f.err
	}
	for _, r := range f.records {
		if *r.ID == id {
			return r, nil
		}
	}
	return domain.EntityA{}, errors.New("Request failed with status code 404")
}

func (f *fakeCollection) Create(_ context.Context, rec domain.EntityA) (domain.EntityA, error) {
	if rec.Name != nil {
		if gate, ok := f.gates[*rec.Name]; ok {
			<-gate
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.EntityA{}, f.err
	}
	f.nextID++
	rec.ID = domain.Ref(f.nextID)
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeCollection) Update(_ context.Context, rec domain.EntityA) (domain.EntityA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.EntityA{}, f.err
	}
	for i, r := range f.records {
		if *r.ID == *rec.ID {
			f.records[i] = rec
			return rec, nil
		}
	}
	return domain.EntityA{}, errors.New("Request failed with status code 404")
}

func (f *fakeCollection) PartialUpdate(ctx context.Context, rec domain.EntityA) (domain.EntityA, error) {
	f.mu.Lock()
	var current domain.EntityA
	for _, r := range f.records {
		if *r.ID == *rec.ID {
			current = r
		}
	}
	f.mu.Unlock()
	if rec.Name != nil {
		current.Name = rec.Name
	}
	if rec.Title != nil {
		current.Title = rec.Title
	}
	current.ID = rec.ID
	return f.Update(ctx, current)
}

func (f *fakeCollection) Delete(_ context.Context, id domain.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, r := range f.records {
		if *r.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return errors.New("Request failed with status code 404")
}

func TestListSortsClientSide(t *testing.T) {
	api := &fakeCollection{records: []domain.EntityA{a(1, "b"), a(2, "a")}}
	s := New[domain.EntityA]("entityA", api)

	got, err := s.List(context.Background(), "name,ASC")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(got))

	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"a", "b"}, names(st.Entities))

	_, err = s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, names(s.State().Entities))
}

func TestCreateScenario(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := &fakeCollection{}
	s := New[domain.EntityA]("entityA", api)

	var mu sync.Mutex
	var types []string
	var updating []bool
	unsubscribe := s.Subscribe(func(act Action[domain.EntityA], st State[domain.EntityA]) {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, act.Type())
		updating = append(updating, st.Updating)
	})
	defer unsubscribe()

	created, err := s.Create(context.Background(), domain.EntityA{Name: domain.Ref("X")})
	require.NoError(t, err)
	s.Settle()

	st := s.State()
	assert.True(t, st.UpdateSuccess)
	assert.False(t, st.Updating)
	assert.False(t, st.Loading)
	assert.Equal(t, created, st.Entity)
	assert.Equal(t, "X", *st.Entity.Name)
	assert.Equal(t, []string{"X"}, names(st.Entities))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(types), 4)
	assert.Equal(t, "entityA/create_entity/pending", types[0])
	assert.True(t, updating[0])
	assert.Equal(t, "entityA/fetch_entity_list/pending", types[1], "follow-up list enters pending before the mutation fulfils")
	assert.Contains(t, types, "entityA/create_entity/fulfilled")
	assert.Contains(t, types, "entityA/fetch_entity_list/fulfilled")
	assert.False(t, updating[len(updating)-1])
}

func TestOverlappingCreatesSettleInCompletionOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	first, second := make(chan struct{}), make(chan struct{})
	api := &fakeCollection{gates: map[string]chan struct{}{"first": first, "second": second}}
	s := New[domain.EntityA]("entityA", api)

	pending := make(chan bool, 2)
	created := make(chan string, 2)
	listed := make(chan int, 2)
	unsubscribe := s.Subscribe(func(act Action[domain.EntityA], st State[domain.EntityA]) {
		switch {
		case act.Op == OpCreate && act.Phase == PhasePending:
			pending <- st.Updating
		case act.Op == OpCreate && act.Phase == PhaseFulfilled:
			created <- *act.Entity.Name
		case act.Op == OpFetchList && act.Phase == PhaseFulfilled:
			listed <- len(act.Entities)
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for _, name := range []string{"first", "second"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := s.Create(context.Background(), domain.EntityA{Name: domain.Ref(name)})
			assert.NoError(t, err)
		}(name)
	}
	assert.True(t, <-pending)
	assert.True(t, <-pending, "a second create re-enters pending while the first is in flight")

	close(second)
	assert.Equal(t, "second", <-created)
	assert.Equal(t, 1, <-listed)
	close(first)
	assert.Equal(t, "first", <-created)
	assert.Equal(t, 2, <-listed)
	wg.Wait()
	s.Settle()

	st := s.State()
	assert.Equal(t, "first", *st.Entity.Name, "the create that completed last wins")
	assert.ElementsMatch(t, []string{"first", "second"}, names(st.Entities))
	assert.False(t, st.Updating)
	assert.False(t, st.Loading)
	assert.True(t, st.UpdateSuccess)
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 2, api.lists, "each mutation triggers its own refresh")
}

func TestGetNotFoundScenario(t *testing.T) {
	api := &fakeCollection{records: []domain.EntityA{a(1, "keep")}}
	s := New[domain.EntityA]("entityA", api)
	_, err := s.Get(context.Background(), 1)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), 42)
	require.Error(t, err)
	st := s.State()
	assert.False(t, st.Loading)
	assert.Equal(t, "Request failed with status code 404", st.ErrorMessage)
	assert.Equal(t, "keep", *st.Entity.Name, "entity is unchanged by a failed get")
}

func TestUpdateAndPatch(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := &fakeCollection{nextID: 1, records: []domain.EntityA{a(1, "old")}}
	s := New[domain.EntityA]("entityA", api)

	updated, err := s.Update(context.Background(), a(1, "new"))
	require.NoError(t, err)
	assert.Equal(t, "new", *updated.Name)

	patched, err := s.PartialUpdate(context.Background(), domain.EntityA{ID: domain.Ref(domain.ID(1)), Title: domain.Ref("T")})
	require.NoError(t, err)
	s.Settle()
	assert.Equal(t, "new", *patched.Name)
	assert.Equal(t, "T", *s.State().Entity.Title)
	assert.True(t, s.State().UpdateSuccess)
}

func TestUpdateWithoutIDIsRejectedLocally(t *testing.T) {
	api := &fakeCollection{}
	s := New[domain.EntityA]("entityA", api)
	_, err := s.Update(context.Background(), domain.EntityA{Name: domain.Ref("x")})
	require.ErrorIs(t, err, ErrMissingID)
	assert.ErrorIs(t, err, domain.ErrMissingID, "slice and transport share one sentinel")
	st := s.State()
	assert.False(t, st.Updating)
	assert.False(t, st.UpdateSuccess)
	assert.Equal(t, ErrMissingID.Error(), st.ErrorMessage)
	assert.Zero(t, api.lists)
}

func TestDeleteScenario(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := &fakeCollection{nextID: 2, records: []domain.EntityA{a(1, "a"), a(2, "b")}}
	s := New[domain.EntityA]("entityA", api)
	_, err := s.Get(context.Background(), 2)
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), 2))
	s.Settle()
	st := s.State()
	assert.True(t, st.UpdateSuccess)
	assert.Nil(t, st.Entity.ID)
	assert.Equal(t, []string{"a"}, names(st.Entities))
}

func TestMutationFailureSkipsRefresh(t *testing.T) {
	api := &fakeCollection{err: errors.New("Request failed with status code 400: bad")}
	s := New[domain.EntityA]("entityA", api)
	_, err := s.Create(context.Background(), domain.EntityA{Name: domain.Ref("x")})
	require.Error(t, err)
	s.Settle()
	st := s.State()
	assert.False(t, st.Updating)
	assert.Equal(t, "Request failed with status code 400: bad", st.ErrorMessage)
	assert.Zero(t, api.lists)
}

func TestFollowUpRefreshSurvivesCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)
	api := &fakeCollection{block: make(chan struct{})}
	s := New[domain.EntityA]("entityA", api)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Create(ctx, domain.EntityA{Name: domain.Ref("x")})
	require.NoError(t, err)
	cancel()
	close(api.block)
	s.Settle()
	assert.Equal(t, []string{"x"}, names(s.State().Entities))
}

func TestResetAndUnsubscribe(t *testing.T) {
	api := &fakeCollection{records: []domain.EntityA{a(1, "a")}}
	s := New[domain.EntityA]("entityA", api)
	calls := 0
	unsubscribe := s.Subscribe(func(Action[domain.EntityA], State[domain.EntityA]) { calls++ })
	_, err := s.List(context.Background(), "")
	require.NoError(t, err)
	unsubscribe()
	s.Reset()
	assert.Equal(t, 2, calls)
	assert.Equal(t, InitialState[domain.EntityA](), s.State())
}

func TestObserveRecordsOperations(t *testing.T) {
	rec := observability.NewExpvarRecorder("")
	api := &fakeCollection{records: []domain.EntityA{a(1, "a")}}
	s := New[domain.EntityA]("entityA", api, WithRecorder(rec))
	_, _ = s.List(context.Background(), "")
	_, _ = s.Get(context.Background(), 99)
	snap := rec.Snapshot()
	assert.Equal(t, int64(1), snap.Results["entityA.fetch_entity_list"]["success"])
	assert.Equal(t, int64(1), snap.Results["entityA.fetch_entity"]["error"])
}
