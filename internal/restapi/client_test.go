package restapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugperez/jhipster-listener/internal/restapi"
	"github.com/hugperez/jhipster-listener/internal/restapi/restapitest"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

func newCollection(t *testing.T, cfg restapi.Config) (*restapitest.Server, *restapi.Collection[domain.EntityA]) {
	t.Helper()
	srv := restapitest.NewServer(t, domain.CollectionEntityA)
	cfg.BaseURL = srv.URL + "/"
	fixed := time.UnixMilli(1700000000123)
	client, err := restapi.New(cfg, restapi.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return srv, restapi.NewCollection[domain.EntityA](client, domain.CollectionEntityA)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := restapi.New(restapi.Config{BaseURL: "localhost:8080"})
	require.Error(t, err)

	c, err := restapi.New(restapi.Config{BaseURL: "http://example.test/app"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/app/", c.BaseURL())

	c, err = restapi.New(restapi.Config{})
	require.NoError(t, err)
	assert.Equal(t, restapi.DefaultBaseURL, c.BaseURL())
}

func TestListSendsSortAndCacheBuster(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{Token: "secret"})
	srv.Seed(domain.CollectionEntityA, map[string]any{"name": "b"}, map[string]any{"name": "a"})

	got, err := col.List(context.Background(), "name,ASC")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", *got[0].Name, "transport keeps server order")

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/api/entity-as", reqs[0].Path)
	assert.Equal(t, "name,ASC", reqs[0].Query.Get("sort"))
	assert.Equal(t, "1700000000123", reqs[0].Query.Get("cacheBuster"))
	assert.Equal(t, "Bearer secret", reqs[0].Header.Get("Authorization"))
	assert.NotEmpty(t, reqs[0].Header.Get("X-Request-ID"))
}

func TestListWithoutSortOmitsParameter(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{})
	got, err := col.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	_, has := srv.Requests()[0].Query["sort"]
	assert.False(t, has)
	assert.Empty(t, srv.Requests()[0].Header.Get("Authorization"))
}

func TestCreateStripsNullID(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{})
	created, err := col.Create(context.Background(), domain.EntityA{Name: domain.Ref("X")})
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, domain.ID(1), *created.ID)

	req := srv.Requests()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.ContentType)
	assert.JSONEq(t, `{"name":"X"}`, string(req.Body))
}

func TestUpdateAndPartialUpdateTargetItem(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{})
	srv.Seed(domain.CollectionEntityA, map[string]any{"id": 7, "name": "old", "title": "t"})

	updated, err := col.Update(context.Background(), domain.EntityA{ID: domain.Ref(domain.ID(7)), Name: domain.Ref("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", *updated.Name)
	assert.Nil(t, updated.Title, "PUT replaces the record")

	patched, err := col.PartialUpdate(context.Background(), domain.EntityA{ID: domain.Ref(domain.ID(7)), Title: domain.Ref("T")})
	require.NoError(t, err)
	assert.Equal(t, "new", *patched.Name)
	assert.Equal(t, "T", *patched.Title)

	reqs := srv.Requests()
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/api/entity-as/7", reqs[0].Path)
	assert.Equal(t, http.MethodPatch, reqs[1].Method)
	assert.Equal(t, "application/merge-patch+json", reqs[1].ContentType)

	_, err = col.Update(context.Background(), domain.EntityA{Name: domain.Ref("x")})
	assert.ErrorIs(t, err, domain.ErrMissingID)
	_, err = col.PartialUpdate(context.Background(), domain.EntityA{Title: domain.Ref("x")})
	assert.ErrorIs(t, err, domain.ErrMissingID)
	assert.Len(t, srv.Requests(), 2, "records without id never reach the server")
}

func TestDeleteAndNotFound(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{})
	srv.Seed(domain.CollectionEntityA, map[string]any{"name": "a"})
	require.NoError(t, col.Delete(context.Background(), 1))
	assert.Empty(t, srv.Records(domain.CollectionEntityA))

	_, err := col.Get(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, restapi.IsNotFound(err))
	assert.Equal(t, "Request failed with status code 404: 404 NOT_FOUND", err.Error())

	var he *restapi.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.MethodGet, he.Method)
	require.NotNil(t, he.Problem)
	assert.Equal(t, "Not Found", he.Problem.Title)
}

func TestProblemWithoutBody(t *testing.T) {
	srv, col := newCollection(t, restapi.Config{})
	srv.FailNext(http.StatusInternalServerError, nil)
	_, err := col.List(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "Request failed with status code 500", err.Error())

	srv.FailNext(http.StatusBadRequest, map[string]any{"title": "Method argument not valid", "errorKey": "validation", "entityName": "entityA"})
	_, err = col.Create(context.Background(), domain.EntityA{})
	var he *restapi.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "validation", he.Problem.ErrorKey)
	assert.Equal(t, "Request failed with status code 400: Method argument not valid", err.Error())
}

func TestRateLimitHonoursContext(t *testing.T) {
	_, col := newCollection(t, restapi.Config{RateLimit: 0.001, Burst: 1})
	_, err := col.List(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = col.List(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
