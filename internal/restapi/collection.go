package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// Collection exposes the CRUD endpoints of one REST collection, e.g.
// "api/entity-as". It satisfies slice.Collection.
type Collection[T domain.Record] struct {
	client *Client
	path   string
}

// NewCollection binds a collection path to a client.
func NewCollection[T domain.Record](c *Client, path string) *Collection[T] {
	return &Collection[T]{client: c, path: path}
}

// Path returns the collection path.
func (c *Collection[T]) Path() string { return c.path }

// List fetches every record. The sort token, when present, is forwarded as is
// and a millisecond timestamp defeats intermediate caches.
func (c *Collection[T]) List(ctx context.Context, sort string) ([]T, error) {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", sort)
	}
	q.Set("cacheBuster", strconv.FormatInt(c.client.now().UnixMilli(), 10))
	var out []T
	if err := c.client.Do(ctx, http.MethodGet, c.path, q, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Get fetches one record by id.
func (c *Collection[T]) Get(ctx context.Context, id domain.ID) (T, error) {
	var out T
	err := c.client.Do(ctx, http.MethodGet, c.itemPath(id), nil, nil, &out)
	return out, err
}

// Create posts a new record with an absent id stripped.
func (c *Collection[T]) Create(ctx context.Context, record T) (T, error) {
	var out T
	body, err := CleanEntity(record)
	if err != nil {
		return out, err
	}
	err = c.client.Do(ctx, http.MethodPost, c.path, nil, body, &out)
	return out, err
}

// Update replaces the record stored under the record's id.
func (c *Collection[T]) Update(ctx context.Context, record T) (T, error) {
	return c.write(ctx, http.MethodPut, contentTypeJSON, record)
}

// PartialUpdate sends the record as a merge patch; absent fields are left untouched.
func (c *Collection[T]) PartialUpdate(ctx context.Context, record T) (T, error) {
	return c.write(ctx, http.MethodPatch, contentTypeMergePatch, record)
}

// Delete removes the record stored under id.
func (c *Collection[T]) Delete(ctx context.Context, id domain.ID) error {
	return c.client.Do(ctx, http.MethodDelete, c.itemPath(id), nil, nil, nil)
}

func (c *Collection[T]) write(ctx context.Context, method, contentType string, record T) (T, error) {
	var out T
	id, ok := record.RecordID()
	if !ok {
		return out, fmt.Errorf("%s %s: %w", method, c.path, domain.ErrMissingID)
	}
	body, err := CleanEntity(record)
	if err != nil {
		return out, err
	}
	err = c.client.do(ctx, request{method: method, path: c.itemPath(id), body: body, contentType: contentType}, &out)
	return out, err
}

func (c *Collection[T]) itemPath(id domain.ID) string {
	return c.path + "/" + id.String()
}
