// Package domain defines the business records exchanged with the REST
// collection endpoints and the small value types they share.
package domain

import (
	"errors"
	"time"
)

// Collection paths served by the backend, relative to the API base URL.
const (
	CollectionEntityA       = "api/entity-as"
	CollectionEntityB       = "api/entity-bs"
	CollectionEntityHistory = "api/entity-histories"
)

// ErrMissingID rejects updates of records that were never persisted.
var ErrMissingID = errors.New("record has no id")

// Record is implemented by every entity value type managed by a slice.
type Record interface {
	// RecordID returns the identifier; false marks a record that was never persisted.
	RecordID() (ID, bool)
	// FieldValue returns the value of a JSON-named field. Absent values report false.
	FieldValue(name string) (any, bool)
}

// Compile-time assertions that all entity types satisfy Record.
var (
	_ Record = EntityA{}
	_ Record = EntityB{}
	_ Record = EntityHistory{}
)

// EntityA is a named record with a free-form title and description.
type EntityA struct {
	ID          *ID     `json:"id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// RecordID implements Record.
func (e EntityA) RecordID() (ID, bool) { return derefID(e.ID) }

// FieldValue implements Record.
func (e EntityA) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return idValue(e.ID)
	case "name":
		return stringValue(e.Name)
	case "title":
		return stringValue(e.Title)
	case "description":
		return stringValue(e.Description)
	}
	return nil, false
}

// EntityB is a person-like record.
type EntityB struct {
	ID        *ID     `json:"id,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// RecordID implements Record.
func (e EntityB) RecordID() (ID, bool) { return derefID(e.ID) }

// FieldValue implements Record.
func (e EntityB) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return idValue(e.ID)
	case "firstName":
		return stringValue(e.FirstName)
	case "lastName":
		return stringValue(e.LastName)
	}
	return nil, false
}

// EntityHistory is an audit entry describing an action applied to another
// entity. Content carries an optional binary payload whose MIME type travels
// separately in ContentContentType; JSON encodes the bytes as base64.
type EntityHistory struct {
	ID                 *ID        `json:"id,omitempty"`
	UserLogin          *string    `json:"userLogin,omitempty"`
	EntityName         *string    `json:"entityName,omitempty"`
	EntityID           *ID        `json:"entityId,omitempty"`
	ActionType         *Action    `json:"actionType,omitempty"`
	Content            []byte     `json:"content,omitempty"`
	ContentContentType *string    `json:"contentContentType,omitempty"`
	CreationDate       *time.Time `json:"creationDate,omitempty"`
}

// RecordID implements Record.
func (e EntityHistory) RecordID() (ID, bool) { return derefID(e.ID) }

// FieldValue implements Record.
func (e EntityHistory) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return idValue(e.ID)
	case "userLogin":
		return stringValue(e.UserLogin)
	case "entityName":
		return stringValue(e.EntityName)
	case "entityId":
		return idValue(e.EntityID)
	case "actionType":
		if e.ActionType == nil {
			return nil, false
		}
		return string(*e.ActionType), true
	case "contentContentType":
		return stringValue(e.ContentContentType)
	case "creationDate":
		if e.CreationDate == nil {
			return nil, false
		}
		return *e.CreationDate, true
	}
	return nil, false
}

// HasContent reports whether the record carries a binary payload.
func (e EntityHistory) HasContent() bool { return len(e.Content) > 0 }

// Ref returns a pointer to v. Handy for populating optional record fields.
func Ref[V any](v V) *V { return &v }

func derefID(id *ID) (ID, bool) {
	if id == nil {
		return 0, false
	}
	return *id, true
}

func idValue(id *ID) (any, bool) {
	if id == nil {
		return nil, false
	}
	return int64(*id), true
}

func stringValue(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}
