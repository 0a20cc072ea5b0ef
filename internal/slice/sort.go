package slice

import (
	"sort"
	"strings"
	"time"

	"github.com/hugperez/jhipster-listener/pkg/domain"
)

// Direction is the order requested by a sort token.
type Direction string

// Sort directions.
const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// SortToken is a parsed "field,DIRECTION" token.
type SortToken struct {
	Field     string
	Direction Direction
}

// String renders the token in its wire form.
func (t SortToken) String() string { return t.Field + "," + string(t.Direction) }

// Ascending reports whether the token requests ascending order. Only the
// exact "ASC" tag sorts ascending; anything else sorts descending.
func (t SortToken) Ascending() bool { return t.Direction == ASC }

// ParseSort splits a sort token. ok is false for an empty token or a token
// without a field name.
func ParseSort(token string) (SortToken, bool) {
	if token == "" {
		return SortToken{}, false
	}
	field, dir, _ := strings.Cut(token, ",")
	if field == "" {
		return SortToken{}, false
	}
	return SortToken{Field: field, Direction: Direction(dir)}, true
}

// SortEntities returns a sorted copy of entities. Without a usable token the
// server order is kept. Ties keep their server order. Records without a value
// for the field sort after all others in either direction.
func SortEntities[T domain.Record](entities []T, token string) []T {
	out := cloneEntities(entities)
	tok, ok := ParseSort(token)
	if !ok {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].FieldValue(tok.Field)
		b, bok := out[j].FieldValue(tok.Field)
		if !aok || !bok {
			return aok && !bok
		}
		if tok.Ascending() {
			return less(a, b)
		}
		return less(b, a)
	})
	return out
}

// less orders two field values of the same kind. Values of different or
// unknown kinds are incomparable.
func less(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av < bv
	case int64:
		bv, ok := b.(int64)
		return ok && av < bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Before(bv)
	}
	return false
}
