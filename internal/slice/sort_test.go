package slice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hugperez/jhipster-listener/pkg/domain"
)

func names(in []domain.EntityA) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e.Name == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, *e.Name)
	}
	return out
}

func TestParseSort(t *testing.T) {
	tok, ok := ParseSort("name,DESC")
	assert.True(t, ok)
	assert.Equal(t, SortToken{Field: "name", Direction: DESC}, tok)
	assert.Equal(t, "name,DESC", tok.String())

	tok, ok = ParseSort("id")
	assert.True(t, ok)
	assert.False(t, tok.Ascending())

	_, ok = ParseSort("")
	assert.False(t, ok)
	_, ok = ParseSort(",ASC")
	assert.False(t, ok)
}

func TestSortEntities(t *testing.T) {
	in := []domain.EntityA{a(3, "c"), a(1, "a"), a(2, "b")}

	assert.Equal(t, []string{"a", "b", "c"}, names(SortEntities(in, "name,ASC")))
	assert.Equal(t, []string{"c", "b", "a"}, names(SortEntities(in, "name,DESC")))
	assert.Equal(t, []string{"c", "b", "a"}, names(SortEntities(in, "name,desc")), "only exact ASC sorts ascending")
	assert.Equal(t, []string{"c", "a", "b"}, names(SortEntities(in, "")), "no token keeps server order")
	assert.Equal(t, []string{"a", "b", "c"}, names(SortEntities(in, "id,ASC")))
	assert.Equal(t, []string{"c", "a", "b"}, names(in), "input must not be reordered")
}

func TestSortEntitiesStableWithMissingValues(t *testing.T) {
	in := []domain.EntityA{a(1, "b"), {ID: domain.Ref(domain.ID(2))}, a(3, "a")}
	got := SortEntities(in, "title,ASC")
	assert.Equal(t, []string{"b", "<nil>", "a"}, names(got))
}

func TestSortEntitiesPutsMissingValuesLast(t *testing.T) {
	blank := domain.EntityA{ID: domain.Ref(domain.ID(9))}
	in := []domain.EntityA{a(2, "b"), blank, a(1, "a")}
	assert.Equal(t, []string{"a", "b", "<nil>"}, names(SortEntities(in, "name,ASC")))
	assert.Equal(t, []string{"b", "a", "<nil>"}, names(SortEntities(in, "name,DESC")))

	in = []domain.EntityA{a(3, "c"), a(2, "b"), blank, a(1, "a"), {ID: domain.Ref(domain.ID(8))}}
	assert.Equal(t, []string{"a", "b", "c", "<nil>", "<nil>"}, names(SortEntities(in, "name,ASC")))
	got := SortEntities(in, "name,DESC")
	assert.Equal(t, []string{"c", "b", "a", "<nil>", "<nil>"}, names(got))
	last, _ := got[4].RecordID()
	assert.Equal(t, domain.ID(8), last, "missing values keep their server order")
}

func TestSortHistoryByDate(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	in := []domain.EntityHistory{{ID: domain.Ref(domain.ID(1)), CreationDate: &t2}, {ID: domain.Ref(domain.ID(2)), CreationDate: &t1}}
	got := SortEntities(in, "creationDate,ASC")
	id, _ := got[0].RecordID()
	assert.Equal(t, domain.ID(2), id)
}
