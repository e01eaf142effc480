package provider

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListQuery_Defaults(t *testing.T) {
	q, err := ParseListQuery(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 25, q.Limit)
	assert.Equal(t, 0, q.Offset())
	assert.Equal(t, []SortField{{Field: "createdAt", Desc: true}}, q.Sort)
	assert.Empty(t, q.Filters)
}

func TestParseListQuery_FiltersSelectSort(t *testing.T) {
	v, err := url.ParseQuery("name[in]=Hertz,Avis&createdAt[gte]=2024-01-01T00:00:00Z&address=Bangkok&select=name,tel&sort=name,-createdAt&page=3&limit=10")
	require.NoError(t, err)

	q, err := ParseListQuery(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "tel"}, q.Select)
	assert.Equal(t, []SortField{{Field: "name"}, {Field: "createdAt", Desc: true}}, q.Sort)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 20, q.Offset())

	require.Len(t, q.Filters, 3)
	assert.Equal(t, Filter{Field: "address", Op: OpEq, Values: []string{"Bangkok"}}, q.Filters[0])
	assert.Equal(t, Filter{Field: "createdAt", Op: OpGte, Values: []string{"2024-01-01T00:00:00Z"}}, q.Filters[1])
	assert.Equal(t, Filter{Field: "name", Op: OpIn, Values: []string{"Hertz", "Avis"}}, q.Filters[2])

	args := q.Filters[1].Args()
	require.Len(t, args, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), args[0])
}

func TestParseListQuery_LimitIsCapped(t *testing.T) {
	q, err := ParseListQuery(url.Values{"limit": {"1000"}})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, q.Limit)
}

func TestParseListQuery_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "unknown field", query: "password=x"},
		{name: "unknown operator", query: "name[regex]=x"},
		{name: "bad page", query: "page=0"},
		{name: "page overflows offset", query: "page=9223372036854775807&limit=10"},
		{name: "bad limit", query: "limit=abc"},
		{name: "unknown select", query: "select=secret"},
		{name: "unknown sort", query: "sort=-secret"},
		{name: "bad time", query: "createdAt[gt]=yesterday"},
		{name: "empty in", query: "name[in]=,"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			_, err = ParseListQuery(v)
			assert.True(t, errors.Is(err, ErrInvalidQuery), "got %v", err)
		})
	}
}

func TestProject_AlwaysIncludesID(t *testing.T) {
	p := Provider{ID: "p1", Name: "Hertz", Address: "Main St", Tel: "0812345678"}

	got := p.Project([]string{"name"})

	assert.Equal(t, map[string]any{"id": "p1", "name": "Hertz"}, got)
}

func TestApply_PartialUpdate(t *testing.T) {
	p := Provider{ID: "p1", Name: "Hertz", Address: "Main St", Tel: "0812345678"}
	addr := " New Rd "

	got := p.Apply(UpdateRequest{Address: &addr})

	assert.Equal(t, "Hertz", got.Name)
	assert.Equal(t, "New Rd", got.Address)
	assert.Equal(t, "0812345678", got.Tel)
	assert.False(t, got.UpdatedAt.IsZero())
}
