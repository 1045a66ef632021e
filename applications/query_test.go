package applications

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/licence-admin/apiclient"
)

func TestDefaultListQuery(t *testing.T) {
	q := DefaultListQuery()
	assert.Equal(t, ListQuery{Page: 1, Limit: 10, SortBy: "created_at", SortOrder: "DESC"}, q)
	assert.Equal(t, q, ListQuery{}.normalized())
}

func TestListQueryParams(t *testing.T) {
	q := DefaultListQuery()
	q.Status = StatusApproved

	assert.Equal(t, apiclient.Params{
		"page":      1,
		"limit":     10,
		"status":    "approved",
		"search":    "",
		"sortBy":    "created_at",
		"sortOrder": "DESC",
	}, q.Params())
}

func TestWithFilter(t *testing.T) {
	base := DefaultListQuery()
	base.Page = 4

	tests := []struct {
		name   string
		filter string
		value  string
		check  func(t *testing.T, q ListQuery)
	}{
		{"page keeps value", FilterPage, "7", func(t *testing.T, q ListQuery) {
			assert.Equal(t, 7, q.Page)
		}},
		{"status resets page", FilterStatus, "rejected", func(t *testing.T, q ListQuery) {
			assert.Equal(t, StatusRejected, q.Status)
			assert.Equal(t, 1, q.Page)
		}},
		{"search resets page", FilterSearch, "perera", func(t *testing.T, q ListQuery) {
			assert.Equal(t, "perera", q.Search)
			assert.Equal(t, 1, q.Page)
		}},
		{"limit resets page", FilterLimit, "25", func(t *testing.T, q ListQuery) {
			assert.Equal(t, 25, q.Limit)
			assert.Equal(t, 1, q.Page)
		}},
		{"sort column", FilterSortBy, "email", func(t *testing.T, q ListQuery) {
			assert.Equal(t, "email", q.SortBy)
			assert.Equal(t, 1, q.Page)
		}},
		{"sort order", FilterSortOrder, "ASC", func(t *testing.T, q ListQuery) {
			assert.Equal(t, "ASC", q.SortOrder)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := base.WithFilter(tt.filter, tt.value)
			require.NoError(t, err)
			tt.check(t, q)
		})
	}

	t.Run("errors leave the query unchanged", func(t *testing.T) {
		for _, c := range [][2]string{{FilterPage, "x"}, {FilterPage, "0"}, {FilterLimit, "-1"}, {"color", "red"}} {
			q, err := base.WithFilter(c[0], c[1])
			assert.Error(t, err, "%v", c)
			assert.Equal(t, base, q)
		}
	})
}

func TestToggleSort(t *testing.T) {
	q := DefaultListQuery()
	q.Page = 3

	// created_at DESC -> same column but not ASC, so ASC
	q = q.ToggleSort("created_at")
	assert.Equal(t, "created_at", q.SortBy)
	assert.Equal(t, SortAsc, q.SortOrder)
	assert.Equal(t, 1, q.Page)

	q = q.ToggleSort("created_at")
	assert.Equal(t, SortDesc, q.SortOrder)

	q = q.ToggleSort("created_at").ToggleSort("full_name")
	assert.Equal(t, "full_name", q.SortBy)
	assert.Equal(t, SortAsc, q.SortOrder)
}

func TestIsSortable(t *testing.T) {
	assert.True(t, IsSortable("phone"))
	assert.False(t, IsSortable("password"))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name     string
		result   ListResult
		page     int
		expected Pagination
	}{
		{"first of three", ListResult{TotalPages: 3, TotalItems: 25}, 1, Pagination{1, 3, 25, false, true}},
		{"middle", ListResult{TotalPages: 3, TotalItems: 25}, 2, Pagination{2, 3, 25, true, true}},
		{"last", ListResult{TotalPages: 3, TotalItems: 25}, 3, Pagination{3, 3, 25, true, false}},
		{"missing page count", ListResult{}, 1, Pagination{1, 1, 0, false, false}},
		{"zero page treated as first", ListResult{TotalPages: 2}, 0, Pagination{1, 2, 0, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DefaultListQuery()
			q.Page = tt.page
			assert.Equal(t, tt.expected, tt.result.Pagination(q))
		})
	}
}
