package applications

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gaborage/licence-admin/apiclient"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSortBy    = "created_at"
	DefaultSortOrder = SortDesc

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// Filter names accepted by WithFilter
const (
	FilterPage      = "page"
	FilterLimit     = "limit"
	FilterStatus    = "status"
	FilterSearch    = "search"
	FilterSortBy    = "sortBy"
	FilterSortOrder = "sortOrder"
)

// SortableColumns lists the columns the backend can sort on
var SortableColumns = []string{"id", "full_name", "created_at", "status", "phone", "email"}

// ListQuery selects a page of applications
type ListQuery struct {
	Page      int    `json:"page" validate:"gte=1"`
	Limit     int    `json:"limit" validate:"gte=1,lte=100"`
	Status    Status `json:"status" validate:"omitempty,oneof=pending submitted approved rejected cancelled"`
	Search    string `json:"search"`
	SortBy    string `json:"sortBy" validate:"omitempty,oneof=id full_name created_at status phone email"`
	SortOrder string `json:"sortOrder" validate:"omitempty,oneof=ASC DESC"`
}

// DefaultListQuery returns the first page, newest first
func DefaultListQuery() ListQuery {
	return ListQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
	}
}

// normalized fills zero values with their defaults
func (q ListQuery) normalized() ListQuery {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSortBy
	}
	if q.SortOrder == "" {
		q.SortOrder = DefaultSortOrder
	}
	return q
}

// Params renders q as query parameters. Empty status and search are dropped
// by the client.
func (q ListQuery) Params() apiclient.Params {
	return apiclient.Params{
		FilterPage:      q.Page,
		FilterLimit:     q.Limit,
		FilterStatus:    string(q.Status),
		FilterSearch:    q.Search,
		FilterSortBy:    q.SortBy,
		FilterSortOrder: q.SortOrder,
	}
}

// WithFilter returns q with one filter changed. Changing anything other than
// the page goes back to the first page.
func (q ListQuery) WithFilter(name, value string) (ListQuery, error) {
	switch name {
	case FilterPage, FilterLimit:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return q, fmt.Errorf("%s must be a positive integer, got %q", name, value)
		}
		if name == FilterPage {
			q.Page = n
			return q, nil
		}
		q.Limit = n
	case FilterStatus:
		q.Status = Status(value)
	case FilterSearch:
		q.Search = value
	case FilterSortBy:
		q.SortBy = value
	case FilterSortOrder:
		q.SortOrder = value
	default:
		return q, fmt.Errorf("unknown filter %q", name)
	}
	q.Page = DefaultPage
	return q, nil
}

// ToggleSort sorts by column. Sorting again by the column that is already
// ascending flips it to descending; anything else sorts ascending.
func (q ListQuery) ToggleSort(column string) ListQuery {
	order := SortAsc
	if q.SortBy == column && q.SortOrder == SortAsc {
		order = SortDesc
	}
	q.SortBy = column
	q.SortOrder = order
	q.Page = DefaultPage
	return q
}

// IsSortable reports whether column can be sorted on
func IsSortable(column string) bool {
	return slices.Contains(SortableColumns, column)
}
