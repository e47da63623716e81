package repository

import "errors"

// ErrStaleDocument is returned when an optimistic lock-version check fails:
// another transition committed between read and write.
var ErrStaleDocument = errors.New("document was modified concurrently")

// ListQuery holds common pagination and filter parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	Filters map[string]string
}

// NewListQuery returns a query with sane defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

// Offset returns the row offset for the current page
func (q *ListQuery) Offset() int {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	return (q.Page - 1) * q.PerPage
}
