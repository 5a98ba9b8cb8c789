// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the number of rows shown in paged lists. The API returns
// whole lists; paging happens in the console.
const PageSize = 50

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int `json:"start"`     // 1-based start index (0 if no results)
	End       int `json:"end"`       // 1-based end index (0 if no results)
	PrevStart int `json:"prevStart"` // start value for previous page link
	NextStart int `json:"nextStart"` // start value for next page link
}

// computeRangeWithSize calculates display range values given the current
// start index and number of items shown.
func computeRangeWithSize(start, shown, pageSize int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}

	prevStart := start - pageSize
	if prevStart < 1 {
		prevStart = 1
	}

	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}

// Page is one window of a list.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasPrev bool `json:"hasPrev"`
	HasNext bool `json:"hasNext"`
	Range
}

// Slice returns the page of rows beginning at the 1-based start.
func Slice[T any](rows []T, start int) Page[T] {
	return sliceWithSize(rows, start, PageSize)
}

func sliceWithSize[T any](rows []T, start, pageSize int) Page[T] {
	if start < 1 {
		start = 1
	}
	total := len(rows)
	from := start - 1
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}

	items := rows[from:to]
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		HasPrev: from > 0,
		HasNext: to < total,
		Range:   computeRangeWithSize(start, len(items), pageSize),
	}
}
