package report

import (
	"math"
	"sort"

	"tally/internal/core"
)

// DefaultPageSize is the number of rows on one tally sheet page.
const DefaultPageSize = 20

// Page is one window of the tally sheet.
type Page struct {
	Records    []core.Record
	Page       int
	PageSize   int
	TotalPages int
	Total      int
	// From and To are the 1-based positions shown as "Showing From to To of
	// Total". Both are zero for an empty window.
	From int
	To   int
}

// SortNewestFirst returns a copy of records ordered by sale date, newest
// first. Records on the same instant keep their input order.
func SortNewestFirst(records []core.Record) []core.Record {
	out := make([]core.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(a, b int) bool { return out[a].SaleDate.After(out[b].SaleDate) })
	return out
}

// Paginate sorts records newest first and returns the window for page.
//
// Page numbers are 1-based. Paginate does not clamp: callers pass a page in
// [1, TotalPages] (see ClampPage); a page outside that range yields an empty
// window with correct metadata.
func Paginate(records []core.Record, pageSize, page int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	sorted := SortNewestFirst(records)
	p := Page{
		Page:       page,
		PageSize:   pageSize,
		Total:      len(sorted),
		TotalPages: int(math.Ceil(float64(len(sorted)) / float64(pageSize))),
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start < 0 || start >= len(sorted) {
		p.Records = []core.Record{}
		return p
	}
	if end > len(sorted) {
		end = len(sorted)
	}
	p.Records = sorted[start:end]
	p.From = start + 1
	p.To = end
	return p
}

// ClampPage moves page into [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageCount is ceil(n / pageSize).
func PageCount(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return int(math.Ceil(float64(n) / float64(pageSize)))
}

// PageWindow returns up to width consecutive page numbers around current,
// shifted so the window stays inside [1, total].
func PageWindow(current, total, width int) []int {
	if total <= 0 || width <= 0 {
		return nil
	}
	if width > total {
		width = total
	}
	start := current - width/2
	if start < 1 {
		start = 1
	}
	if start+width-1 > total {
		start = total - width + 1
	}
	out := make([]int, width)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// HasPrev and HasNext drive the pager buttons.
func (p Page) HasPrev() bool { return p.Page > 1 }

func (p Page) HasNext() bool { return p.Page < p.TotalPages }
