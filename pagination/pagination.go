// Package pagination normalizes caller-supplied search/sort/page parameters and
// carries page envelopes with total-count metadata.
package pagination

import (
	"fmt"
	"math"
	"strings"

	"github.com/rise-and-shine/blocks/sorter"
)

// Request holds raw paging parameters as they arrive from a transport (query string, JSON).
// Nil pointers mean the parameter was not supplied.
type Request struct {
	SearchBy      *string `query:"search_by"      json:"search_by,omitempty"`
	SortField     *string `query:"sort_field"     json:"sort_field,omitempty"`
	SortDirection *string `query:"sort_direction" json:"sort_direction,omitempty"`
	PageNumber    int     `query:"page_number"    json:"page_number,omitempty"`
	PageSize      int     `query:"page_size"      json:"page_size,omitempty"`
}

// ToFilter normalizes the request into a Filter.
func (r Request) ToFilter(opts ...Option) *Filter {
	f := NewFilter(opts...)
	if r.SearchBy != nil {
		f.SetSearchBy(*r.SearchBy)
	}
	if r.SortField != nil {
		f.SetSortField(*r.SortField)
	}
	if r.SortDirection != nil {
		f.SetSortDirection(*r.SortDirection)
	}
	f.SetPageNumber(r.PageNumber)
	f.SetPageSize(r.PageSize)
	return f
}

// Filter is a per-request set of search, sort and paging parameters.
//
// String setters trim whitespace; an empty string after trimming is kept as a present,
// empty value and is distinct from an absent one. Page number and size are kept at 1 or
// above regardless of input; the zero Filter is valid and reports page 1 with the
// default size.
type Filter struct {
	cfg Config

	searchBy      *string
	sortField     *string
	sortDirection *string
	pageNumber    int
	pageSize      int
}

// NewFilter creates a Filter on page 1 with the configured default size.
func NewFilter(opts ...Option) *Filter {
	cfg := buildConfig(opts)
	return &Filter{
		cfg:        cfg,
		pageNumber: 1,
		pageSize:   cfg.DefaultPageSize,
	}
}

func (f *Filter) config() Config {
	if f.cfg.DefaultPageSize < 1 {
		return DefaultConfig()
	}
	return f.cfg
}

func (f *Filter) SetSearchBy(v string) *Filter {
	f.searchBy = trimmed(v)
	return f
}

func (f *Filter) SetSortField(v string) *Filter {
	f.sortField = trimmed(v)
	return f
}

func (f *Filter) SetSortDirection(v string) *Filter {
	f.sortDirection = trimmed(v)
	return f
}

// ClearSearchBy marks the search term as absent.
func (f *Filter) ClearSearchBy() *Filter {
	f.searchBy = nil
	return f
}

// SetPageNumber assigns the page number; anything below 1 becomes 1.
func (f *Filter) SetPageNumber(n int) *Filter {
	if n < 1 {
		n = 1
	}
	f.pageNumber = n
	return f
}

// SetPageSize assigns the page size; anything below 1 becomes the configured default
// and anything above the configured maximum is capped.
func (f *Filter) SetPageSize(n int) *Filter {
	cfg := f.config()
	if n < 1 {
		n = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && n > cfg.MaxPageSize {
		n = cfg.MaxPageSize
	}
	f.pageSize = n
	return f
}

// SearchBy returns the trimmed search term and whether one was supplied.
func (f *Filter) SearchBy() (string, bool) {
	return deref(f.searchBy)
}

func (f *Filter) SortField() (string, bool) {
	return deref(f.sortField)
}

func (f *Filter) SortDirection() (string, bool) {
	return deref(f.sortDirection)
}

func (f *Filter) PageNumber() int {
	if f.pageNumber < 1 {
		return 1
	}
	return f.pageNumber
}

func (f *Filter) PageSize() int {
	if f.pageSize < 1 {
		return f.config().DefaultPageSize
	}
	return f.pageSize
}

// SortPolicy returns the configured policy for unknown sort fields and directions.
func (f *Filter) SortPolicy() sorter.Policy {
	return f.config().SortPolicy
}

// Direction resolves the sort direction under the configured policy.
func (f *Filter) Direction() (sorter.SortDirection, error) {
	raw, _ := f.SortDirection()
	return sorter.ParseDirection(raw, f.SortPolicy())
}

// Offset returns the offset value. It saturates at math.MaxInt when the page
// number is too large to multiply out.
func (f *Filter) Offset() int {
	skip, size := f.PageNumber()-1, f.PageSize()
	if skip > math.MaxInt/size {
		return math.MaxInt
	}
	return skip * size
}

// Limit returns the limit value.
func (f *Filter) Limit() int {
	return f.PageSize()
}

func (f *Filter) String() string {
	search, _ := f.SearchBy()
	field, _ := f.SortField()
	dir, _ := f.SortDirection()
	return fmt.Sprintf("search=%q sort=%s:%s page=%d size=%d", search, field, dir, f.PageNumber(), f.PageSize())
}

func trimmed(v string) *string {
	t := strings.TrimSpace(v)
	return &t
}

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}
