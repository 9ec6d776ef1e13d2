package pagination

// PagedList is one page of results plus the metadata of the full filtered result set.
type PagedList[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPagedList creates a page envelope for items fetched with f.
// Items beyond the page size are dropped.
func NewPagedList[T any](items []T, totalCount int64, f *Filter) PagedList[T] {
	size := f.PageSize()
	if len(items) > size {
		items = items[:size]
	}
	if items == nil {
		items = []T{}
	}
	if totalCount < int64(len(items)) {
		totalCount = int64(len(items))
	}

	pageCount := int(totalCount / int64(size))
	if totalCount%int64(size) > 0 {
		pageCount++
	}

	return PagedList[T]{
		Items:      items,
		TotalCount: totalCount,
		PageNumber: f.PageNumber(),
		PageSize:   size,
		TotalPages: pageCount,
	}
}

// HasNext reports whether a page after this one exists.
func (p PagedList[T]) HasNext() bool {
	return p.PageNumber < p.TotalPages
}

// HasPrev reports whether a page before this one exists.
func (p PagedList[T]) HasPrev() bool {
	return p.PageNumber > 1
}

// MapPaged converts the items of a page and keeps its metadata.
func MapPaged[T, U any](p PagedList[T], fn func(T) U) PagedList[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return PagedList[U]{
		Items:      items,
		TotalCount: p.TotalCount,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
