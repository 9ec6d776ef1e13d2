package pagination_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/sorter"
)

func TestFilterPageBoundsHoldForAnyAssignments(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		f := pagination.NewFilter(pagination.WithDefaultPageSize(15))
		for range 20 {
			v := rng.IntN(400) - 200
			if rng.IntN(2) == 0 {
				f.SetPageNumber(v)
			} else {
				f.SetPageSize(v)
			}
			require.GreaterOrEqual(t, f.PageNumber(), 1)
			require.GreaterOrEqual(t, f.PageSize(), 1)
		}
	}
}

func TestFilterZeroValueIsUsable(t *testing.T) {
	var f pagination.Filter
	assert.Equal(t, 1, f.PageNumber())
	assert.Equal(t, 20, f.PageSize())
	assert.Equal(t, 0, f.Offset())
	assert.Equal(t, sorter.Lenient, f.SortPolicy())
}

func TestFilterPageSize(t *testing.T) {
	tests := []struct {
		name string
		opts []pagination.Option
		in   int
		want int
	}{
		{name: "negative uses default", in: -3, want: 20},
		{name: "zero uses default", in: 0, want: 20},
		{name: "custom default", opts: []pagination.Option{pagination.WithDefaultPageSize(7)}, in: 0, want: 7},
		{name: "within bounds kept", in: 50, want: 50},
		{name: "above max capped", in: 5000, want: 100},
		{name: "cap disabled", opts: []pagination.Option{pagination.WithMaxPageSize(0)}, in: 5000, want: 5000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := pagination.NewFilter(tc.opts...).SetPageSize(tc.in)
			assert.Equal(t, tc.want, f.PageSize())
		})
	}
}

func TestFilterPageNumber(t *testing.T) {
	f := pagination.NewFilter()
	assert.Equal(t, 1, f.SetPageNumber(-10).PageNumber())
	assert.Equal(t, 1, f.SetPageNumber(0).PageNumber())
	assert.Equal(t, 4, f.SetPageNumber(4).PageNumber())
	assert.Equal(t, 60, f.SetPageSize(20).Offset())
	assert.Equal(t, 20, f.Limit())
}

func TestFilterOffsetSaturates(t *testing.T) {
	f := pagination.NewFilter().SetPageSize(20).SetPageNumber(math.MaxInt / 10)
	assert.Equal(t, math.MaxInt, f.Offset())

	f.SetPageNumber(math.MaxInt)
	assert.Equal(t, math.MaxInt, f.Offset())

	f.SetPageSize(10).SetPageNumber(math.MaxInt / 10)
	assert.Equal(t, (math.MaxInt/10-1)*10, f.Offset(), "largest offset that still fits")
}

func TestFilterStringsAreTrimmedNotNulled(t *testing.T) {
	f := pagination.NewFilter()

	_, ok := f.SearchBy()
	assert.False(t, ok, "absent by default")

	f.SetSearchBy("  milk  ")
	v, ok := f.SearchBy()
	assert.True(t, ok)
	assert.Equal(t, "milk", v)

	f.SetSearchBy("   ")
	v, ok = f.SearchBy()
	assert.True(t, ok, "empty after trim is still present")
	assert.Empty(t, v)

	f.ClearSearchBy()
	_, ok = f.SearchBy()
	assert.False(t, ok)

	f.SetSortField(" title ").SetSortDirection(" DESC ")
	field, _ := f.SortField()
	dir, _ := f.SortDirection()
	assert.Equal(t, "title", field)
	assert.Equal(t, "DESC", dir)
}

func TestFilterDirectionPolicy(t *testing.T) {
	t.Run("lenient", func(t *testing.T) {
		f := pagination.NewFilter().SetSortDirection("upwards")
		d, err := f.Direction()
		require.NoError(t, err)
		assert.Equal(t, sorter.Asc, d)
	})

	t.Run("strict", func(t *testing.T) {
		f := pagination.NewFilter(pagination.WithSortPolicy(sorter.Strict)).SetSortDirection("upwards")
		_, err := f.Direction()
		require.Error(t, err)
	})

	t.Run("strict accepts desc", func(t *testing.T) {
		f := pagination.NewFilter(pagination.WithSortPolicy(sorter.Strict)).SetSortDirection("Desc")
		d, err := f.Direction()
		require.NoError(t, err)
		assert.Equal(t, sorter.Desc, d)
	})
}

func TestRequestToFilter(t *testing.T) {
	search := " bob "
	req := pagination.Request{SearchBy: &search, PageNumber: -1, PageSize: 0}

	f := req.ToFilter(pagination.WithDefaultPageSize(10))

	v, ok := f.SearchBy()
	assert.True(t, ok)
	assert.Equal(t, "bob", v)
	_, ok = f.SortField()
	assert.False(t, ok)
	assert.Equal(t, 1, f.PageNumber())
	assert.Equal(t, 10, f.PageSize())
}

func TestNewPagedList(t *testing.T) {
	f := pagination.NewFilter().SetPageSize(10)

	counts := []int{10, 10, 5}
	for i, n := range counts {
		f.SetPageNumber(i + 1)
		page := pagination.NewPagedList(make([]int, n), 25, f)

		assert.Len(t, page.Items, n)
		assert.Equal(t, int64(25), page.TotalCount)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, i+1, page.PageNumber)
		assert.Equal(t, i < 2, page.HasNext())
		assert.Equal(t, i > 0, page.HasPrev())
	}
}

func TestNewPagedListEnforcesBounds(t *testing.T) {
	f := pagination.NewFilter().SetPageSize(2)

	page := pagination.NewPagedList([]int{1, 2, 3}, 1, f)
	assert.Equal(t, []int{1, 2}, page.Items)
	assert.Equal(t, int64(2), page.TotalCount)

	empty := pagination.NewPagedList[int](nil, 0, f)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestMapPaged(t *testing.T) {
	f := pagination.NewFilter().SetPageSize(2)
	page := pagination.NewPagedList([]int{1, 2}, 5, f)

	mapped := pagination.MapPaged(page, func(v int) string { return string(rune('a' + v)) })
	assert.Equal(t, []string{"b", "c"}, mapped.Items)
	assert.Equal(t, page.TotalPages, mapped.TotalPages)
	assert.Equal(t, page.TotalCount, mapped.TotalCount)
}
