package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/repository"
	"github.com/rise-and-shine/blocks/sorter"
	"github.com/rise-and-shine/blocks/tenancy"
)

type note struct {
	ID     string
	Tenant string
}

func (n *note) GetTenantID() string   { return n.Tenant }
func (n *note) SetTenantID(id string) { n.Tenant = id }

// country carries no tenant and is visible to everyone.
type country struct {
	Code string
}

type mockReader[E any] struct {
	mock.Mock
}

func (m *mockReader[E]) FindOne(ctx context.Context, c repository.Criteria) (*E, error) {
	args := m.Called(ctx, c)
	e, _ := args.Get(0).(*E)
	return e, args.Error(1)
}

func (m *mockReader[E]) FindPage(ctx context.Context, c repository.Criteria) ([]E, int64, error) {
	args := m.Called(ctx, c)
	items, _ := args.Get(0).([]E)
	return items, args.Get(1).(int64), args.Error(2)
}

func TestGetPagedBuildsCriteria(t *testing.T) {
	reader := &mockReader[note]{}
	def := repository.Definition[note, string]{
		Shape:        entityquery.Relations[note]("Attachments"),
		SearchFields: []string{"body"},
		Sort: sorter.Resolver{
			Columns: map[string]string{"created": "created_at"},
			Default: sorter.Make(sorter.Opt{F: "created_at", D: sorter.Desc}),
		},
		IDOf: func(n *note) string { return n.ID },
	}
	r := repository.NewReadRepo(def, reader)

	want := repository.Criteria{
		Restricted:   true,
		TenantID:     "acme",
		Search:       "draft",
		SearchFields: []string{"body"},
		Sort:         sorter.SortOpts{{F: "created_at", D: sorter.Asc}, {F: "id", D: sorter.Asc}},
		Limit:        5,
		Offset:       10,
		Includes:     entityquery.Query{}.Include("Attachments"),
	}
	reader.On("FindPage", mock.Anything, want).Return([]note{{ID: "n1"}}, int64(11), nil).Once()

	f := pagination.NewFilter().
		SetSearchBy(" draft ").
		SetSortField("created").
		SetSortDirection("asc").
		SetPageSize(5).
		SetPageNumber(3)

	page, err := r.GetPaged(t.Context(), tenancy.ForTenant("acme", "u1"), f)
	require.NoError(t, err)
	assert.Equal(t, int64(11), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 1)
	reader.AssertExpectations(t)
}

func TestGetByIDOnGlobalAggregateIsNotRestricted(t *testing.T) {
	reader := &mockReader[country]{}
	r := repository.NewReadRepo(repository.Definition[country, string]{
		IDOf: func(c *country) string { return c.Code },
	}, reader)

	reader.On("FindOne", mock.Anything, mock.MatchedBy(func(c repository.Criteria) bool {
		return !c.Restricted && c.ID == "UZ" && c.Includes.Len() == 0
	})).Return(&country{Code: "UZ"}, nil).Once()

	got, err := r.GetByID(t.Context(), tenancy.ForTenant("acme", "u1"), "UZ")
	require.NoError(t, err)
	assert.Equal(t, "UZ", got.Code)
	reader.AssertExpectations(t)
}

func TestGetByIDAbsentIsNotAnError(t *testing.T) {
	reader := &mockReader[note]{}
	r := repository.NewReadRepo(repository.Definition[note, string]{IDOf: func(n *note) string { return n.ID }}, reader)

	reader.On("FindOne", mock.Anything, mock.Anything).Return(nil, nil).Once()

	got, err := r.GetByID(t.Context(), tenancy.System("root"), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}
