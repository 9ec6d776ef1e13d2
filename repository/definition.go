package repository

import (
	"reflect"
	"strings"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/sorter"
	"github.com/rise-and-shine/blocks/tenancy"
)

const (
	defaultIDColumn = "id"
	defaultNotFound = "OBJECT_NOT_FOUND"
)

// Definition describes an aggregate to the generic repositories.
type Definition[E any, ID comparable] struct {
	// Name is used in error messages. Defaults to the Go type name of E.
	Name string
	// NotFoundCode is reported when an update or delete matches nothing.
	NotFoundCode string
	// Shape declares the related data every read attaches.
	Shape entityquery.Configuration[E]
	// SearchFields are storage columns matched against Filter.SearchBy.
	SearchFields []string
	// Sort maps public sort fields to columns. Its TieBreaker defaults to "id".
	Sort sorter.Resolver
	// IDOf returns the identifier of an aggregate.
	IDOf func(*E) ID
}

func (d Definition[E, ID]) normalized() Definition[E, ID] {
	if d.Name == "" {
		d.Name = strings.ToLower(reflect.TypeFor[E]().Name())
	}
	if d.NotFoundCode == "" {
		d.NotFoundCode = defaultNotFound
	}
	if d.Sort.TieBreaker == "" {
		d.Sort.TieBreaker = defaultIDColumn
	}
	if d.Shape == nil {
		d.Shape = entityquery.None[E]()
	}
	return d
}

// tenanted reports whether *E carries a tenant. Aggregates without one are global and
// are never narrowed by scope.
func (d Definition[E, ID]) tenanted() bool {
	return reflect.TypeFor[*E]().Implements(reflect.TypeFor[tenancy.Tenanted]())
}

func (d Definition[E, ID]) scoped(scope tenancy.Scope) Criteria {
	c := Criteria{Includes: entityquery.Apply[E](d.Shape)}
	if d.tenanted() {
		c.TenantID, c.Restricted = scope.Restriction()
	}
	return c
}

func (d Definition[E, ID]) pageCriteria(scope tenancy.Scope, f *pagination.Filter) (Criteria, error) {
	c := d.scoped(scope)

	if search, ok := f.SearchBy(); ok && search != "" && len(d.SearchFields) > 0 {
		c.Search = search
		c.SearchFields = d.SearchFields
	}

	resolver := d.Sort
	resolver.Policy = f.SortPolicy()
	field, _ := f.SortField()
	direction, _ := f.SortDirection()
	sort, err := resolver.Resolve(field, direction)
	if err != nil {
		return Criteria{}, err
	}
	c.Sort = sort

	c.Limit = f.Limit()
	c.Offset = f.Offset()
	return c, nil
}
