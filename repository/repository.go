// Package repository provides generic, tenant-scoped read and write repositories.
//
// Repositories are composed from a Definition (what the aggregate looks like and how it
// may be searched and sorted) and a storage adapter that executes Criteria. The generic
// layer owns tenant scoping, sort resolution and page construction; adapters only know
// how to select, insert, update and delete.
package repository

import (
	"context"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/sorter"
	"github.com/rise-and-shine/blocks/tenancy"
	"github.com/rise-and-shine/blocks/uow"
)

// Read is the read-side contract for aggregate E identified by ID.
type Read[E any, ID comparable] interface {
	// GetByID returns the aggregate, or nil without error when it does not exist or is
	// not visible to scope.
	GetByID(ctx context.Context, scope tenancy.Scope, id ID) (*E, error)
	// GetPaged returns one page of aggregates matching f, ordered deterministically.
	GetPaged(ctx context.Context, scope tenancy.Scope, f *pagination.Filter) (pagination.PagedList[E], error)
}

// Write is the write-side contract. Mutations are staged into a unit of work and only
// become visible when it commits.
type Write[E any] interface {
	Add(ctx context.Context, scope tenancy.Scope, entity *E) error
	Update(ctx context.Context, scope tenancy.Scope, entity *E) error
	Delete(ctx context.Context, scope tenancy.Scope, entity *E) error
}

// Criteria is the storage-neutral description of one read or write.
type Criteria struct {
	// Restricted narrows the working set to rows owned by TenantID.
	Restricted bool
	TenantID   string

	// ID selects a single aggregate when non-nil.
	ID any

	// Search is matched case-insensitively as a substring of any SearchFields column.
	Search       string
	SearchFields []string

	Sort   sorter.SortOpts
	Limit  int
	Offset int

	Includes entityquery.Query
}

// Reader executes read Criteria.
type Reader[E any] interface {
	// FindOne returns the single matching row or nil when none matches.
	FindOne(ctx context.Context, c Criteria) (*E, error)
	// FindPage returns the rows of the requested window plus the count of all matching rows.
	FindPage(ctx context.Context, c Criteria) ([]E, int64, error)
}

// Store executes reads and produces staged writes for transaction handle T.
// Update and delete operations must honor the Criteria restriction, leave the tenant of a
// row unchanged under a restricted Criteria, and report the number of rows they affected.
// Staged operations read the entity when the unit of work commits, so changes made to it
// after staging are written. Rows are copied shallowly: slices and maps in a returned
// aggregate may share memory with the stored row until it is replaced.
type Store[E any, T any] interface {
	Reader[E]
	InsertOp(entity *E) uow.Op[T]
	UpdateOp(entity *E, c Criteria) uow.Op[T]
	DeleteOp(entity *E, c Criteria) uow.Op[T]
}
