// Package repogen generates bun-backed storage adapters for the generic repositories.
//
// A Store executes repository.Criteria against one PostgreSQL table: it narrows reads
// and writes to the restricted tenant, applies case-insensitive search and the resolved
// sort order, eager-loads declared relations and produces staged writes for a
// bun.Tx unit of work. Constraint failures are translated into typed errx errors.
package repogen

import (
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/rise-and-shine/blocks/pg"
)

const (
	defaultSchema       = "public"
	defaultIDColumn     = "id"
	defaultTenantColumn = "tenant_id"
)

// Builder configures a Store with sensible defaults.
type Builder[E any] struct {
	idb          bun.IDB
	schemaName   string
	idColumn     string
	tenantColumn string
	codes        pg.ConflictCodes
	scopeFunc    func(q *bun.SelectQuery) *bun.SelectQuery
}

// NewBuilder starts a Store for model E read through idb.
func NewBuilder[E any](idb bun.IDB) *Builder[E] {
	return &Builder[E]{
		idb:          idb,
		schemaName:   defaultSchema,
		idColumn:     defaultIDColumn,
		tenantColumn: defaultTenantColumn,
		scopeFunc:    func(q *bun.SelectQuery) *bun.SelectQuery { return q },
	}
}

// WithSchemaName sets the schema name.
func (b *Builder[E]) WithSchemaName(name string) *Builder[E] {
	b.schemaName = name
	return b
}

// WithIDColumn sets the column matched against Criteria.ID.
func (b *Builder[E]) WithIDColumn(column string) *Builder[E] {
	b.idColumn = column
	return b
}

// WithTenantColumn sets the column compared with the restricted tenant.
func (b *Builder[E]) WithTenantColumn(column string) *Builder[E] {
	b.tenantColumn = column
	return b
}

// WithConflictCodes maps constraint names to domain error codes.
func (b *Builder[E]) WithConflictCodes(codes pg.ConflictCodes) *Builder[E] {
	b.codes = codes
	return b
}

// WithScopeFunc adds a condition to every read, e.g. hiding soft-deleted rows.
func (b *Builder[E]) WithScopeFunc(fn func(q *bun.SelectQuery) *bun.SelectQuery) *Builder[E] {
	b.scopeFunc = fn
	return b
}

// Build creates the Store.
func (b *Builder[E]) Build() *Store[E] {
	return &Store[E]{
		idb:          b.idb,
		table:        b.idb.Dialect().Tables().Get(reflect.TypeFor[E]()),
		schemaName:   b.schemaName,
		idColumn:     b.idColumn,
		tenantColumn: b.tenantColumn,
		codes:        b.codes,
		scopeFunc:    b.scopeFunc,
	}
}

// hasRelation reports whether path ("Tags", "Comments.Author") names a relation
// reachable from table.
func hasRelation(table *schema.Table, path string) bool {
	for _, name := range strings.Split(path, ".") {
		if table == nil {
			return false
		}
		rel, ok := table.Relations[name]
		if !ok {
			return false
		}
		table = rel.JoinTable
	}
	return true
}
