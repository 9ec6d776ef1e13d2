package repogen

import (
	"context"
	"fmt"
	"strings"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/pg"
	"github.com/rise-and-shine/blocks/repository"
	"github.com/rise-and-shine/blocks/sorter"
	"github.com/rise-and-shine/blocks/uow"
)

// Store executes repository Criteria for model E on PostgreSQL.
type Store[E any] struct {
	idb          bun.IDB
	table        *schema.Table
	schemaName   string
	idColumn     string
	tenantColumn string
	codes        pg.ConflictCodes
	scopeFunc    func(q *bun.SelectQuery) *bun.SelectQuery
}

var _ repository.Store[struct{}, bun.Tx] = (*Store[struct{}])(nil)

// New creates a Store with default settings.
func New[E any](idb bun.IDB) *Store[E] {
	return NewBuilder[E](idb).Build()
}

// FindOne returns the row matching c, or nil when there is none.
func (s *Store[E]) FindOne(ctx context.Context, c repository.Criteria) (*E, error) {
	entities := make([]E, 0, 1)
	q := s.idb.NewSelect().Model(&entities).Limit(1)
	q, err := s.applyRead(q, c)
	if err != nil {
		return nil, err
	}
	if c.ID != nil {
		q = q.Where("?TableAlias.? = ?", bun.Ident(s.idColumn), c.ID)
	}

	if err = q.Scan(ctx); err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}

	if len(entities) == 0 {
		return nil, nil //nolint:nilnil // absence is not an error for readers
	}
	return &entities[0], nil
}

// FindPage returns the rows in the window of c together with the number of all
// matching rows. The window is not queried when nothing matches.
func (s *Store[E]) FindPage(ctx context.Context, c repository.Criteria) ([]E, int64, error) {
	entities := make([]E, 0, max(c.Limit, 0))
	q := s.idb.NewSelect().Model(&entities)
	q, err := s.applyRead(q, c)
	if err != nil {
		return nil, 0, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	if total == 0 || c.Offset >= total {
		return entities, int64(total), nil
	}

	q = applySort(q, c.Sort)
	if c.Limit > 0 {
		q = q.Limit(c.Limit)
	}
	if c.Offset > 0 {
		q = q.Offset(c.Offset)
	}

	if err = q.Scan(ctx); err != nil {
		return nil, 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return entities, int64(total), nil
}

// InsertOp inserts entity and scans database defaults back into it.
func (s *Store[E]) InsertOp(entity *E) uow.Op[bun.Tx] {
	return func(ctx context.Context, tx bun.Tx) (int64, error) {
		q := tx.NewInsert().Model(entity).Returning("*")
		q = q.ModelTableExpr("?.? AS ?", bun.Ident(s.schemaName), bun.Ident(s.table.Name), bun.Ident(s.table.Alias))
		res, err := q.Exec(ctx)
		if err != nil {
			return 0, pg.Translate(err, s.codes, q)
		}
		return rowsAffected(res, q)
	}
}

// UpdateOp updates entity by primary key within the restriction of c.
func (s *Store[E]) UpdateOp(entity *E, c repository.Criteria) uow.Op[bun.Tx] {
	return func(ctx context.Context, tx bun.Tx) (int64, error) {
		q := tx.NewUpdate().Model(entity).WherePK()
		q = q.ModelTableExpr("?.? AS ?", bun.Ident(s.schemaName), bun.Ident(s.table.Name), bun.Ident(s.table.Alias))
		if c.Restricted {
			q = q.ExcludeColumn(s.tenantColumn)
			q = q.Where("?TableAlias.? = ?", bun.Ident(s.tenantColumn), c.TenantID)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return 0, pg.Translate(err, s.codes, q)
		}
		return rowsAffected(res, q)
	}
}

// DeleteOp deletes entity by primary key within the restriction of c.
func (s *Store[E]) DeleteOp(entity *E, c repository.Criteria) uow.Op[bun.Tx] {
	return func(ctx context.Context, tx bun.Tx) (int64, error) {
		q := tx.NewDelete().Model(entity).WherePK()
		q = q.ModelTableExpr("?.? AS ?", bun.Ident(s.schemaName), bun.Ident(s.table.Name), bun.Ident(s.table.Alias))
		if c.Restricted {
			q = q.Where("?TableAlias.? = ?", bun.Ident(s.tenantColumn), c.TenantID)
		}
		res, err := q.Exec(ctx)
		if err != nil {
			return 0, pg.Translate(err, s.codes, q)
		}
		return rowsAffected(res, q)
	}
}

// applyRead adds the table expression, tenant restriction, search and relations of c.
func (s *Store[E]) applyRead(q *bun.SelectQuery, c repository.Criteria) (*bun.SelectQuery, error) {
	err := entityquery.Verify(c.Includes, func(path string) bool {
		return hasRelation(s.table, path)
	})
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"table": s.table.Name}))
	}

	q = q.ModelTableExpr("?.? AS ?", bun.Ident(s.schemaName), bun.Ident(s.table.Name), bun.Ident(s.table.Alias))
	q = s.scopeFunc(q)

	if c.Restricted {
		q = q.Where("?TableAlias.? = ?", bun.Ident(s.tenantColumn), c.TenantID)
	}

	if c.Search != "" && len(c.SearchFields) > 0 {
		pattern := "%" + escapeLike(c.Search) + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, field := range c.SearchFields {
				sq = sq.WhereOr("?TableAlias.? ILIKE ?", bun.Ident(field), pattern)
			}
			return sq
		})
	}

	for _, path := range c.Includes.Includes() {
		q = q.Relation(path)
	}
	return q, nil
}

func applySort(q *bun.SelectQuery, opts sorter.SortOpts) *bun.SelectQuery {
	for _, o := range opts {
		dir := "ASC"
		if o.D == sorter.Desc {
			dir = "DESC"
		}
		q = q.OrderExpr("?TableAlias.? "+dir, bun.Ident(o.F))
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes the search term match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type sqlResult interface {
	RowsAffected() (int64, error)
}

func rowsAffected(res sqlResult, q fmt.Stringer) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, errx.WithDetails(pg.GetPgErrorDetails(err, q)))
	}
	return n, nil
}
