package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/repository"
	"github.com/rise-and-shine/blocks/sorter"
	"github.com/rise-and-shine/blocks/tenancy"
	"github.com/rise-and-shine/blocks/uow"
)

const (
	CodeDuplicateID   = "DUPLICATE_ID"
	CodeUnknownColumn = "UNKNOWN_COLUMN"
)

// Unique is a uniqueness constraint. Keys are unique per tenant; empty keys are not indexed.
type Unique[E any] struct {
	Name string
	// Code is reported in the conflict error, e.g. "TASK_CODE_ALREADY_EXISTS".
	Code string
	Key  func(*E) string
}

// Config describes a table.
type Config[E any, ID comparable] struct {
	Name string
	ID   func(*E) ID
	// Fields exposes columns for search and sort, keyed by column name.
	Fields map[string]func(*E) any
	Unique []Unique[E]
}

// Table stores aggregates of type E and implements repository.Store[E, *Tx].
type Table[E any, ID comparable] struct {
	db        *DB
	cfg       Config[E, ID]
	relations map[string]func(v *View, e *E) error
}

var _ repository.Store[struct{}, *Tx] = (*Table[struct{}, int])(nil)

func NewTable[E any, ID comparable](db *DB, cfg Config[E, ID]) *Table[E, ID] {
	return &Table[E, ID]{db: db, cfg: cfg, relations: map[string]func(*View, *E) error{}}
}

// Relation registers a loader that attaches related data named path to an aggregate.
func (t *Table[E, ID]) Relation(path string, load func(v *View, e *E) error) *Table[E, ID] {
	t.relations[path] = load
	return t
}

// Select returns every committed row of t matching pred, for use in relation loaders.
func (t *Table[E, ID]) Select(v *View, pred func(*E) bool) []E {
	var out []E
	for _, raw := range v.rows(t.cfg.Name) {
		e, _ := raw.(E)
		if pred == nil || pred(&e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b E) int {
		return compareValues(t.cfg.ID(&a), t.cfg.ID(&b))
	})
	return out
}

func (t *Table[E, ID]) FindOne(_ context.Context, c repository.Criteria) (*E, error) {
	v := t.db.view()

	id, ok := c.ID.(ID)
	if !ok {
		return nil, nil //nolint:nilnil // an id of another type matches nothing
	}
	raw, ok := v.rows(t.cfg.Name)[id]
	if !ok {
		return nil, nil //nolint:nilnil // absent is not an error
	}
	e, _ := raw.(E)
	if !visible(c, &e) {
		return nil, nil //nolint:nilnil // rows of other tenants do not exist for the caller
	}
	if err := t.load(v, c.Includes, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *Table[E, ID]) FindPage(_ context.Context, c repository.Criteria) ([]E, int64, error) {
	v := t.db.view()

	matched := make([]E, 0, len(v.rows(t.cfg.Name)))
	for _, raw := range v.rows(t.cfg.Name) {
		e, _ := raw.(E)
		if !visible(c, &e) {
			continue
		}
		if c.Search != "" && !t.matches(&e, c.Search, c.SearchFields) {
			continue
		}
		matched = append(matched, e)
	}

	if err := t.sort(matched, c.Sort); err != nil {
		return nil, 0, err
	}

	total := int64(len(matched))
	window := windowOf(matched, c.Offset, c.Limit)
	for i := range window {
		if err := t.load(v, c.Includes, &window[i]); err != nil {
			return nil, 0, err
		}
	}
	return window, total, nil
}

func (t *Table[E, ID]) InsertOp(entity *E) uow.Op[*Tx] {
	return func(_ context.Context, tx *Tx) (int64, error) {
		row := *entity
		id := t.cfg.ID(&row)
		if _, exists := tx.read(t.cfg.Name)[id]; exists {
			return 0, errx.New(
				fmt.Sprintf("%s with this id already exists", t.cfg.Name),
				errx.WithType(errx.T_Conflict),
				errx.WithCode(CodeDuplicateID),
				errx.WithDetails(errx.D{"id": id}),
			)
		}
		if err := t.checkUnique(tx, &row, nil); err != nil {
			return 0, err
		}
		tx.write(t.cfg.Name)[id] = row
		return 1, nil
	}
}

func (t *Table[E, ID]) UpdateOp(entity *E, c repository.Criteria) uow.Op[*Tx] {
	return func(_ context.Context, tx *Tx) (int64, error) {
		row := *entity
		id := t.cfg.ID(&row)
		raw, ok := tx.read(t.cfg.Name)[id]
		if !ok {
			return 0, nil
		}
		current, _ := raw.(E)
		if !visible(c, &current) {
			return 0, nil
		}
		if owned, isTenanted := any(&row).(tenancy.Tenanted); isTenanted && c.Restricted {
			owned.SetTenantID(tenancy.TenantOf(&current))
		}
		if err := t.checkUnique(tx, &row, &id); err != nil {
			return 0, err
		}
		tx.write(t.cfg.Name)[id] = row
		return 1, nil
	}
}

func (t *Table[E, ID]) DeleteOp(entity *E, c repository.Criteria) uow.Op[*Tx] {
	return func(_ context.Context, tx *Tx) (int64, error) {
		id := t.cfg.ID(entity)
		raw, ok := tx.read(t.cfg.Name)[id]
		if !ok {
			return 0, nil
		}
		current, _ := raw.(E)
		if !visible(c, &current) {
			return 0, nil
		}
		delete(tx.write(t.cfg.Name), id)
		return 1, nil
	}
}

func (t *Table[E, ID]) checkUnique(tx *Tx, row *E, self *ID) error {
	tenant := tenancy.TenantOf(row)
	for _, u := range t.cfg.Unique {
		key := u.Key(row)
		if key == "" {
			continue
		}
		for otherID, raw := range tx.read(t.cfg.Name) {
			if self != nil && otherID == any(*self) {
				continue
			}
			other, _ := raw.(E)
			if tenancy.TenantOf(&other) == tenant && u.Key(&other) == key {
				return errx.New(
					fmt.Sprintf("%s violates unique constraint %s", t.cfg.Name, u.Name),
					errx.WithType(errx.T_Conflict),
					errx.WithCode(u.Code),
					errx.WithDetails(errx.D{"constraint": u.Name, "key": key}),
				)
			}
		}
	}
	return nil
}

func (t *Table[E, ID]) matches(e *E, search string, fields []string) bool {
	return lo.SomeBy(fields, func(f string) bool {
		get, ok := t.cfg.Fields[f]
		return ok && containsFold(get(e), search)
	})
}

func (t *Table[E, ID]) sort(items []E, opts sorter.SortOpts) error {
	getters := make([]func(*E) any, len(opts))
	for i, o := range opts {
		get, ok := t.cfg.Fields[o.F]
		if !ok && o.F == "id" {
			get = func(e *E) any { return t.cfg.ID(e) }
			ok = true
		}
		if !ok {
			return errx.New(
				fmt.Sprintf("%s has no column %q", t.cfg.Name, o.F),
				errx.WithCode(CodeUnknownColumn),
			)
		}
		getters[i] = get
	}

	slices.SortStableFunc(items, func(a, b E) int {
		for i, o := range opts {
			c := compareValues(getters[i](&a), getters[i](&b))
			if strings.EqualFold(string(o.D), string(sorter.Desc)) {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compareValues(t.cfg.ID(&a), t.cfg.ID(&b))
	})
	return nil
}

func (t *Table[E, ID]) load(v *View, includes entityquery.Query, e *E) error {
	err := entityquery.Verify(includes, func(path string) bool {
		_, ok := t.relations[path]
		return ok
	})
	if err != nil {
		return err
	}
	for _, path := range includes.Includes() {
		if err := t.relations[path](v, e); err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"relation": path}))
		}
	}
	return nil
}

func visible[E any](c repository.Criteria, e *E) bool {
	return !c.Restricted || tenancy.TenantOf(e) == c.TenantID
}

func windowOf[E any](items []E, offset, limit int) []E {
	if offset >= len(items) {
		return []E{}
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return slices.Clone(items)
}
