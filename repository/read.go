package repository

import (
	"context"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/pagination"
	"github.com/rise-and-shine/blocks/tenancy"
)

// ReadRepo is the generic Read implementation over a Reader.
type ReadRepo[E any, ID comparable] struct {
	def    Definition[E, ID]
	reader Reader[E]
}

var _ Read[struct{}, int] = (*ReadRepo[struct{}, int])(nil)

func NewReadRepo[E any, ID comparable](def Definition[E, ID], reader Reader[E]) *ReadRepo[E, ID] {
	return &ReadRepo[E, ID]{def: def.normalized(), reader: reader}
}

func (r *ReadRepo[E, ID]) GetByID(ctx context.Context, scope tenancy.Scope, id ID) (*E, error) {
	c := r.def.scoped(scope)
	c.ID = id

	entity, err := r.reader.FindOne(ctx, c)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return entity, nil
}

func (r *ReadRepo[E, ID]) GetPaged(
	ctx context.Context,
	scope tenancy.Scope,
	f *pagination.Filter,
) (pagination.PagedList[E], error) {
	c, err := r.def.pageCriteria(scope, f)
	if err != nil {
		return pagination.PagedList[E]{}, errx.Wrap(err)
	}

	items, total, err := r.reader.FindPage(ctx, c)
	if err != nil {
		return pagination.PagedList[E]{}, errx.Wrap(err)
	}
	return pagination.NewPagedList(items, total, f), nil
}
