package repository

import (
	"context"
	"fmt"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/tenancy"
	"github.com/rise-and-shine/blocks/uow"
)

const CodeCrossTenantWrite = "CROSS_TENANT_WRITE"

// Repo combines the generic read and write repositories for one unit of work.
type Repo[E any, ID comparable, T any] struct {
	*ReadRepo[E, ID]

	store Store[E, T]
	uow   *uow.UnitOfWork[T]
}

var _ Write[struct{}] = (*Repo[struct{}, int, any])(nil)

// NewRepo attaches a repository for E to unit of work u. Writes are staged into u.
func NewRepo[E any, ID comparable, T any](
	def Definition[E, ID],
	store Store[E, T],
	u *uow.UnitOfWork[T],
) *Repo[E, ID, T] {
	return &Repo[E, ID, T]{
		ReadRepo: NewReadRepo(def, store),
		store:    store,
		uow:      u,
	}
}

// Add stages an insert. A tenanted aggregate without an owner is assigned to the caller's
// tenant; one owned by another tenant is rejected.
func (r *Repo[E, ID, T]) Add(_ context.Context, scope tenancy.Scope, entity *E) error {
	if err := r.claim(scope, entity, "create"); err != nil {
		return err
	}
	return errx.Wrap(r.uow.Stage(r.store.InsertOp(entity)))
}

// Update stages an update of the aggregate's row. Commit fails with not-found when the
// row does not exist or belongs to a tenant the scope cannot see. The aggregate may not
// be moved to another tenant.
func (r *Repo[E, ID, T]) Update(_ context.Context, scope tenancy.Scope, entity *E) error {
	if err := r.claim(scope, entity, "update"); err != nil {
		return err
	}
	c := r.def.scoped(scope)
	c.ID = r.def.IDOf(entity)
	return errx.Wrap(r.uow.Stage(r.expectAffected(r.store.UpdateOp(entity, c), "update", c.ID)))
}

// Delete stages a delete with the same visibility rules as Update.
func (r *Repo[E, ID, T]) Delete(_ context.Context, scope tenancy.Scope, entity *E) error {
	c := r.def.scoped(scope)
	c.ID = r.def.IDOf(entity)
	return errx.Wrap(r.uow.Stage(r.expectAffected(r.store.DeleteOp(entity, c), "delete", c.ID)))
}

// claim stamps a blank owner with the caller's tenant and rejects owners outside scope.
func (r *Repo[E, ID, T]) claim(scope tenancy.Scope, entity *E, action string) error {
	if !r.def.tenanted() {
		return nil
	}
	tenancy.Stamp(scope, entity)
	if owner := tenancy.TenantOf(entity); !scope.Allows(owner) {
		return errx.New(
			fmt.Sprintf("cannot %s %s for another tenant", action, r.def.Name),
			errx.WithType(errx.T_Forbidden),
			errx.WithCode(CodeCrossTenantWrite),
			errx.WithDetails(errx.D{"tenant_id": owner}),
		)
	}
	return nil
}

func (r *Repo[E, ID, T]) expectAffected(op uow.Op[T], action string, id any) uow.Op[T] {
	return func(ctx context.Context, tx T) (int64, error) {
		n, err := op(ctx, tx)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, errx.New(
				fmt.Sprintf("no %s found to %s", r.def.Name, action),
				errx.WithType(errx.T_NotFound),
				errx.WithCode(r.def.NotFoundCode),
				errx.WithDetails(errx.D{"id": id}),
			)
		}
		return n, nil
	}
}
