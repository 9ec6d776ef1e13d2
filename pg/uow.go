package pg

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/uow"
)

// Beginner runs units of work inside bun transactions on db.
func Beginner(db *bun.DB) uow.Beginner[bun.Tx] {
	return uow.BeginnerFunc[bun.Tx](func(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
		return db.RunInTx(ctx, nil, fn)
	})
}

// NewUnitOfWork opens a unit of work on db whose commit failures are translated
// with codes. A nil logger falls back to the global one.
func NewUnitOfWork(db *bun.DB, l logger.Logger, codes ConflictCodes) *uow.UnitOfWork[bun.Tx] {
	if l == nil {
		l = logger.Global()
	}
	return uow.New(Beginner(db),
		uow.WithLogger[bun.Tx](l),
		uow.WithErrorTranslator[bun.Tx](ErrorTranslator(codes)),
	)
}
