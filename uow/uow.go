// Package uow provides a unit of work: a single atomic commit boundary for writes staged
// by one or more repositories.
//
// Writes are staged as operations against a storage-specific transaction handle T and run
// only on Commit, inside one transaction. Either every staged operation is applied or none is.
package uow

import (
	"context"
	"sync"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/logger"
)

const (
	CodeClosed    = "UNIT_OF_WORK_CLOSED"
	CodeCancelled = "UNIT_OF_WORK_CANCELLED"
)

// Op is a staged write. It returns the number of records it affected.
type Op[T any] func(ctx context.Context, tx T) (int64, error)

// Beginner runs fn inside a transaction, committing when fn returns nil and rolling back otherwise.
type Beginner[T any] interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx T) error) error
}

// BeginnerFunc adapts a function to Beginner.
type BeginnerFunc[T any] func(ctx context.Context, fn func(ctx context.Context, tx T) error) error

func (f BeginnerFunc[T]) RunInTx(ctx context.Context, fn func(ctx context.Context, tx T) error) error {
	return f(ctx, fn)
}

// ErrorTranslator converts storage-specific failures into errx errors with domain types
// (conflict, validation).
type ErrorTranslator func(error) error

// UnitOfWork collects staged operations and commits them atomically.
// It is meant to live for a single request. It is safe for concurrent staging.
type UnitOfWork[T any] struct {
	beginner  Beginner[T]
	translate ErrorTranslator
	logger    logger.Logger

	mu     sync.Mutex
	ops    []Op[T]
	hooks  []func(context.Context)
	closed bool
}

type Option[T any] func(*UnitOfWork[T])

// WithErrorTranslator sets the translator applied to commit failures.
func WithErrorTranslator[T any](fn ErrorTranslator) Option[T] {
	return func(u *UnitOfWork[T]) {
		u.translate = fn
	}
}

func WithLogger[T any](l logger.Logger) Option[T] {
	return func(u *UnitOfWork[T]) {
		u.logger = l.Named("uow")
	}
}

// New creates an empty unit of work on top of beginner.
func New[T any](beginner Beginner[T], opts ...Option[T]) *UnitOfWork[T] {
	u := &UnitOfWork[T]{
		beginner:  beginner,
		translate: func(err error) error { return err },
		logger:    logger.Named("uow"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Stage appends op to the pending batch. Nothing is persisted until Commit.
func (u *UnitOfWork[T]) Stage(op Op[T]) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return errClosed()
	}
	u.ops = append(u.ops, op)
	return nil
}

// AfterCommit registers fn to run after the next successful Commit. Hooks of a failed
// commit are discarded. Hooks receive a context that is not cancelled with the commit's.
func (u *UnitOfWork[T]) AfterCommit(fn func(ctx context.Context)) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closed {
		return errClosed()
	}
	u.hooks = append(u.hooks, fn)
	return nil
}

// Pending returns the number of staged operations.
func (u *UnitOfWork[T]) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.ops)
}

// Commit runs every staged operation in one transaction and returns the total number of
// affected records. Cancellation is observed before the transaction starts and between
// operations; any failure rolls the whole batch back. The batch is cleared either way, so
// the unit of work can be reused for a new batch.
func (u *UnitOfWork[T]) Commit(ctx context.Context) (int64, error) {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return 0, errClosed()
	}
	ops, hooks := u.ops, u.hooks
	u.ops, u.hooks = nil, nil
	u.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, errCancelled(err)
	}

	var total int64
	if len(ops) > 0 {
		err := u.beginner.RunInTx(ctx, func(ctx context.Context, tx T) error {
			total = 0
			for i, op := range ops {
				if err := ctx.Err(); err != nil {
					return errCancelled(err)
				}
				n, err := op(ctx, tx)
				if err != nil {
					return errx.Wrap(err, errx.WithDetails(errx.D{"op_index": i, "op_count": len(ops)}))
				}
				total += n
			}
			return nil
		})
		if err != nil {
			u.logger.WithContext(ctx).With("pending", len(ops)).Debug("commit rolled back")
			return 0, u.translate(err)
		}
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, fn := range hooks {
		fn(hookCtx)
	}

	return total, nil
}

// Close discards staged operations and hooks. Further use fails. Close is idempotent.
func (u *UnitOfWork[T]) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if !u.closed && len(u.ops) > 0 {
		u.logger.With("pending", len(u.ops)).Debug("closing unit of work with uncommitted operations")
	}
	u.closed = true
	u.ops, u.hooks = nil, nil
	return nil
}

func errClosed() error {
	return errx.New("[uow]: unit of work is closed", errx.WithCode(CodeClosed))
}

func errCancelled(err error) error {
	return errx.Wrap(err, errx.WithCode(CodeCancelled))
}
