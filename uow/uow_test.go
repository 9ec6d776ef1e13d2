package uow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/uow"
)

// journal is a fake transactional store: writes go to a scratch slice and are
// appended to committed only when the transaction function succeeds.
type journal struct {
	committed []string
	begins    int
	rollbacks int
}

type tx struct {
	scratch *[]string
}

func (j *journal) RunInTx(ctx context.Context, fn func(ctx context.Context, t tx) error) error {
	j.begins++
	var scratch []string
	if err := fn(ctx, tx{scratch: &scratch}); err != nil {
		j.rollbacks++
		return err
	}
	j.committed = append(j.committed, scratch...)
	return nil
}

func write(v string) uow.Op[tx] {
	return func(_ context.Context, t tx) (int64, error) {
		*t.scratch = append(*t.scratch, v)
		return 1, nil
	}
}

func failing(err error) uow.Op[tx] {
	return func(context.Context, tx) (int64, error) {
		return 0, err
	}
}

func newUoW(j *journal, opts ...uow.Option[tx]) *uow.UnitOfWork[tx] {
	return uow.New[tx](j, append([]uow.Option[tx]{uow.WithLogger[tx](logger.Nop())}, opts...)...)
}

func TestCommitAppliesAllStagedOps(t *testing.T) {
	j := &journal{}
	u := newUoW(j)

	require.NoError(t, u.Stage(write("a")))
	require.NoError(t, u.Stage(write("b")))
	require.NoError(t, u.Stage(write("c")))
	assert.Equal(t, 3, u.Pending())
	assert.Empty(t, j.committed, "nothing persisted before commit")

	n, err := u.Commit(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"a", "b", "c"}, j.committed)
	assert.Equal(t, 0, u.Pending())
}

func TestCommitIsAllOrNothing(t *testing.T) {
	j := &journal{}
	u := newUoW(j)

	require.NoError(t, u.Stage(write("a")))
	require.NoError(t, u.Stage(write("b")))
	require.NoError(t, u.Stage(failing(errors.New("unique violation"))))

	n, err := u.Commit(t.Context())
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, j.committed)
	assert.Equal(t, 1, j.rollbacks)
	assert.Equal(t, 0, u.Pending(), "failed batch is discarded")
}

func TestCommitTranslatesErrors(t *testing.T) {
	j := &journal{}
	u := newUoW(j, uow.WithErrorTranslator[tx](func(err error) error {
		return errx.New("duplicate", errx.WithType(errx.T_Conflict), errx.WithCode("DUP"))
	}))

	require.NoError(t, u.Stage(failing(errors.New("raw storage error"))))

	_, err := u.Commit(t.Context())
	require.Error(t, err)
	assert.Equal(t, errx.T_Conflict, errx.AsErrorX(err).Type())
	assert.Equal(t, "DUP", errx.AsErrorX(err).Code())
}

func TestCommitObservesCancellation(t *testing.T) {
	t.Run("before begin", func(t *testing.T) {
		j := &journal{}
		u := newUoW(j)
		require.NoError(t, u.Stage(write("a")))

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := u.Commit(ctx)
		require.Error(t, err)
		assert.Equal(t, uow.CodeCancelled, errx.AsErrorX(err).Code())
		assert.Zero(t, j.begins)
		assert.Empty(t, j.committed)
	})

	t.Run("between ops", func(t *testing.T) {
		j := &journal{}
		u := newUoW(j)

		ctx, cancel := context.WithCancel(t.Context())
		require.NoError(t, u.Stage(write("a")))
		require.NoError(t, u.Stage(func(_ context.Context, t tx) (int64, error) {
			cancel()
			*t.scratch = append(*t.scratch, "b")
			return 1, nil
		}))
		require.NoError(t, u.Stage(write("c")))

		_, err := u.Commit(ctx)
		require.Error(t, err)
		assert.Equal(t, 1, j.rollbacks)
		assert.Empty(t, j.committed)
	})
}

func TestAfterCommitHooks(t *testing.T) {
	j := &journal{}
	u := newUoW(j)

	var fired []string
	require.NoError(t, u.Stage(write("a")))
	require.NoError(t, u.AfterCommit(func(context.Context) { fired = append(fired, "first") }))

	_, err := u.Commit(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, fired)

	require.NoError(t, u.Stage(failing(errors.New("boom"))))
	require.NoError(t, u.AfterCommit(func(context.Context) { fired = append(fired, "second") }))
	_, err = u.Commit(t.Context())
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, fired, "hooks of a failed commit never run")
}

func TestEmptyCommitDoesNotBegin(t *testing.T) {
	j := &journal{}
	u := newUoW(j)

	n, err := u.Commit(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, j.begins)
}

func TestClose(t *testing.T) {
	j := &journal{}
	u := newUoW(j)
	require.NoError(t, u.Stage(write("a")))

	require.NoError(t, u.Close())
	require.NoError(t, u.Close())

	err := u.Stage(write("b"))
	require.Error(t, err)
	assert.Equal(t, uow.CodeClosed, errx.AsErrorX(err).Code())

	_, err = u.Commit(t.Context())
	require.Error(t, err)
	assert.Empty(t, j.committed)
}

func TestBeginnerFunc(t *testing.T) {
	called := false
	b := uow.BeginnerFunc[int](func(ctx context.Context, fn func(context.Context, int) error) error {
		called = true
		return fn(ctx, 7)
	})

	u := uow.New[int](b, uow.WithLogger[int](logger.Nop()))
	var seen int
	require.NoError(t, u.Stage(func(_ context.Context, tx int) (int64, error) {
		seen = tx
		return 2, nil
	}))

	n, err := u.Commit(t.Context())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, 7, seen)
	assert.Equal(t, int64(2), n)
}
