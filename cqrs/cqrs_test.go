package cqrs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/cqrs"
	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/cqrs/query"
	"github.com/rise-and-shine/blocks/result"
)

type createTask struct {
	Title string
}

func (createTask) RequestType() string { return "todo.create_task" }

type getTask struct {
	ID int
}

func (getTask) RequestType() string { return "todo.get_task" }

type unknown struct{}

func (unknown) RequestType() string { return "todo.unknown" }

type blank struct{}

func (blank) RequestType() string { return "" }

func newRegistry() *cqrs.Registry {
	reg := cqrs.NewRegistry()
	cqrs.Register[createTask, command.CreateResponse[int]](reg, command.Func[createTask, command.CreateResponse[int]](
		func(_ context.Context, in createTask) result.Result[command.CreateResponse[int]] {
			if in.Title == "" {
				return result.Failf[command.CreateResponse[int]](result.ValidationFailed, "TITLE_REQUIRED", "title is required")
			}
			return command.Created(42)
		},
	))
	cqrs.Register[getTask, string](reg, query.Func[getTask, string](
		func(_ context.Context, in getTask) result.Result[string] {
			if in.ID != 1 {
				return result.Failf[string](result.NotFound, "TASK_NOT_FOUND", "task %d not found", in.ID)
			}
			return result.Ok("buy milk")
		},
	))
	reg.Seal()
	return reg
}

func TestDispatch(t *testing.T) {
	reg := newRegistry()

	t.Run("command success", func(t *testing.T) {
		res := cqrs.Dispatch[command.CreateResponse[int]](t.Context(), reg, createTask{Title: "x"})
		require.True(t, res.IsOk())
		assert.Equal(t, 42, res.Value().ID)
	})

	t.Run("command expected failure", func(t *testing.T) {
		res := cqrs.Dispatch[command.CreateResponse[int]](t.Context(), reg, createTask{})
		require.True(t, res.IsFail())
		assert.Equal(t, result.ValidationFailed, res.Error().Kind)
	})

	t.Run("query", func(t *testing.T) {
		res := cqrs.Dispatch[string](t.Context(), reg, getTask{ID: 1})
		assert.Equal(t, "buy milk", res.Value())

		missing := cqrs.Dispatch[string](t.Context(), reg, getTask{ID: 2})
		assert.Equal(t, result.NotFound, missing.Error().Kind)
	})

	t.Run("unregistered request", func(t *testing.T) {
		res := cqrs.Dispatch[string](t.Context(), reg, unknown{})
		require.True(t, res.IsFail())
		assert.Equal(t, result.Unexpected, res.Error().Kind)
		assert.Equal(t, cqrs.CodeHandlerNotFound, res.Error().Code)
	})

	t.Run("wrong output type", func(t *testing.T) {
		res := cqrs.Dispatch[int](t.Context(), reg, getTask{ID: 1})
		require.True(t, res.IsFail())
		assert.Equal(t, cqrs.CodeOutputMismatch, res.Error().Code)
	})
}

func TestRegistryIntrospection(t *testing.T) {
	reg := newRegistry()

	assert.Equal(t, []string{"todo.create_task", "todo.get_task"}, reg.Types())
	assert.True(t, reg.Has("todo.get_task"))
	assert.False(t, reg.Has("todo.unknown"))
}

func TestRegisterPanicsOnWiringDefects(t *testing.T) {
	h := query.Func[getTask, string](func(context.Context, getTask) result.Result[string] {
		return result.Ok("")
	})

	t.Run("duplicate", func(t *testing.T) {
		reg := cqrs.NewRegistry()
		cqrs.Register[getTask, string](reg, h)
		assert.Panics(t, func() { cqrs.Register[getTask, string](reg, h) })
	})

	t.Run("sealed", func(t *testing.T) {
		reg := cqrs.NewRegistry()
		reg.Seal()
		assert.Panics(t, func() { cqrs.Register[getTask, string](reg, h) })
	})

	t.Run("empty tag", func(t *testing.T) {
		reg := cqrs.NewRegistry()
		assert.Panics(t, func() {
			cqrs.Register[blank, string](reg, query.Func[blank, string](func(context.Context, blank) result.Result[string] {
				return result.Ok("")
			}))
		})
	})
}
