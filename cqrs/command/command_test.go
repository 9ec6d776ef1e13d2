package command_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/result"
)

func TestCreatedIsUniform(t *testing.T) {
	res := command.Created("t-1")
	require.True(t, res.IsOk())

	raw, err := json.Marshal(res.Value())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t-1"}`, string(raw))
}

func TestChainOrder(t *testing.T) {
	var order []string
	trace := func(name string) command.WrapFunc[string, command.Empty] {
		return func(next command.Command[string, command.Empty]) command.Command[string, command.Empty] {
			return command.Func[string, command.Empty](func(ctx context.Context, in string) result.Result[command.Empty] {
				order = append(order, name)
				return next.Execute(ctx, in)
			})
		}
	}

	var create command.Create[string, int] = command.Func[string, command.CreateResponse[int]](
		func(context.Context, string) result.Result[command.CreateResponse[int]] { return command.Created(1) },
	)
	assert.Equal(t, 1, create.Execute(t.Context(), "x").Value().ID)

	h := command.Chain[string, command.Empty](
		command.Func[string, command.Empty](func(context.Context, string) result.Result[command.Empty] {
			order = append(order, "handler")
			return result.Ok(command.Empty{})
		}),
		trace("outer"), trace("inner"),
	)

	require.True(t, h.Execute(t.Context(), "in").IsOk())
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
