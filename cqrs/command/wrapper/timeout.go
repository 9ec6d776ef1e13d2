package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/result"
)

type TimeoutCommandWrapper[I command.Input, R command.Output] struct {
	timeout time.Duration
	next    command.Command[I, R]
}

// NewTimeoutCommandWrapper bounds the handler's context by timeout. A caller
// deadline that is already sooner wins. A non-positive timeout disables the bound.
func NewTimeoutCommandWrapper[I command.Input, R command.Output](timeout time.Duration) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		if timeout <= 0 {
			return next
		}
		return &TimeoutCommandWrapper[I, R]{timeout: timeout, next: next}
	}
}

func (cmd *TimeoutCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	ctx, cancel := context.WithTimeout(ctx, cmd.timeout)
	defer cancel()
	return cmd.next.Execute(ctx, input)
}
