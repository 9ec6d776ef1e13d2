package wrapper

import (
	"context"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/panics"
	"github.com/rise-and-shine/blocks/result"
)

const CodePanicRecovered = panics.CodeRecovered

type RecoveryCommandWrapper[I command.Input, R command.Output] struct {
	logger logger.Logger
	next   command.Command[I, R]
}

// NewRecoveryCommandWrapper turns a panicking handler into an Unexpected failure.
func NewRecoveryCommandWrapper[I command.Input, R command.Output](
	l logger.Logger,
	cmdName string,
) command.WrapFunc[I, R] {
	l = l.Named("cqrs.command.recovery").With("command_name", cmdName)
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &RecoveryCommandWrapper[I, R]{logger: l, next: next}
	}
}

func (cmd *RecoveryCommandWrapper[I, R]) Execute(ctx context.Context, input I) (res result.Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			err := panics.Handle(r, cmd.logger.WithContext(ctx), "panic recovered in recovery wrapper")
			res = result.FromError[R](err)
		}
	}()
	return cmd.next.Execute(ctx, input)
}
