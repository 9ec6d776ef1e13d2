package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/mask"
	"github.com/rise-and-shine/blocks/result"
)

type LoggerCommandWrapper[I command.Input, R command.Output] struct {
	logger  logger.Logger
	next    command.Command[I, R]
	cmdName string
}

// NewLoggerCommandWrapper logs every execution with its masked input, duration and outcome.
// Successes log at info, expected failures at warn and unexpected failures at error.
func NewLoggerCommandWrapper[I command.Input, R command.Output](
	l logger.Logger,
	cmdName string,
) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &LoggerCommandWrapper[I, R]{
			logger:  l.Named("cqrs.command.logger").With("command_name", cmdName),
			next:    next,
			cmdName: cmdName,
		}
	}
}

func (cmd *LoggerCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	start := time.Now()

	res := cmd.next.Execute(ctx, input)

	log := cmd.logger.
		WithContext(ctx).
		With("execution_time", time.Since(start).String()).
		With("input", mask.StructToOrdMap(input))

	if res.IsOk() {
		log.Info("command succeeded")
		return res
	}

	info := res.Error()
	log = log.With("error_kind", string(info.Kind), "error_code", info.Code)
	switch {
	case info.Kind.Expected():
		log.Warn(info.Message)
	case info.Cause() != nil:
		log.Errorx(info.Cause())
	default:
		log.Error(info.Message)
	}
	return res
}
