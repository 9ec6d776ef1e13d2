package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/blocks/cqrs/query"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/panics"
	"github.com/rise-and-shine/blocks/result"
)

type LoggerQueryWrapper[I query.Input, R query.Output] struct {
	logger    logger.Logger
	next      query.Query[I, R]
	queryName string
}

// NewLoggerQueryWrapper logs failed queries and recovers panics into Unexpected failures.
// Successful queries are logged at debug level only.
func NewLoggerQueryWrapper[I query.Input, R query.Output](l logger.Logger, queryName string) query.WrapFunc[I, R] {
	return func(next query.Query[I, R]) query.Query[I, R] {
		return &LoggerQueryWrapper[I, R]{
			logger:    l.Named("cqrs.query.logger").With("query_name", queryName),
			next:      next,
			queryName: queryName,
		}
	}
}

func (q *LoggerQueryWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	start := time.Now()
	res := executeWithRecovery(ctx, q.next, input)

	log := q.logger.WithContext(ctx).With("execution_time", time.Since(start).String())
	if res.IsOk() {
		log.Debug("query succeeded")
		return res
	}

	info := res.Error()
	log = log.With("error_kind", string(info.Kind), "error_code", info.Code)
	if info.Kind.Expected() {
		log.Warn(info.Message)
	} else {
		log.Errorx(info.AsError())
	}
	return res
}

func executeWithRecovery[I query.Input, R query.Output](
	ctx context.Context,
	q query.Query[I, R],
	input I,
) (res result.Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = result.FromError[R](panics.Capture(r).Err("panic recovered in logger query wrapper"))
		}
	}()

	return q.Execute(ctx, input)
}
