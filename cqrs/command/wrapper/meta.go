package wrapper

import (
	"context"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/result"
	"github.com/rise-and-shine/blocks/tracing"
)

type MetaInjectCommandWrapper[I command.Input, R command.Output] struct {
	serviceName    string
	serviceVersion string
	next           command.Command[I, R]
}

// NewMetaInjectCommandWrapper adds trace id and service identity to the context.
// An existing trace id in the context is kept.
func NewMetaInjectCommandWrapper[I command.Input, R command.Output](
	serviceName, serviceVersion string,
) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &MetaInjectCommandWrapper[I, R]{serviceName: serviceName, serviceVersion: serviceVersion, next: next}
	}
}

func (cmd *MetaInjectCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	traceID := meta.Find(ctx, meta.TraceID)
	if traceID == "" {
		traceID = tracing.StartingTraceID(ctx)
	}

	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.TraceID:        traceID,
		meta.ServiceName:    cmd.serviceName,
		meta.ServiceVersion: cmd.serviceVersion,
	})

	return cmd.next.Execute(ctx, input)
}
