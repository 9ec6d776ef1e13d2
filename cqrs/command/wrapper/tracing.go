package wrapper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/result"
)

type TracingCommandWrapper[I command.Input, R command.Output] struct {
	tracer   trace.Tracer
	spanName string
	next     command.Command[I, R]
}

// NewTracingCommandWrapper starts a span per execution. Only unexpected failures mark
// the span as errored; expected failures are recorded as attributes.
func NewTracingCommandWrapper[I command.Input, R command.Output]() command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &TracingCommandWrapper[I, R]{
			tracer:   otel.Tracer("cqrs/command"),
			spanName: handlerName(next),
			next:     next,
		}
	}
}

func (t *TracingCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	ctx, span := t.tracer.Start(ctx, t.spanName)
	defer span.End()

	res := t.next.Execute(ctx, input)
	if res.IsFail() {
		info := res.Error()
		span.SetAttributes(
			attribute.String("result.kind", string(info.Kind)),
			attribute.String("result.code", info.Code),
		)
		if !info.Kind.Expected() {
			span.RecordError(info.AsError())
			span.SetStatus(codes.Error, info.Message)
		}
	}
	return res
}
