package wrapper

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/blocks/cqrs/query"
	"github.com/rise-and-shine/blocks/result"
)

// TracingQueryWrapper wraps a query handler with OpenTelemetry tracing.
//
// The span name is derived from the handler type. NotFound and other expected failures
// do not mark the span as errored.
type TracingQueryWrapper[I query.Input, R query.Output] struct {
	tracer   trace.Tracer
	spanName string
	next     query.Query[I, R]
}

// NewTracingQueryWrapper returns a query.WrapFunc that wraps a query handler with tracing.
//
//	handler := query.Chain[MyInput, MyOutput](myQueryHandler, wrapper.NewTracingQueryWrapper[MyInput, MyOutput]())
func NewTracingQueryWrapper[I query.Input, R query.Output]() query.WrapFunc[I, R] {
	return func(next query.Query[I, R]) query.Query[I, R] {
		return &TracingQueryWrapper[I, R]{
			tracer:   otel.Tracer("cqrs/query"),
			spanName: handlerName(next),
			next:     next,
		}
	}
}

func (t *TracingQueryWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	ctx, span := t.tracer.Start(ctx, t.spanName)
	defer span.End()

	res := t.next.Execute(ctx, input)
	if res.IsFail() {
		info := res.Error()
		span.SetAttributes(attribute.String("result.kind", string(info.Kind)))
		if !info.Kind.Expected() {
			span.RecordError(info.AsError())
			span.SetStatus(codes.Error, info.Message)
		}
	}
	return res
}
