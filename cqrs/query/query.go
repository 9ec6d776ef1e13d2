// Package query defines the contract for read-only handlers.
package query

import (
	"context"

	"github.com/rise-and-shine/blocks/result"
)

type (
	// Input represents the input type for a query.
	Input any

	// Output represents the success value type of a query.
	Output any
)

// Query defines a handler for a read-only request.
type Query[I Input, R Output] interface {
	Execute(ctx context.Context, input I) result.Result[R]
}

// Func adapts a function to Query.
type Func[I Input, R Output] func(ctx context.Context, input I) result.Result[R]

func (f Func[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	return f(ctx, input)
}

// WrapFunc defines a middleware function for wrapping query handlers.
type WrapFunc[I Input, R Output] func(Query[I, R]) Query[I, R]

// Chain wraps q so that the first wrapper is the outermost one.
func Chain[I Input, R Output](q Query[I, R], wrappers ...WrapFunc[I, R]) Query[I, R] {
	for i := len(wrappers) - 1; i >= 0; i-- {
		q = wrappers[i](q)
	}
	return q
}
