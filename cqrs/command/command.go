// Package command defines the contract for state-changing handlers.
//
// A command handler is the only place business rules execute: it validates input, loads
// aggregates through repositories, stages changes into a unit of work, commits, and
// packages the outcome as a result.Result.
package command

import (
	"context"

	"github.com/rise-and-shine/blocks/result"
)

type (
	// Input represents the input type for a command.
	Input any

	// Output represents the success value type of a command.
	Output any

	// Empty is the output of commands with nothing to return.
	Empty = struct{}
)

// Command defines a handler for a command.
type Command[I Input, R Output] interface {
	// Execute processes the command input. Anticipated failures are failure results;
	// ctx carries cancellation and deadlines.
	Execute(ctx context.Context, input I) result.Result[R]
}

// Func adapts a function to Command.
type Func[I Input, R Output] func(ctx context.Context, input I) result.Result[R]

func (f Func[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	return f(ctx, input)
}

// WrapFunc defines a middleware function for wrapping command handlers.
type WrapFunc[I Input, R Output] func(Command[I, R]) Command[I, R]

// Chain wraps cmd so that the first wrapper is the outermost one.
func Chain[I Input, R Output](cmd Command[I, R], wrappers ...WrapFunc[I, R]) Command[I, R] {
	for i := len(wrappers) - 1; i >= 0; i-- {
		cmd = wrappers[i](cmd)
	}
	return cmd
}

// CreateResponse is the uniform success payload of every create command.
type CreateResponse[ID any] struct {
	ID ID `json:"id"`
}

// Create is a command that creates an aggregate and returns its new identifier.
type Create[I Input, ID any] = Command[I, CreateResponse[ID]]

// Created wraps a freshly assigned identifier into the standard create response.
func Created[ID any](id ID) result.Result[CreateResponse[ID]] {
	return result.Ok(CreateResponse[ID]{ID: id})
}
