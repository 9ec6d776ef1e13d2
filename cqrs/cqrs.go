// Package cqrs provides Command Query Responsibility Segregation building blocks.
//
// Commands and queries are plain request values; their handlers live in the command and
// query packages and return result.Result values instead of errors for anticipated
// failures. Registry maps request type tags to handlers so that a transport can dispatch
// requests it only knows by tag.
package cqrs

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rise-and-shine/blocks/result"
)

const (
	CodeHandlerNotFound = "HANDLER_NOT_FOUND"
	CodeRequestMismatch = "REQUEST_TYPE_MISMATCH"
	CodeOutputMismatch  = "OUTPUT_TYPE_MISMATCH"
)

// Request is implemented by every command and query. RequestType must return a constant
// tag and must work on the zero value of the type.
type Request interface {
	RequestType() string
}

// Handler is satisfied by both command.Command and query.Query.
type Handler[I Request, R any] interface {
	Execute(ctx context.Context, input I) result.Result[R]
}

type entry struct {
	handle func(ctx context.Context, req Request) (result.Result[any], bool)
}

// Registry maps request type tags to exactly one handler each. It is built at startup,
// sealed, and then only read.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]entry
	sealed   bool
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]entry{}}
}

// Register binds h to the tag of request type I. It panics when the tag is empty, already
// bound, or the registry is sealed: all of these are wiring defects.
func Register[I Request, R any](reg *Registry, h Handler[I, R]) {
	var zero I
	tag := zero.RequestType()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	switch {
	case reg.sealed:
		panic(fmt.Sprintf("[cqrs]: cannot register %q: registry is sealed", tag))
	case tag == "":
		panic(fmt.Sprintf("[cqrs]: request type %T has an empty tag", zero))
	}
	if _, exists := reg.handlers[tag]; exists {
		panic(fmt.Sprintf("[cqrs]: handler for %q is already registered", tag))
	}

	reg.handlers[tag] = entry{
		handle: func(ctx context.Context, req Request) (result.Result[any], bool) {
			in, ok := req.(I)
			if !ok {
				return result.Result[any]{}, false
			}
			return result.Map(h.Execute(ctx, in), func(v R) any { return v }), true
		},
	}
}

// Seal forbids further registration.
func (reg *Registry) Seal() {
	reg.mu.Lock()
	reg.sealed = true
	reg.mu.Unlock()
}

// Has reports whether a handler is bound to tag.
func (reg *Registry) Has(tag string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.handlers[tag]
	return ok
}

// Types returns the registered tags in sorted order.
func (reg *Registry) Types() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	tags := make([]string, 0, len(reg.handlers))
	for t := range reg.handlers {
		tags = append(tags, t)
	}
	slices.Sort(tags)
	return tags
}

// Dispatch runs the handler registered for req's tag and returns its result as R.
// A missing handler or a type mismatch is reported as an Unexpected failure.
func Dispatch[R any](ctx context.Context, reg *Registry, req Request) result.Result[R] {
	tag := req.RequestType()

	reg.mu.RLock()
	e, ok := reg.handlers[tag]
	reg.mu.RUnlock()
	if !ok {
		return result.Failf[R](result.Unexpected, CodeHandlerNotFound, "no handler registered for %q", tag)
	}

	res, ok := e.handle(ctx, req)
	if !ok {
		return result.Failf[R](result.Unexpected, CodeRequestMismatch, "handler for %q cannot accept %T", tag, req)
	}
	if res.IsFail() {
		return result.Cast[R](res)
	}

	out, ok := res.Value().(R)
	if !ok {
		var want R
		return result.Failf[R](result.Unexpected, CodeOutputMismatch,
			"handler for %q returned %T, caller expects %T", tag, res.Value(), want)
	}
	return result.Ok(out)
}
