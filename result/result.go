// Package result provides a success/failure outcome carrier for handlers.
//
// Expected failure paths (not found, validation, conflict, forbidden) are returned as
// failure results instead of panicking or bubbling raw errors. Misusing a Result, for
// example reading the value of a failure, is a programming defect and panics.
package result

import (
	"fmt"

	"github.com/code19m/errx"
)

// Result carries exactly one of a value or an error description.
type Result[T any] struct {
	value T
	err   *ErrorInfo
}

// Ok constructs a success result.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Fail constructs a failure result.
func Fail[T any](info ErrorInfo) Result[T] {
	if info.Kind == "" {
		info.Kind = Unexpected
	}
	return Result[T]{err: &info}
}

// Failf is a shortcut for Fail with a formatted message.
func Failf[T any](kind Kind, code, format string, args ...any) Result[T] {
	return Fail[T](ErrorInfo{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)})
}

// FromError converts err into a failure result. The kind is derived from the errx type.
// A nil err is a defect, since there is no value to carry.
func FromError[T any](err error) Result[T] {
	if err == nil {
		panic("result: FromError called with nil error")
	}
	return Fail[T](InfoFromError(err))
}

// IsOk reports whether r is a success.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsFail reports whether r is a failure.
func (r Result[T]) IsFail() bool {
	return r.err != nil
}

// Value returns the success value. Panics on a failure result.
func (r Result[T]) Value() T {
	if r.err != nil {
		panic(fmt.Sprintf("result: Value called on failure (%s: %s)", r.err.Kind, r.err.Message))
	}
	return r.value
}

// Error returns the failure description. Panics on a success result.
func (r Result[T]) Error() ErrorInfo {
	if r.err == nil {
		panic("result: Error called on success")
	}
	return *r.err
}

// ValueOr returns the success value or fallback for a failure.
func (r Result[T]) ValueOr(fallback T) T {
	if r.err != nil {
		return fallback
	}
	return r.value
}

// Unwrap splits the result into Go's conventional (value, error) pair.
// The error is an errx.ErrorX carrying the kind, code and fields.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err.AsError()
	}
	return r.value, nil
}

// String implements fmt.Stringer.
func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Failure(%s)", r.err)
	}
	return fmt.Sprintf("Success(%v)", r.value)
}

// Map transforms the value of a success result and passes failures through.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Ok(fn(r.value))
}

// Bind chains a result-returning function onto a success result.
func Bind[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return fn(r.value)
}

// Match folds both variants into a single value.
func Match[T, U any](r Result[T], onOk func(T) U, onFail func(ErrorInfo) U) U {
	if r.err != nil {
		return onFail(*r.err)
	}
	return onOk(r.value)
}

// Cast re-types a failure result. Panics on a success result.
func Cast[U, T any](r Result[T]) Result[U] {
	if r.err == nil {
		panic("result: Cast called on success")
	}
	return Result[U]{err: r.err}
}

// Guard wraps err into errx with the given kind. Handy inside handlers:
//
//	if task == nil {
//		return result.FromError[Out](result.Guard(result.NotFound, "TASK_NOT_FOUND", "task not found"))
//	}
func Guard(kind Kind, code, msg string) error {
	return errx.New(msg, errx.WithCode(code), errx.WithType(kind.errxType()))
}
