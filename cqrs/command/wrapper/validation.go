package wrapper

import (
	"context"
	"reflect"

	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/result"
	"github.com/rise-and-shine/blocks/val"
)

type ValidationCommandWrapper[I command.Input, R command.Output] struct {
	next command.Command[I, R]
}

// NewValidationCommandWrapper validates struct inputs against their `validate` tags and
// returns a ValidationFailed result without calling the handler when they fail.
func NewValidationCommandWrapper[I command.Input, R command.Output]() command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &ValidationCommandWrapper[I, R]{next: next}
	}
}

func (cmd *ValidationCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	if isStruct(input) {
		if err := val.ValidateSchema(input); err != nil {
			return result.FromError[R](err)
		}
	}
	return cmd.next.Execute(ctx, input)
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(v).IsNil() {
			return false
		}
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
