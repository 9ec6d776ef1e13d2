// Package panics turns recovered panic values into logged errx errors.
package panics

import (
	"fmt"
	"runtime"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/logger"
)

// CodeRecovered is the error code of every recovered panic.
const CodeRecovered = "PANIC_RECOVERED"

const stackSize = 8 << 10

// Recovered is a captured panic value together with the goroutine stack.
type Recovered struct {
	Value any
	Stack string
}

// Capture records v and the current stack. Call it from the deferred function
// that called recover.
func Capture(v any) Recovered {
	buf := make([]byte, stackSize)
	return Recovered{Value: v, Stack: string(buf[:runtime.Stack(buf, false)])}
}

// Err renders the panic as an untyped errx error, which callers treat as Unexpected.
func (r Recovered) Err(msg string) error {
	return errx.New(msg,
		errx.WithCode(CodeRecovered),
		errx.WithDetails(errx.D{
			"panic_values": fmt.Sprintf("%v", r.Value),
			"stack_trace":  r.Stack,
		}),
	)
}

// Handle captures v, logs it at error level when l is not nil and returns the error.
func Handle(v any, l logger.Logger, msg string) error {
	r := Capture(v)
	if l != nil {
		l.With("panic_values", fmt.Sprintf("%v", r.Value)).
			With("stack_trace", r.Stack).
			Error(msg)
	}
	return r.Err(msg)
}
