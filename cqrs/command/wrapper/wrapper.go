// Package wrapper provides middleware for command handlers: logging, panic recovery,
// timeouts, tracing, metadata injection, alerting and input validation.
package wrapper

import (
	"fmt"
	"strings"
)

// handlerName returns the bare type name of a handler, used as span name.
func handlerName(cmd any) string {
	fullType := strings.TrimPrefix(fmt.Sprintf("%T", cmd), "*")
	if i := strings.IndexByte(fullType, '['); i >= 0 {
		fullType = fullType[:i]
	}
	parts := strings.Split(fullType, ".")
	return parts[len(parts)-1]
}
