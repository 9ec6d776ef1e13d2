// Package wrapper provides middleware for query handlers.
package wrapper

import (
	"fmt"
	"strings"
)

func handlerName(q any) string {
	fullType := strings.TrimPrefix(fmt.Sprintf("%T", q), "*")
	if i := strings.IndexByte(fullType, '['); i >= 0 {
		fullType = fullType[:i]
	}
	parts := strings.Split(fullType, ".")
	return parts[len(parts)-1]
}
