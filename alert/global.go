package alert

import (
	"context"
	"sync/atomic"
)

//nolint:gochecknoglobals // global provider singleton
var global atomic.Pointer[Provider]

// SetGlobal replaces the global provider.
func SetGlobal(p Provider) {
	global.Store(&p)
}

// Global returns the global provider, or a no-op provider when none was set.
func Global() Provider {
	if p := global.Load(); p != nil {
		return *p
	}
	return Nop()
}

// SendError sends an alert through the global provider.
func SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	return Global().SendError(ctx, errCode, msg, operation, details)
}
