package meta

import (
	"context"
	"sync/atomic"
)

// Service identifies the running process.
type Service struct {
	Name    string
	Version string
}

//nolint:gochecknoglobals // process-wide identity, set once at startup
var current atomic.Pointer[Service]

// SetServiceInfo records the service identity. Only the first call has effect.
func SetServiceInfo(name, version string) {
	current.CompareAndSwap(nil, &Service{Name: name, Version: version})
}

// CurrentService returns the recorded identity, zero if none was set.
func CurrentService() Service {
	if s := current.Load(); s != nil {
		return *s
	}
	return Service{}
}

// GetServiceName returns the recorded service name.
func GetServiceName() string { return CurrentService().Name }

// GetServiceVersion returns the recorded service version.
func GetServiceVersion() string { return CurrentService().Version }

// WithService stores the service name and version in ctx.
func WithService(ctx context.Context) context.Context {
	s := CurrentService()
	return InjectMetaToContext(ctx, map[ContextKey]string{
		ServiceName:    s.Name,
		ServiceVersion: s.Version,
	})
}
