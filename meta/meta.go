// Package meta carries request metadata through context.
package meta

import (
	"context"

	"github.com/code19m/errx"
)

// ContextKey is a type for keys used in context values for metadata.
type ContextKey string

const (
	// TraceID identifies a request across services.
	TraceID ContextKey = "trace_id"

	// RequestUserID identifies the user making the request.
	RequestUserID ContextKey = "request_user_id"

	// RequestUserType indicates the type of the user making the request.
	RequestUserType ContextKey = "request_user_type"

	// TenantID identifies the tenant the request is scoped to.
	TenantID ContextKey = "tenant_id"

	// ElevatedAccess is "true" when the caller is a recognized cross-tenant identity.
	ElevatedAccess ContextKey = "elevated_access"

	// IPAddress contains the client's IP address.
	IPAddress ContextKey = "ip_address"

	// UserAgent contains the user agent string from the request.
	UserAgent ContextKey = "user_agent"

	// ServiceName identifies the name of current running service.
	ServiceName ContextKey = "service_name"

	// ServiceVersion indicates the version of the service.
	ServiceVersion ContextKey = "service_version"

	// EventID is set while an integration event is being handled.
	EventID ContextKey = "event_id"

	// EventName is set while an integration event is being handled.
	EventName ContextKey = "event_name"
)

//nolint:gochecknoglobals // fixed list of extractable keys
var allKeys = []ContextKey{
	TraceID,
	RequestUserID,
	RequestUserType,
	TenantID,
	ElevatedAccess,
	IPAddress,
	UserAgent,
	ServiceName,
	ServiceVersion,
	EventID,
	EventName,
}

// InjectMetaToContext adds the non-empty values of data to ctx.
func InjectMetaToContext(ctx context.Context, data map[ContextKey]string) context.Context {
	for k, v := range data {
		if v != "" {
			ctx = context.WithValue(ctx, k, v) //nolint:fatcontext // finite number of keys
		}
	}
	return ctx
}

// ExtractMetaFromContext returns every predefined key that holds a non-empty string in ctx.
func ExtractMetaFromContext(ctx context.Context) map[ContextKey]string {
	data := make(map[ContextKey]string)
	for _, k := range allKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			data[k] = v
		}
	}
	return data
}

// Find returns the value of key or an empty string.
func Find(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// ShouldGetMeta returns the value of key, failing if it is missing or not a string.
func ShouldGetMeta(ctx context.Context, key ContextKey) (string, error) {
	raw := ctx.Value(key)
	if raw == nil {
		return "", errx.New("[meta]: key not found", errx.WithDetails(errx.D{"key": string(key)}))
	}
	v, ok := raw.(string)
	if !ok {
		return "", errx.New("[meta]: type mismatch", errx.WithDetails(errx.D{"key": string(key)}))
	}
	return v, nil
}
