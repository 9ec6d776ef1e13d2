package integration

import "context"

// Publisher sends a serialized envelope to a broker. eventName is the routing key so
// that consumers can filter without decoding unrelated payloads.
type Publisher interface {
	Publish(ctx context.Context, eventName string, payload []byte) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, eventName string, payload []byte) error

func (f PublisherFunc) Publish(ctx context.Context, eventName string, payload []byte) error {
	return f(ctx, eventName, payload)
}

// Handler consumes one event type. Delivery is at least once: Handle must tolerate the
// same event id more than once, or be wrapped with Deduplicate.
type Handler[E Event] interface {
	Handle(ctx context.Context, event E) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[E Event] func(ctx context.Context, event E) error

func (f HandlerFunc[E]) Handle(ctx context.Context, event E) error {
	return f(ctx, event)
}
