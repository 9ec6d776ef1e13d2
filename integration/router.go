package integration

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

// EnvelopeHandler is the type-erased form of a Handler.
type EnvelopeHandler func(ctx context.Context, env Envelope) error

// Middleware decorates an EnvelopeHandler.
type Middleware func(next EnvelopeHandler) EnvelopeHandler

// Router dispatches incoming envelopes by event name to the handler subscribed to it.
// Names nobody subscribed to are skipped without decoding the payload.
type Router struct {
	mu          sync.RWMutex
	handlers    map[string]EnvelopeHandler
	middlewares []Middleware
	logger      logger.Logger
}

// NewRouter returns a router applying mws, outermost first, to every subscription.
func NewRouter(l logger.Logger, mws ...Middleware) *Router {
	return &Router{
		handlers:    map[string]EnvelopeHandler{},
		middlewares: mws,
		logger:      l.Named("integration.router"),
	}
}

// Subscribe binds h to the name of event type E. Extra mws run inside the router's own.
// It panics when the name is already taken.
func Subscribe[E Event](r *Router, h Handler[E], mws ...Middleware) {
	name := NameFor[E]()

	handle := EnvelopeHandler(func(ctx context.Context, env Envelope) error {
		event, err := Decode[E](env)
		if err != nil {
			return err
		}
		return h.Handle(ctx, event)
	})

	chain := append(slices.Clone(r.middlewares), mws...)
	for i := len(chain) - 1; i >= 0; i-- {
		handle = chain[i](handle)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("[integration]: handler for %q is already subscribed", name))
	}
	r.handlers[name] = handle
}

// Names returns the subscribed event names in sorted order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Handles reports whether an event name has a subscriber.
func (r *Router) Handles(eventName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[eventName]
	return ok
}

// Route delivers one message. An unknown event name is not an error.
func (r *Router) Route(ctx context.Context, eventName string, payload []byte) error {
	r.mu.RLock()
	handle, ok := r.handlers[eventName]
	r.mu.RUnlock()
	if !ok {
		r.logger.WithContext(ctx).With("event_name", eventName).Debug("no subscriber, skipping")
		return nil
	}

	env, err := Open(payload)
	if err != nil {
		return err
	}
	if env.EventName != eventName {
		return errx.New("[integration]: routing key does not match envelope",
			errx.WithCode(CodeNameMismatch),
			errx.WithType(errx.T_Validation),
			errx.WithDetails(errx.D{"routing_key": eventName, "event_name": env.EventName}),
		)
	}

	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.EventID:   env.EventID.String(),
		meta.EventName: env.EventName,
	})
	return handle(ctx, env)
}

// Publish makes the router an in-process Publisher.
func (r *Router) Publish(ctx context.Context, eventName string, payload []byte) error {
	return r.Route(ctx, eventName, payload)
}
