package integration

import (
	"context"
	"time"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/alert"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

const (
	CodePublishFailed = "EVENT_PUBLISH_FAILED"

	alertTimeout = 3 * time.Second
)

// Emitter publishes events produced by a command after its state change committed.
// Failures are logged and alerted; they never reach the command's result because the
// events describe facts that already happened.
type Emitter struct {
	publisher     Publisher
	logger        logger.Logger
	alertProvider alert.Provider
}

type EmitterOption func(*Emitter)

// WithAlertProvider sets where publish failures are reported. Defaults to alert.Global().
func WithAlertProvider(p alert.Provider) EmitterOption {
	return func(e *Emitter) { e.alertProvider = p }
}

func NewEmitter(p Publisher, l logger.Logger, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		publisher:     p,
		logger:        l.Named("integration.emitter"),
		alertProvider: alert.Global(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PublishAll publishes events in order and returns how many were accepted by the
// publisher. A failing event does not stop the rest.
func (e *Emitter) PublishAll(ctx context.Context, events ...Event) int {
	published := 0
	for _, event := range events {
		if err := e.publish(ctx, event); err != nil {
			e.report(ctx, event, err)
			continue
		}
		published++
	}
	return published
}

// AfterCommit returns a hook for uow.UnitOfWork.AfterCommit that publishes events.
func (e *Emitter) AfterCommit(events ...Event) func(context.Context) {
	return func(ctx context.Context) {
		e.PublishAll(ctx, events...)
	}
}

func (e *Emitter) publish(ctx context.Context, event Event) error {
	payload, err := Marshal(event)
	if err != nil {
		return err
	}
	return errx.Wrap(e.publisher.Publish(ctx, NameOf(event), payload), errx.WithCode(CodePublishFailed))
}

func (e *Emitter) report(ctx context.Context, event Event, err error) {
	name := NameOf(event)
	e.logger.WithContext(ctx).
		With("event_id", event.EventID().String(), "event_name", name).
		Errorx(err)

	details := map[string]string{"event_id": event.EventID().String()}
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	ex := errx.AsErrorX(err)
	if sendErr := e.alertProvider.SendError(alertCtx, ex.Code(), err.Error(), "publish event: "+name, details); sendErr != nil {
		e.logger.WithContext(ctx).With("alert_send_error", sendErr).Warn("failed to send error alert")
	}
}
