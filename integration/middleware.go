package integration

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/alert"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/panics"
)

const CodePanicRecovered = panics.CodeRecovered

// WithRecovery turns a panicking handler into an error.
func WithRecovery(l logger.Logger) Middleware {
	log := l.Named("integration.recovery")
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = panics.Handle(r, log.WithContext(ctx), "panic recovered in event handler")
				}
			}()
			return next(ctx, env)
		}
	}
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Middleware {
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) error {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, env)
		}
	}
}

// WithLogging logs every delivery with its duration and outcome.
func WithLogging(l logger.Logger) Middleware {
	log := l.Named("integration.access_logger")
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) error {
			start := time.Now()
			err := next(ctx, env)

			entry := log.WithContext(ctx).With(
				"event_id", env.EventID.String(),
				"event_name", env.EventName,
				"duration", time.Since(start).String(),
			)
			if err != nil {
				entry.Errorx(err)
				return err
			}
			entry.Info("handled integration event")
			return nil
		}
	}
}

// WithRetry retries failed deliveries with exponential backoff. Validation failures
// are not retried; a malformed payload never heals.
func WithRetry(l logger.Logger, attempts uint, delay time.Duration) Middleware {
	log := l.Named("integration.retry")
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) error {
			return retry.Do(
				func() error { return next(ctx, env) },
				retry.Attempts(attempts),
				retry.Delay(delay),
				retry.DelayType(retry.BackOffDelay),
				retry.LastErrorOnly(true),
				retry.RetryIf(func(err error) bool {
					return errx.AsErrorX(err).Type() != errx.T_Validation
				}),
				retry.OnRetry(func(n uint, err error) {
					log.WithContext(ctx).
						With("event_id", env.EventID.String()).
						With("attempt", n+1).
						With("max_attempts", attempts).
						With("error", err.Error()).
						Warn("retrying integration event")
				}),
				retry.Context(ctx),
			)
		}
	}
}

// WithAlerting reports failed deliveries to p.
func WithAlerting(l logger.Logger, p alert.Provider) Middleware {
	log := l.Named("integration.alerting")
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) error {
			err := next(ctx, env)
			if err == nil {
				return nil
			}

			details := map[string]string{}
			for k, v := range meta.ExtractMetaFromContext(ctx) {
				details[string(k)] = v
			}
			e := errx.AsErrorX(err)
			details["error_trace"] = e.Trace()

			sendErr := p.SendError(ctx, e.Code(), err.Error(), "consume event: "+env.EventName, details)
			if sendErr != nil {
				log.WithContext(ctx).With("alert_send_error", sendErr).Warn("failed to send error alert")
			}
			return err
		}
	}
}
