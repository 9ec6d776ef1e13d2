package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/panics"
	"github.com/rise-and-shine/blocks/tracing"
)

// handlerWithRecovery is a wrapper around the handler to add recovery support
func (c *Consumer) handlerWithRecovery(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panics.Handle(r, c.logger.Named("recovery").WithContext(ctx), "panic recovered in consumer handler")
			}
		}()
		return next(ctx, msg)
	}
}

// handlerWithTracing continues the producer's trace from the message headers.
func (c *Consumer) handlerWithTracing(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
		ctx = otel.GetTextMapPropagator().Extract(ctx, consumerCarrier{msg: msg})

		ctx, span := otel.Tracer("kafka/consumer").Start(ctx, fmt.Sprintf("kafka.%s.consume", msg.Topic),
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.consumer.group.name", c.cfg.GroupID),
				attribute.String("messaging.operation.type", "process"),
				attribute.String("messaging.kafka.message.key", string(msg.Key)),
				attribute.String("messaging.integration.event_name", header(msg, HeaderEventName)),
			),
			trace.WithSpanKind(trace.SpanKindConsumer),
		)

		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()

		return next(ctx, msg)
	}
}

// handlerWithTimeout is a wrapper around the handler to add timeout support
func (c *Consumer) handlerWithTimeout(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		if c.cfg.HandlerTimeout <= 0 {
			return next(ctx, msg)
		}
		ctx, cancel := context.WithTimeout(ctx, c.cfg.HandlerTimeout)
		defer cancel()
		return next(ctx, msg)
	}
}

// handlerWithMetaInjection adds trace id and service identity for downstream handlers.
func (c *Consumer) handlerWithMetaInjection(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		ctx = meta.WithService(meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
			meta.TraceID: tracing.StartingTraceID(ctx),
		}))

		return next(ctx, msg)
	}
}

// handlerWithAlerting is a wrapper around the handler to add alerting
func (c *Consumer) handlerWithAlerting(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		err := next(ctx, msg)
		if err == nil {
			return nil
		}

		e := errx.AsErrorX(err)

		operation := "consumer topic -> " + msg.Topic
		details := make(map[string]string)
		for k, v := range meta.ExtractMetaFromContext(ctx) {
			details[string(k)] = v
		}
		details["error_trace"] = e.Trace()

		sendErr := c.alertProvider.SendError(context.WithoutCancel(ctx), e.Code(), err.Error(), operation, details)
		if sendErr != nil {
			c.logger.Named("alerting").WithContext(ctx).With("send_error", sendErr).Warn("failed to send error alert")
		}

		return err
	}
}

// handlerWithLogging is a wrapper around the handler to add logging
func (c *Consumer) handlerWithLogging(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		start := time.Now()
		err := next(ctx, msg)

		headers := lo.SliceToMap(msg.Headers, func(h *sarama.RecordHeader) (string, string) {
			return string(h.Key), string(h.Value)
		})

		log := c.logger.Named("access_logger").WithContext(ctx).With(
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"duration", time.Since(start).String(),
			"headers", headers,
		)

		if err != nil {
			log.Errorx(err)
			return err
		}
		log.Info("consumed incoming kafka message")
		return nil
	}
}

// handlerWithErrorHandling marks every failure of a delivery as internal.
// TODO: park messages that exhausted retries on a dead letter topic.
func (c *Consumer) handlerWithErrorHandling(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		err := next(ctx, msg)
		if err == nil {
			return nil
		}
		if errx.AsErrorX(err).Type() == errx.T_Validation {
			return err
		}
		return errx.Wrap(err, errx.WithType(errx.T_Internal))
	}
}

// handlerWithRetry is a wrapper around the handler to add retry support with backoff and jitter.
// A malformed message is never retried.
func (c *Consumer) handlerWithRetry(next HandleFunc) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		if c.cfg.RetryDisabled || c.cfg.RetryCount <= 1 {
			return next(ctx, msg)
		}

		log := c.logger.Named("retry").WithContext(ctx)

		delayType := retry.BackOffDelay
		if c.cfg.RetryDelay > 1 {
			delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
		}

		return retry.Do(
			func() error {
				return next(ctx, msg)
			},
			retry.Attempts(c.cfg.RetryCount),
			retry.Delay(c.cfg.RetryDelay),
			retry.MaxJitter(c.cfg.RetryDelay/2),
			retry.DelayType(delayType),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return errx.AsErrorX(err).Type() != errx.T_Validation
			}),
			retry.OnRetry(func(n uint, err error) {
				log.
					With("error", err.Error()).
					With("attempt", n+1).
					With("max_attempts", c.cfg.RetryCount).
					Warn("retrying kafka message")
			}),
			retry.Context(ctx),
		)
	}
}
