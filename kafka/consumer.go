package kafka

import (
	"context"
	"errors"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/alert"
	"github.com/rise-and-shine/blocks/integration"
	"github.com/rise-and-shine/blocks/logger"
)

// HandleFunc is a delivery handler that should be injected into the consumer.
type HandleFunc func(context.Context, *sarama.ConsumerMessage) error

// Consumer reads one topic within a consumer group and hands every message to a
// handler chain of recovery, tracing, meta, timeout, logging, alerting and retry.
//
// A message's offset is marked once the chain returns. A message that still fails after
// the retry budget is dropped unless a dead letter producer is set with WithDeadLetter.
type Consumer struct {
	cfg           ConsumerConfig
	logger        logger.Logger
	alertProvider alert.Provider
	consumerGroup sarama.ConsumerGroup
	handler       HandleFunc
	deadLetter    *Producer
}

type ConsumerOption func(*Consumer)

// WithAlertProvider sets where failed deliveries are reported. Defaults to alert.Global().
func WithAlertProvider(p alert.Provider) ConsumerOption {
	return func(c *Consumer) { c.alertProvider = p }
}

// WithDeadLetter parks messages that still fail after the retry budget on p's topic
// before their offset is marked. Without it such messages are dropped.
func WithDeadLetter(p *Producer) ConsumerOption {
	return func(c *Consumer) { c.deadLetter = p }
}

// NewConsumer creates a new kafka consumer.
func NewConsumer(cfg ConsumerConfig, handleFn HandleFunc, l logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	saramaCfg, err := cfg.getSaramaConfig()
	if err != nil {
		return nil, errx.Wrap(err)
	}

	consumerGroup, err := sarama.NewConsumerGroup(cfg.BrokerList(), cfg.GroupID, saramaCfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return newConsumer(cfg, consumerGroup, handleFn, l, opts...), nil
}

func newConsumer(
	cfg ConsumerConfig,
	group sarama.ConsumerGroup,
	handleFn HandleFunc,
	l logger.Logger,
	opts ...ConsumerOption,
) *Consumer {
	c := &Consumer{
		cfg:           cfg,
		logger:        l.Named("kafka.consumer"),
		alertProvider: alert.Global(),
		consumerGroup: group,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.handler = c.buildHandlerChain(handleFn)
	return c
}

// RouteTo feeds messages to an integration router, using the event_name header as the
// routing key. Messages without the header are routed by the name inside the envelope.
func RouteTo(r *integration.Router) HandleFunc {
	return func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		name := header(msg, HeaderEventName)
		if name == "" {
			env, err := integration.Open(msg.Value)
			if err != nil {
				return err
			}
			name = env.EventName
		}
		return r.Route(ctx, name, msg.Value)
	}
}

// Start consumes until ctx is done or the consumer is stopped.
func (c *Consumer) Start(ctx context.Context) error {
	// the main consume loop, parent of the ConsumeClaim() partition consumer loop
	for {
		err := c.consumerGroup.Consume(ctx, []string{c.cfg.Topic}, c)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errx.Wrap(err)
		}
		if ctx.Err() != nil {
			return nil
		}

		c.logger.Info("[kafka]: rebalancing occurred, waiting for new messages")
	}
}

func (c *Consumer) Stop() error {
	return errx.Wrap(c.consumerGroup.Close())
}

// Setup implements sarama.ConsumerGroupHandler contract.
func (c *Consumer) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup implements sarama.ConsumerGroupHandler contract.
func (c *Consumer) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	// NOTE:
	// Do not move the code below to a goroutine.
	// The `ConsumeClaim` itself is called within a goroutine,
	// https://github.com/IBM/sarama/blob/main/consumer_group.go#L27-L29
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			// the error is already logged and alerted by the chain
			if err := c.handler(session.Context(), message); err != nil {
				if parkErr := c.park(session.Context(), message, err); parkErr != nil {
					// leave the offset unmarked so the message is redelivered after the next rebalance
					return parkErr
				}
			}

			session.MarkMessage(message, "")

		// Should return when `session.Context()` is done
		// if not, will raise `ErrRebalanceInProgress` or `read tcp <ip>:<port>: i/o timeout` when kafka rebalance
		// https://github.com/IBM/sarama/issues/1192
		case <-session.Context().Done():
			return nil
		}
	}
}

// park copies a failed message to the dead letter topic, keeping its headers and
// recording where it came from and why it failed.
func (c *Consumer) park(ctx context.Context, msg *sarama.ConsumerMessage, cause error) error {
	if c.deadLetter == nil {
		return nil
	}

	headers := make(map[string]string, len(msg.Headers)+4)
	for _, h := range msg.Headers {
		if h != nil {
			headers[string(h.Key)] = string(h.Value)
		}
	}
	headers[HeaderDeadLetterTopic] = msg.Topic
	headers[HeaderDeadLetterPartition] = strconv.Itoa(int(msg.Partition))
	headers[HeaderDeadLetterOffset] = strconv.FormatInt(msg.Offset, 10)
	headers[HeaderDeadLetterError] = cause.Error()

	err := c.deadLetter.SendMessage(context.WithoutCancel(ctx), &Message{Key: msg.Key, Value: msg.Value, Headers: headers})
	if err != nil {
		c.logger.WithContext(ctx).
			With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset).
			Error("[kafka]: failed to park message on the dead letter topic")
		return errx.Wrap(err)
	}
	return nil
}

func (c *Consumer) buildHandlerChain(handler HandleFunc) HandleFunc {
	// build the chain in reverse order (last wrapper first)
	handler = c.handlerWithRetry(handler)         // 7. retry
	handler = c.handlerWithErrorHandling(handler) // 6. error handling
	handler = c.handlerWithAlerting(handler)      // 5. alerting
	handler = c.handlerWithLogging(handler)       // 4. logging
	handler = c.handlerWithTimeout(handler)       // 3. timeout
	handler = c.handlerWithMetaInjection(handler) // 2. meta
	handler = c.handlerWithTracing(handler)       // 1. tracing
	handler = c.handlerWithRecovery(handler)      // 0. recovery (outermost)

	return handler
}
