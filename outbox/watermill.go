package outbox

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/integration"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

const (
	MetadataEventName    = "event_name"
	MetadataPartitionKey = "partition_key"
)

var _ integration.Publisher = (*WatermillPublisher)(nil)

// WatermillPublisher publishes envelopes to one topic of any watermill publisher.
// The watermill message uuid is the event id.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(p message.Publisher, topic string) *WatermillPublisher {
	return &WatermillPublisher{publisher: p, topic: topic}
}

func (w *WatermillPublisher) Publish(ctx context.Context, eventName string, payload []byte) error {
	id := watermill.NewUUID()
	if env, err := integration.Open(payload); err == nil {
		id = env.EventID.String()
	}

	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetadataEventName, eventName)
	msg.Metadata.Set(MetadataPartitionKey, eventName)
	if traceID := meta.Find(ctx, meta.TraceID); traceID != "" {
		msg.Metadata.Set(string(meta.TraceID), traceID)
	}
	msg.SetContext(ctx)

	if err := w.publisher.Publish(w.topic, msg); err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"topic": w.topic, "event_name": eventName}))
	}
	return nil
}

func (w *WatermillPublisher) Close() error {
	return errx.Wrap(w.publisher.Close())
}

// KafkaConfig configures the watermill Kafka publisher used by the relay.
type KafkaConfig struct {
	Brokers string `yaml:"brokers" validate:"required"`
	Topic   string `yaml:"topic"   validate:"required"`
}

// NewKafkaPublisher builds a watermill Kafka publisher partitioned by event name.
func NewKafkaPublisher(cfg KafkaConfig, l logger.Logger) (*WatermillPublisher, error) {
	saramaCfg := wkafka.DefaultSaramaSyncPublisherConfig()
	if name := meta.GetServiceName(); name != "" {
		saramaCfg.ClientID = name
	}

	marshaler := wkafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
		partitionKey := msg.Metadata.Get(MetadataPartitionKey)
		if partitionKey == "" {
			return "", errx.New("[outbox]: partition key is empty")
		}
		return partitionKey, nil
	})

	publisher, err := wkafka.NewPublisher(
		strings.Split(cfg.Brokers, ","),
		marshaler,
		saramaCfg,
		newLoggerAdapter(l.Named("outbox.watermill")),
	)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return NewWatermillPublisher(publisher, cfg.Topic), nil
}
