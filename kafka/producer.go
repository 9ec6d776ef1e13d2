package kafka

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"

	"github.com/rise-and-shine/blocks/integration"
)

// HeaderEventName carries the routing key of integration events.
const HeaderEventName = "event_name"

// Headers added to messages parked on a dead letter topic.
const (
	HeaderDeadLetterTopic     = "dlq_source_topic"
	HeaderDeadLetterPartition = "dlq_source_partition"
	HeaderDeadLetterOffset    = "dlq_source_offset"
	HeaderDeadLetterError     = "dlq_error"
)

var _ integration.Publisher = (*Producer)(nil)

// Message is an outgoing record. Headers are sent in addition to the
// propagated trace context.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer writes to a single topic through a sarama sync producer.
type Producer struct {
	topic string
	sp    sarama.SyncProducer
}

// NewProducer dials the brokers from cfg. The client id is the service name
// recorded with meta.SetServiceInfo, when there is one.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	sc, err := cfg.getSaramaConfig()
	if err != nil {
		return nil, err
	}

	sp, err := sarama.NewSyncProducer(cfg.BrokerList(), sc)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"brokers": cfg.Brokers}))
	}
	return NewProducerFrom(sp, cfg.Topic), nil
}

// NewProducerFrom wraps an existing sync producer.
func NewProducerFrom(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{topic: topic, sp: sp}
}

// Publish sends an encoded envelope keyed and headed by its event name, so
// all events of one name land on the same partition.
func (p *Producer) Publish(ctx context.Context, eventName string, payload []byte) error {
	return p.SendMessage(ctx, &Message{
		Key:     []byte(eventName),
		Value:   payload,
		Headers: map[string]string{HeaderEventName: eventName},
	})
}

func (p *Producer) SendMessage(ctx context.Context, m *Message) error {
	partition, offset, err := p.sp.SendMessage(p.record(ctx, m))
	if err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{
			"topic":     p.topic,
			"partition": partition,
			"offset":    offset,
			"key":       string(m.Key),
		}))
	}
	return nil
}

// SendMessages sends a batch. sarama reports the failed subset as ProducerErrors.
func (p *Producer) SendMessages(ctx context.Context, messages []Message) error {
	records := make([]*sarama.ProducerMessage, len(messages))
	for i := range messages {
		records[i] = p.record(ctx, &messages[i])
	}

	if err := p.sp.SendMessages(records); err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"topic": p.topic, "count": len(messages)}))
	}
	return nil
}

func (p *Producer) record(ctx context.Context, m *Message) *sarama.ProducerMessage {
	rec := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.ByteEncoder(m.Key),
		Value: sarama.ByteEncoder(m.Value),
		Headers: lo.MapToSlice(m.Headers, func(k, v string) sarama.RecordHeader {
			return sarama.RecordHeader{Key: []byte(k), Value: []byte(v)}
		}),
	}
	otel.GetTextMapPropagator().Inject(ctx, producerCarrier{msg: rec})
	return rec
}

func (p *Producer) Close() error {
	return errx.Wrap(p.sp.Close())
}
