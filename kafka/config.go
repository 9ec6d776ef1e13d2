package kafka

import (
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/code19m/errx"
	"github.com/samber/lo"

	"github.com/rise-and-shine/blocks/meta"
)

// Connection holds the broker settings shared by producers and consumers.
type Connection struct {
	// Brokers is a comma separated host:port list.
	Brokers      string `yaml:"brokers"       validate:"required"`
	SaslUsername string `yaml:"sasl_username"`
	SaslPassword string `yaml:"sasl_password" mask:"true"`
	KafkaVersion string `yaml:"kafka_version" default:"3.6.0"`
}

// BrokerList splits Brokers, dropping blanks.
func (c Connection) BrokerList() []string {
	return lo.Compact(lo.Map(strings.Split(c.Brokers, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Apply writes version and SASL/PLAIN credentials into cfg. SASL is enabled
// only when both username and password are set.
func (c Connection) Apply(cfg *sarama.Config) error {
	if c.KafkaVersion != "" {
		version, err := sarama.ParseKafkaVersion(c.KafkaVersion)
		if err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"kafka_version": c.KafkaVersion}))
		}
		cfg.Version = version
	}
	if c.SaslUsername != "" && c.SaslPassword != "" {
		cfg.Net.SASL.Enable = true
		cfg.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		cfg.Net.SASL.User = c.SaslUsername
		cfg.Net.SASL.Password = c.SaslPassword
	}
	return nil
}

// ConsumerConfig configures a consumer group reading one topic.
type ConsumerConfig struct {
	Connection `yaml:",inline"`

	Topic string `yaml:"topic" validate:"required"`
	// GroupID defaults to the service name.
	GroupID       string `yaml:"group_id"`
	InitialOffset string `yaml:"initial_offset" default:"newest" validate:"oneof=newest oldest"`

	HandlerTimeout time.Duration `yaml:"handler_timeout" default:"30s"`
	RetryDisabled  bool          `yaml:"retry_disabled"`
	RetryCount     uint          `yaml:"retry_count"     default:"3"`
	RetryDelay     time.Duration `yaml:"retry_delay"     default:"200ms"`
}

func (c *ConsumerConfig) getSaramaConfig() (*sarama.Config, error) {
	if c.GroupID == "" {
		c.GroupID = meta.GetServiceName()
	}
	if c.GroupID == "" {
		return nil, errx.New("[kafka]: consumer group id is empty and no service name is set")
	}

	sc := sarama.NewConfig()
	sc.ClientID = c.GroupID
	if err := c.Apply(sc); err != nil {
		return nil, err
	}

	offsets := map[string]int64{"": sarama.OffsetNewest, "newest": sarama.OffsetNewest, "oldest": sarama.OffsetOldest}
	initial, ok := offsets[c.InitialOffset]
	if !ok {
		return nil, errx.New("[kafka]: unknown initial offset", errx.WithDetails(errx.D{
			"initial_offset": c.InitialOffset,
		}))
	}
	sc.Consumer.Offsets.Initial = initial
	return sc, nil
}

// ProducerConfig configures a sync producer bound to one topic.
type ProducerConfig struct {
	Connection `yaml:",inline"`

	Topic        string `yaml:"topic"         validate:"required"`
	RequiredAcks string `yaml:"required_acks" default:"all"  validate:"omitempty,oneof=all leader none"`
	Compression  string `yaml:"compression"   default:"none" validate:"omitempty,oneof=none gzip snappy lz4 zstd"`
	MaxRetries   int    `yaml:"max_retries"   default:"3"    validate:"gte=0"`
}

func (c *ProducerConfig) getSaramaConfig() (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = lo.CoalesceOrEmpty(meta.GetServiceName(), sc.ClientID)
	if err := c.Apply(sc); err != nil {
		return nil, err
	}

	// required by sarama.NewSyncProducer
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = c.MaxRetries

	acks := map[string]sarama.RequiredAcks{
		"": sarama.WaitForAll, "all": sarama.WaitForAll, "leader": sarama.WaitForLocal, "none": sarama.NoResponse,
	}
	sc.Producer.RequiredAcks = lo.ValueOr(acks, c.RequiredAcks, sarama.WaitForAll)

	if c.Compression != "" {
		if err := sc.Producer.Compression.UnmarshalText([]byte(c.Compression)); err != nil {
			return nil, errx.Wrap(err, errx.WithDetails(errx.D{"compression": c.Compression}))
		}
	}
	return sc, nil
}
