package tracing

import (
	"net"
	"time"

	"github.com/spf13/cast"
)

// Config controls span collection and OTLP export.
type Config struct {
	// Disable installs a no-op provider. Propagators are still set.
	Disable bool `yaml:"disable" default:"false"`

	// SampleRate is the fraction of root traces kept, 0 to 1. Child spans follow their parent.
	SampleRate float64 `yaml:"sample_rate" default:"1" validate:"gte=0,lte=1"`

	ExporterHost string `yaml:"exporter_host" validate:"required_if=Disable false"`
	ExporterPort int    `yaml:"exporter_port" validate:"required_if=Disable false"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" default:"true"`

	// Tags become resource attributes on every span.
	Tags map[string]string `yaml:"tags"`

	Batch BatchConfig `yaml:"batch"`
}

// BatchConfig tunes the span batcher and the exporter client.
type BatchConfig struct {
	MaxQueueSize       int           `yaml:"max_queue_size"        default:"10000"`
	MaxExportBatchSize int           `yaml:"max_export_batch_size" default:"1024"`
	Timeout            time.Duration `yaml:"timeout"               default:"30s"`
	ExportTimeout      time.Duration `yaml:"export_timeout"        default:"30s"`
	ReconnectPeriod    time.Duration `yaml:"reconnect_period"      default:"30s"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"      default:"5s"`
}

func (c Config) endpoint() string {
	return net.JoinHostPort(c.ExporterHost, cast.ToString(c.ExporterPort))
}
