package outbox

import "time"

const tableName = "outbox_events"

// RelayConfig controls how the relay drains the outbox table.
type RelayConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" default:"500ms"`
	BatchSize    int           `yaml:"batch_size"    default:"100"   validate:"min=1"`
	Lease        time.Duration `yaml:"lease"         default:"30s"`

	// PublishAttempts is how many times one relay pass tries a record before it is
	// rescheduled.
	PublishAttempts uint          `yaml:"publish_attempts" default:"3"`
	PublishDelay    time.Duration `yaml:"publish_delay"    default:"100ms"`

	// MaxAttempts is how many passes a record gets before it is parked as failed.
	MaxAttempts int           `yaml:"max_attempts" default:"10"`
	RetryBase   time.Duration `yaml:"retry_base"   default:"1s"`
	RetryMax    time.Duration `yaml:"retry_max"    default:"1h"`

	CleanupInterval time.Duration `yaml:"cleanup_interval" default:"1h"`
	RetainSent      time.Duration `yaml:"retain_sent"      default:"168h"`
}

// DefaultRelayConfig mirrors the default tags.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{
		PollInterval:    500 * time.Millisecond,
		BatchSize:       100,
		Lease:           30 * time.Second,
		PublishAttempts: 3,
		PublishDelay:    100 * time.Millisecond,
		MaxAttempts:     10,
		RetryBase:       time.Second,
		RetryMax:        time.Hour,
		CleanupInterval: time.Hour,
		RetainSent:      7 * 24 * time.Hour,
	}
}
