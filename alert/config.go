package alert

import "time"

const (
	SchemaNop      = "nop"
	SchemaLog      = "log"
	SchemaSentinel = "sentinel"
)

// Config selects and configures the alert provider built by New.
type Config struct {
	// Disable, if true, drops every alert regardless of Schema.
	Disable bool `yaml:"disable" default:"false"`

	// Schema picks the backend: "log" writes alerts to the logger, "sentinel" sends them
	// to a Sentinel service over gRPC, "nop" drops them.
	Schema string `yaml:"schema" default:"log" validate:"oneof=nop log sentinel"`

	// SentinelHost is the hostname or IP address of the Sentinel service.
	SentinelHost string `yaml:"sentinel_host" validate:"required_if=Schema sentinel"`

	// SentinelPort is the port number of the Sentinel service.
	SentinelPort int `yaml:"sentinel_port" validate:"required_if=Schema sentinel"`

	// SendTimeout bounds a single alert delivery.
	SendTimeout time.Duration `yaml:"send_timeout" default:"3s"`

	// Cooldown suppresses repeats of the same operation and code. Zero disables it.
	Cooldown time.Duration `yaml:"cooldown" default:"0s"`
}
