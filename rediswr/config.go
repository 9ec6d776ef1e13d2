package rediswr

import "time"

// Config defines the configuration options for Redis connections.
type Config struct {
	// Addrs is the list of Redis server addresses in the format "host:port,host2:port2".
	Addrs string `yaml:"addrs" validate:"required"`

	// Username is the username for the Redis server/cluster.
	Username string `yaml:"username"`

	// Password is the password for the Redis server/cluster.
	Password string `yaml:"password" mask:"true"`

	// DB selects the logical database. Ignored in cluster mode.
	DB int `yaml:"db" default:"0"`

	// IsClusterMode forces a cluster client even for a single seed address.
	// Several addresses select cluster mode on their own.
	IsClusterMode bool `yaml:"is_cluster_mode"`
}

// SeenConfig configures the duplicate-delivery guard.
type SeenConfig struct {
	// KeyPrefix namespaces the guard keys.
	KeyPrefix string `yaml:"key_prefix" default:"seen"`
	// TTL bounds how long a delivery is remembered. It should exceed the broker's redelivery window.
	TTL time.Duration `yaml:"ttl" default:"72h" validate:"gt=0"`
}
