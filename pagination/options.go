package pagination

import "github.com/rise-and-shine/blocks/sorter"

const (
	defaultPageSize = 20
	defaultMaxSize  = 100
)

// Config configures filter normalization. It is meant to be embedded in service configs.
type Config struct {
	// DefaultPageSize replaces any page size below 1.
	DefaultPageSize int `yaml:"default_page_size" default:"20" validate:"gte=1"`
	// MaxPageSize caps the page size. Zero disables the cap.
	MaxPageSize int `yaml:"max_page_size" default:"100" validate:"gte=0"`
	// SortPolicy decides whether unknown sort fields/directions fall back or fail.
	SortPolicy sorter.Policy `yaml:"sort_policy" default:"lenient" validate:"oneof=lenient strict"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     defaultMaxSize,
		SortPolicy:      sorter.Lenient,
	}
}

type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

func WithDefaultPageSize(size int) Option {
	return func(c *Config) {
		c.DefaultPageSize = size
	}
}

// WithMaxPageSize sets the page size cap. Zero disables it.
func WithMaxPageSize(maxSize int) Option {
	return func(c *Config) {
		c.MaxPageSize = maxSize
	}
}

func WithSortPolicy(p sorter.Policy) Option {
	return func(c *Config) {
		c.SortPolicy = p
	}
}

func buildConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DefaultPageSize < 1 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize > 0 && cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	return cfg
}
