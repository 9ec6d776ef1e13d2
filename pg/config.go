package pg

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config describes a PostgreSQL connection and its pool.
type Config struct {
	// Debug logs every query through the debug hook.
	Debug bool `yaml:"debug" default:"false"`
	// SlowQueryThreshold marks slower queries as warnings in debug logs. Zero disables it.
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" default:"100ms"`

	Host     string `yaml:"host"     validate:"required"`
	Port     int    `yaml:"port"     validate:"required" default:"5432"`
	User     string `yaml:"user"     validate:"required"`
	Password string `yaml:"password" validate:"required" mask:"true"`
	Database string `yaml:"database" validate:"required"`

	SSLMode        string        `yaml:"sslmode"         default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	SearchPath     string        `yaml:"search_path"     default:"public"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
	// ApplicationName shows up in pg_stat_activity. Empty leaves it unset.
	ApplicationName string `yaml:"application_name"`
	// StatementTimeout aborts statements running longer. Zero keeps the server default.
	StatementTimeout time.Duration `yaml:"statement_timeout"`

	Pool PoolConfig `yaml:"pool"`
}

// PoolConfig sizes the pgx connection pool.
type PoolConfig struct {
	MaxConns          int32         `yaml:"max_conns"           default:"4"   validate:"gte=1"`
	MinConns          int32         `yaml:"min_conns"           default:"1"   validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime"   default:"1h"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time"  default:"30m"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period" default:"1m"`
}

// connString renders the config as a postgres:// URL. Credentials are escaped,
// and search_path, application_name and statement_timeout become runtime parameters.
func (c Config) connString() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	if c.SearchPath != "" {
		q.Set("search_path", c.SearchPath)
	}
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	if c.StatementTimeout > 0 {
		q.Set("statement_timeout", strconv.FormatInt(c.StatementTimeout.Milliseconds(), 10))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}
