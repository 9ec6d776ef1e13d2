package pg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	cfg := Config{
		Host:             "db.local",
		Port:             5433,
		User:             "app",
		Password:         "p@ss:w/rd",
		Database:         "orders",
		SSLMode:          "disable",
		SearchPath:       "billing",
		ConnectTimeout:   5 * time.Second,
		ApplicationName:  "orders-api",
		StatementTimeout: 2 * time.Second,
		Pool: PoolConfig{
			MaxConns:          8,
			MinConns:          2,
			HealthCheckPeriod: 30 * time.Second,
		},
	}

	pc, err := poolConfig(cfg)
	require.NoError(t, err)

	cc := pc.ConnConfig
	assert.Equal(t, "db.local", cc.Host)
	assert.Equal(t, uint16(5433), cc.Port)
	assert.Equal(t, "app", cc.User)
	assert.Equal(t, "p@ss:w/rd", cc.Password)
	assert.Equal(t, "orders", cc.Database)
	assert.Equal(t, 5*time.Second, cc.ConnectTimeout)
	assert.Equal(t, "billing", cc.RuntimeParams["search_path"])
	assert.Equal(t, "orders-api", cc.RuntimeParams["application_name"])
	assert.Equal(t, "2000", cc.RuntimeParams["statement_timeout"])

	assert.Equal(t, int32(8), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, 30*time.Second, pc.HealthCheckPeriod)
}

func TestPoolConfigRejectsBadSSLMode(t *testing.T) {
	_, err := poolConfig(Config{Host: "h", Port: 5432, User: "u", Database: "d", SSLMode: "sometimes"})
	require.Error(t, err)
}
