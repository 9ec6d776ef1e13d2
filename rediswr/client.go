// Package rediswr wraps go-redis clients and provides Redis-backed building blocks.
package rediswr

import (
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// New creates a Redis client without dialing. IsClusterMode forces a cluster
// client; otherwise go-redis picks a single-node client for one address and a
// cluster client for several.
func New(cfg Config) redis.UniversalClient {
	addrs := lo.Compact(lo.Map(strings.Split(cfg.Addrs, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))

	if cfg.IsClusterMode {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}

	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
