package rediswr

import (
	"context"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/blocks/integration"
)

// SeenClient is the subset of redis.Cmdable the guard uses.
type SeenClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SeenStore remembers processed event ids in Redis so that a redelivered event is
// handled at most once per consumer while its key lives.
type SeenStore struct {
	client SeenClient
	cfg    SeenConfig
}

var _ integration.SeenStore = (*SeenStore)(nil)

// NewSeenStore creates a guard on client.
func NewSeenStore(client SeenClient, cfg SeenConfig) *SeenStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "seen"
	}
	return &SeenStore{client: client, cfg: cfg}
}

// MarkSeen records id for consumer and reports whether it was recorded for the first time.
func (s *SeenStore) MarkSeen(ctx context.Context, consumer string, id uuid.UUID) (bool, error) {
	first, err := s.client.SetNX(ctx, s.key(consumer, id), 1, s.cfg.TTL).Result()
	if err != nil {
		return false, errx.Wrap(err, errx.WithDetails(errx.D{"consumer": consumer, "event_id": id.String()}))
	}
	return first, nil
}

// Forget removes the record so that a failed delivery can be retried.
func (s *SeenStore) Forget(ctx context.Context, consumer string, id uuid.UUID) error {
	err := s.client.Del(ctx, s.key(consumer, id)).Err()
	return errx.Wrap(err, errx.WithDetails(errx.D{"consumer": consumer, "event_id": id.String()}))
}

func (s *SeenStore) key(consumer string, id uuid.UUID) string {
	return strings.Join([]string{s.cfg.KeyPrefix, consumer, id.String()}, ":")
}
