package integration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rise-and-shine/blocks/logger"
)

// SeenStore remembers which event ids a consumer has already processed.
type SeenStore interface {
	// MarkSeen records id for consumer and reports whether it was not recorded before.
	MarkSeen(ctx context.Context, consumer string, id uuid.UUID) (bool, error)
	// Forget drops the record so that a redelivery is processed again.
	Forget(ctx context.Context, consumer string, id uuid.UUID) error
}

// Deduplicate skips envelopes whose id consumer already processed. A failed delivery is
// forgotten so that the broker's redelivery gets another chance.
func Deduplicate(store SeenStore, consumer string, l logger.Logger) Middleware {
	log := l.Named("integration.dedup")
	return func(next EnvelopeHandler) EnvelopeHandler {
		return func(ctx context.Context, env Envelope) error {
			first, err := store.MarkSeen(ctx, consumer, env.EventID)
			if err != nil {
				return err
			}
			if !first {
				log.WithContext(ctx).
					With("event_id", env.EventID.String(), "consumer", consumer).
					Debug("duplicate delivery skipped")
				return nil
			}

			if err = next(ctx, env); err != nil {
				if fErr := store.Forget(context.WithoutCancel(ctx), consumer, env.EventID); fErr != nil {
					log.WithContext(ctx).Warnx(fErr)
				}
			}
			return err
		}
	}
}

type seenKey struct {
	consumer string
	id       uuid.UUID
}

// MemorySeenStore is an in-process SeenStore. Entries expire after ttl; zero keeps them
// forever.
type MemorySeenStore struct {
	mu   sync.Mutex
	seen map[seenKey]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemorySeenStore(ttl time.Duration) *MemorySeenStore {
	return &MemorySeenStore{seen: map[seenKey]time.Time{}, ttl: ttl, now: time.Now}
}

func (s *MemorySeenStore) MarkSeen(_ context.Context, consumer string, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := seenKey{consumer: consumer, id: id}
	if at, ok := s.seen[key]; ok && (s.ttl == 0 || now.Sub(at) < s.ttl) {
		return false, nil
	}
	s.seen[key] = now
	return true, nil
}

func (s *MemorySeenStore) Forget(_ context.Context, consumer string, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.seen, seenKey{consumer: consumer, id: id})
	s.mu.Unlock()
	return nil
}
