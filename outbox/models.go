package outbox

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/integration"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Record is one staged event. Its id is the event id, so staging the same event twice
// violates the primary key instead of publishing it twice.
type Record struct {
	bun.BaseModel `bun:"table:outbox_events,alias:oe"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	EventName   string    `bun:"event_name,notnull"`
	Payload     []byte    `bun:"payload,type:jsonb,notnull"`
	TraceID     string    `bun:"trace_id,nullzero"`
	Status      Status    `bun:"status,notnull"`
	Attempts    int       `bun:"attempts,notnull"`
	LastError   string    `bun:"last_error,nullzero"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	AvailableAt time.Time `bun:"available_at,notnull"`
	SentAt      time.Time `bun:"sent_at,nullzero"`
}

// NewRecord seals e into a pending record available immediately.
func NewRecord(e integration.Event, traceID string, now time.Time) (Record, error) {
	payload, err := integration.Marshal(e)
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:          e.EventID(),
		EventName:   integration.NameOf(e),
		Payload:     payload,
		TraceID:     traceID,
		Status:      StatusPending,
		CreatedAt:   now,
		AvailableAt: now,
	}, nil
}

// RetryDelay returns the backoff before the next pass of a record that failed attempts
// times: base doubled per attempt, capped at limit.
func RetryDelay(attempts int, base, limit time.Duration) time.Duration {
	if attempts <= 1 {
		return min(base, limit)
	}
	delay := base
	for range attempts - 1 {
		delay *= 2
		if delay >= limit {
			return limit
		}
	}
	return delay
}
