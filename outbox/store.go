package outbox

import (
	"context"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/uow"
)

// Store is the relay's view of the outbox table.
type Store interface {
	// Claim leases up to limit pending records that are due, oldest first. Leased
	// records are invisible to other relays until lease expires.
	Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]Record, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, availableAt time.Time, lastErr string) error
	Park(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error
	DeleteSent(ctx context.Context, before time.Time) (int64, error)
}

// BunStore keeps the outbox in PostgreSQL through bun.
type BunStore struct {
	db bun.IDB
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

// CreateTable creates the outbox table and its polling index when missing.
func (s *BunStore) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errx.Wrap(err)
	}
	_, err = s.db.NewCreateIndex().
		Model((*Record)(nil)).
		Index("outbox_events_pending_idx").
		IfNotExists().
		Column("status", "available_at").
		Exec(ctx)
	return errx.Wrap(err)
}

func (s *BunStore) Claim(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]Record, error) {
	due := s.db.NewSelect().
		Model((*Record)(nil)).
		Column("id").
		Where("status = ?", StatusPending).
		Where("available_at <= ?", now).
		OrderExpr("created_at ASC").
		Limit(limit).
		For("UPDATE SKIP LOCKED")

	var records []Record
	_, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("available_at = ?", now.Add(lease)).
		Where("id IN (?)", due).
		Returning("*").
		Exec(ctx, &records)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return records, nil
}

func (s *BunStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("status = ?", StatusSent).
		Set("sent_at = ?", at).
		Set("last_error = NULL").
		Where("id = ?", id).
		Exec(ctx)
	return errx.Wrap(err)
}

func (s *BunStore) Reschedule(ctx context.Context, id uuid.UUID, attempts int, availableAt time.Time, lastErr string) error {
	_, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("attempts = ?", attempts).
		Set("available_at = ?", availableAt).
		Set("last_error = ?", lastErr).
		Where("id = ?", id).
		Exec(ctx)
	return errx.Wrap(err)
}

func (s *BunStore) Park(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	_, err := s.db.NewUpdate().
		Model((*Record)(nil)).
		Set("status = ?", StatusFailed).
		Set("attempts = ?", attempts).
		Set("last_error = ?", lastErr).
		Where("id = ?", id).
		Exec(ctx)
	return errx.Wrap(err)
}

func (s *BunStore) DeleteSent(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("status = ?", StatusSent).
		Where("sent_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, errx.Wrap(err)
	}
	n, err := res.RowsAffected()
	return n, errx.Wrap(err)
}

// InsertOp stages records into a unit of work running on bun transactions.
func InsertOp(records []Record) uow.Op[bun.Tx] {
	return func(ctx context.Context, tx bun.Tx) (int64, error) {
		if len(records) == 0 {
			return 0, nil
		}
		res, err := tx.NewInsert().Model(&records).Returning("NULL").Exec(ctx)
		if err != nil {
			return 0, errx.Wrap(err)
		}
		n, err := res.RowsAffected()
		return n, errx.Wrap(err)
	}
}
