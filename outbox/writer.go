package outbox

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/integration"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/uow"
)

// Writer stages events into the same transaction as the state change that produced
// them, so that either both commit or neither does.
type Writer struct {
	now func() time.Time
}

func NewWriter() *Writer {
	return &Writer{now: func() time.Time { return time.Now().UTC() }}
}

// Stage seals events and adds their insert to u. A non-serializable event fails here,
// before anything is committed.
func (w *Writer) Stage(ctx context.Context, u *uow.UnitOfWork[bun.Tx], events ...integration.Event) error {
	traceID := meta.Find(ctx, meta.TraceID)
	now := w.now()

	records := make([]Record, 0, len(events))
	for _, e := range events {
		rec, err := NewRecord(e, traceID, now)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return u.Stage(InsertOp(records))
}
