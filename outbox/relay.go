package outbox

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"

	"github.com/rise-and-shine/blocks/alert"
	"github.com/rise-and-shine/blocks/integration"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
)

const CodeEventParked = "OUTBOX_EVENT_PARKED"

// Stats summarizes one relay pass.
type Stats struct {
	Claimed     int
	Sent        int
	Rescheduled int
	Parked      int
}

// Relay publishes committed outbox records. Delivery is at least once: a record is
// marked sent only after the publisher accepted it.
type Relay struct {
	cfg           RelayConfig
	store         Store
	publisher     integration.Publisher
	logger        logger.Logger
	alertProvider alert.Provider
	now           func() time.Time
}

type RelayOption func(*Relay)

// WithAlertProvider sets where parked records are reported. Defaults to alert.Global().
func WithAlertProvider(p alert.Provider) RelayOption {
	return func(r *Relay) { r.alertProvider = p }
}

func NewRelay(cfg RelayConfig, store Store, pub integration.Publisher, l logger.Logger, opts ...RelayOption) *Relay {
	r := &Relay{
		cfg:           cfg,
		store:         store,
		publisher:     pub,
		logger:        l.Named("outbox.relay"),
		alertProvider: alert.Global(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is done. A full batch is followed immediately by the
// next pass; otherwise the relay waits PollInterval.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.
		With("batch_size", r.cfg.BatchSize).
		With("poll_interval", r.cfg.PollInterval.String()).
		Info("starting outbox relay")

	poll := time.NewTimer(0)
	defer poll.Stop()

	var cleanup <-chan time.Time
	if r.cfg.CleanupInterval > 0 {
		t := time.NewTicker(r.cfg.CleanupInterval)
		defer t.Stop()
		cleanup = t.C
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-cleanup:
			if _, err := r.Cleanup(ctx); err != nil {
				r.logger.Errorx(err)
			}
		case <-poll.C:
			stats, err := r.Drain(ctx)
			if err != nil {
				r.logger.Errorx(err)
			}
			next := r.cfg.PollInterval
			if err == nil && stats.Claimed >= r.cfg.BatchSize {
				next = 0
			}
			poll.Reset(next)
		}
	}
}

// Drain runs one pass over the due records.
func (r *Relay) Drain(ctx context.Context) (Stats, error) {
	records, err := r.store.Claim(ctx, r.now(), r.cfg.BatchSize, r.cfg.Lease)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Claimed: len(records)}
	for _, rec := range records {
		if ctx.Err() != nil {
			// unprocessed records become due again when their lease expires
			break
		}
		switch r.relay(ctx, rec) {
		case StatusSent:
			stats.Sent++
		case StatusFailed:
			stats.Parked++
		default:
			stats.Rescheduled++
		}
	}

	if stats.Claimed > 0 {
		r.logger.
			With("claimed", stats.Claimed, "sent", stats.Sent, "rescheduled", stats.Rescheduled, "parked", stats.Parked).
			Debug("outbox pass finished")
	}
	return stats, nil
}

func (r *Relay) relay(ctx context.Context, rec Record) Status {
	ctx = meta.InjectMetaToContext(ctx, map[meta.ContextKey]string{
		meta.TraceID:   rec.TraceID,
		meta.EventID:   rec.ID.String(),
		meta.EventName: rec.EventName,
	})
	log := r.logger.WithContext(ctx)

	err := retry.Do(
		func() error { return r.publisher.Publish(ctx, rec.EventName, rec.Payload) },
		retry.Attempts(max(r.cfg.PublishAttempts, 1)),
		retry.Delay(r.cfg.PublishDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err == nil {
		if markErr := r.store.MarkSent(ctx, rec.ID, r.now()); markErr != nil {
			// the record is published again after the lease; consumers deduplicate
			log.Errorx(markErr)
		}
		return StatusSent
	}

	attempts := rec.Attempts + 1
	log = log.With("attempts", attempts, "publish_error", err.Error())

	if r.cfg.MaxAttempts > 0 && attempts >= r.cfg.MaxAttempts {
		if parkErr := r.store.Park(ctx, rec.ID, attempts, err.Error()); parkErr != nil {
			log.Errorx(parkErr)
		}
		log.Error("outbox record parked after too many attempts")
		r.alert(ctx, rec, err)
		return StatusFailed
	}

	next := r.now().Add(RetryDelay(attempts, r.cfg.RetryBase, r.cfg.RetryMax))
	if schedErr := r.store.Reschedule(ctx, rec.ID, attempts, next, err.Error()); schedErr != nil {
		log.Errorx(schedErr)
	}
	log.With("available_at", next).Warn("outbox publish failed, rescheduled")
	return StatusPending
}

func (r *Relay) alert(ctx context.Context, rec Record, cause error) {
	details := map[string]string{
		"event_id":   rec.ID.String(),
		"event_name": rec.EventName,
		"trace":      errx.AsErrorX(cause).Trace(),
	}
	err := r.alertProvider.SendError(context.WithoutCancel(ctx), CodeEventParked, cause.Error(), "outbox relay", details)
	if err != nil {
		r.logger.WithContext(ctx).With("alert_send_error", err).Warn("failed to send error alert")
	}
}

// Cleanup deletes sent records older than RetainSent.
func (r *Relay) Cleanup(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteSent(ctx, r.now().Add(-r.cfg.RetainSent))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.With("deleted", n).Info("outbox cleanup finished")
	}
	return n, nil
}
