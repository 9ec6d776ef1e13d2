// Package hooks contains bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/blocks/logger"
)

var _ bun.QueryHook = (*DebugHook)(nil)

// DebugHook writes executed queries to a logger. Failures, empty results and
// slow queries are always reported; successful queries only in verbose mode.
type DebugHook struct {
	enabled bool
	verbose bool
	slow    time.Duration
	logger  logger.Logger
}

// DebugHookOption configures a DebugHook.
type DebugHookOption func(*DebugHook)

// NewDebugHook returns an enabled, verbose hook with a 100ms slow threshold
// writing to the global logger unless opts say otherwise.
func NewDebugHook(opts ...DebugHookOption) *DebugHook {
	h := &DebugHook{enabled: true, verbose: true, slow: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Global()
	}
	h.logger = h.logger.Named("bun_debug_hook")
	return h
}

// WithEnabled turns the hook on or off.
func WithEnabled(enabled bool) DebugHookOption {
	return func(h *DebugHook) { h.enabled = enabled }
}

// WithVerbose controls whether successful queries are logged.
func WithVerbose(verbose bool) DebugHookOption {
	return func(h *DebugHook) { h.verbose = verbose }
}

// WithSlowQueryThreshold sets the duration from which a query counts as slow. Zero disables it.
func WithSlowQueryThreshold(threshold time.Duration) DebugHookOption {
	return func(h *DebugHook) { h.slow = threshold }
}

// WithLogger sets the destination logger.
func WithLogger(l logger.Logger) DebugHookOption {
	return func(h *DebugHook) { h.logger = l }
}

func (h *DebugHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *DebugHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if !h.enabled {
		return
	}

	took := time.Since(event.StartTime)
	lvl := h.levelFor(event.Err, took)
	if lvl == levelSkip {
		return
	}

	entry := h.logger.
		WithContext(ctx).
		With("query", strings.ReplaceAll(event.Query, `"`, "")).
		With("duration", took.Round(time.Microsecond))
	if len(event.QueryArgs) > 0 {
		entry = entry.With("args", event.QueryArgs)
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrTxDone) {
		entry = entry.With("error", event.Err)
	}

	msg := "[bun-debug] - " + event.Operation()
	switch lvl {
	case levelError:
		entry.Error(msg)
	case levelWarn:
		entry.Warn(msg)
	case levelDebug:
		entry.Debug(msg)
	case levelSkip:
	}
}

type level int

const (
	levelSkip level = iota
	levelDebug
	levelWarn
	levelError
)

// levelFor decides how a finished query is reported. sql.ErrTxDone counts as
// success; sql.ErrNoRows and slow queries are warnings.
func (h *DebugHook) levelFor(err error, took time.Duration) level {
	switch {
	case err != nil && errors.Is(err, sql.ErrNoRows):
		return levelWarn
	case err != nil && !errors.Is(err, sql.ErrTxDone):
		return levelError
	case h.slow > 0 && took >= h.slow:
		return levelWarn
	case h.verbose:
		return levelDebug
	default:
		return levelSkip
	}
}
