// Package pg provides PostgreSQL connectivity for bun-backed repositories.
//
// It creates pgx connection pools, opens bun databases with query logging and
// OpenTelemetry hooks, adapts bun transactions to units of work, and translates
// PostgreSQL constraint failures into typed errx errors.
package pg

import (
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/pg/hooks"
)

// NewBunDB creates a new Bun database connection with the provided configuration.
func NewBunDB(cfg Config, l logger.Logger) (*bun.DB, error) {
	pool, err := NewPool(cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	applyHooks(bunDB, cfg, l)

	return bunDB, nil
}

// applyHooks adds the query logging hook, active only when cfg.Debug is set,
// and the OpenTelemetry hook, which is always enabled.
func applyHooks(db *bun.DB, cfg Config, l logger.Logger) {
	db.AddQueryHook(
		hooks.NewDebugHook(
			hooks.WithEnabled(cfg.Debug),
			hooks.WithVerbose(true),
			hooks.WithSlowQueryThreshold(cfg.SlowQueryThreshold),
			hooks.WithLogger(l),
		),
	)

	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.Database)))
}
