package db

import (
	"context"
	"time"

	"ticketgate/internal/pkg/config"
	"ticketgate/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to parse store DSN")
	}
	poolCfg.MaxConns = 10
	poolCfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, errs.Wrap(err, "failed to open check-in store pool")
	}

	// A scanning device must start even when the venue link is down; the
	// engine treats an unreachable store as offline, so connectivity is not
	// probed here.
	cleanup := func() {
		pool.Close()
	}
	return pool, cleanup, nil
}
