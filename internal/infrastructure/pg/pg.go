package pg

import (
	"context"
	"fmt"
	"time"

	infraconfig "ratebot-service/internal/infrastructure/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "ratebot"

// DB is the pool shared by the subscriber and rate repositories.
type DB struct{ Pool *pgxpool.Pool }

// Connect builds the pool. Connections are opened lazily, so an unreachable
// server surfaces on the first query or Ping.
func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns, cfg.MinConns = infraconfig.DefaultPGMaxConns, infraconfig.DefaultPGMinConns
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() { d.Pool.Close() }

// Ping backs the readiness probe.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping pg: %w", err)
	}
	return nil
}
