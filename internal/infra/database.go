package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Snapshot exports hold one transaction per completed run.
const (
	snapshotMaxConns     = 4
	snapshotIdleTime     = 5 * time.Minute
	snapshotConnTimeout  = 5 * time.Second
	snapshotPingTimeout  = 5 * time.Second
	defaultApplication   = "payments-engine"
	applicationNameParam = "application_name"
)

// ErrSnapshotDatabaseURL is returned when no snapshot database is configured.
var ErrSnapshotDatabaseURL = errors.New("snapshot database url is required")

// SnapshotPoolConfig parses url and bounds the pool used by the snapshot sink.
// appName tags the sessions in pg_stat_activity unless the url sets one.
func SnapshotPoolConfig(url, appName string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, ErrSnapshotDatabaseURL
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse SNAPSHOT_DATABASE_URL: %w", err)
	}

	if cfg.MaxConns > snapshotMaxConns {
		cfg.MaxConns = snapshotMaxConns
	}
	cfg.MinConns = 0
	cfg.MaxConnIdleTime = snapshotIdleTime
	if cfg.ConnConfig.ConnectTimeout == 0 {
		cfg.ConnConfig.ConnectTimeout = snapshotConnTimeout
	}

	if appName == "" {
		appName = defaultApplication
	}
	if cfg.ConnConfig.RuntimeParams[applicationNameParam] == "" {
		cfg.ConnConfig.RuntimeParams[applicationNameParam] = appName
	}
	return cfg, nil
}

// NewPostgresPool opens the snapshot database pool and pings it.
func NewPostgresPool(ctx context.Context, url, appName string) (*pgxpool.Pool, error) {
	cfg, err := SnapshotPoolConfig(url, appName)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open snapshot pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, snapshotPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("snapshot database %s unreachable: %w", cfg.ConnConfig.Host, err)
	}
	return pool, nil
}
