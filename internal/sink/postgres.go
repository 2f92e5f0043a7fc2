package sink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/congo-pay/payments-engine/internal/batch"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS ledger_runs (
    id            UUID PRIMARY KEY,
    input_digest  TEXT NOT NULL,
    locked_policy TEXT NOT NULL,
    applied       INTEGER NOT NULL,
    skipped_malformed     INTEGER NOT NULL,
    skipped_business_rule INTEGER NOT NULL,
    completed_at  TIMESTAMPTZ NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS ledger_account_snapshots (
    run_id    UUID NOT NULL REFERENCES ledger_runs (id) ON DELETE CASCADE,
    client_id INTEGER NOT NULL,
    available NUMERIC(20, 4) NOT NULL,
    held      NUMERIC(20, 4) NOT NULL,
    total     NUMERIC(20, 4) NOT NULL,
    locked    BOOLEAN NOT NULL,
    PRIMARY KEY (run_id, client_id)
)`,
}

// txBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type txBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Postgres stores each run and its account rows in one database transaction.
// Rows are only ever written.
type Postgres struct {
	db txBeginner
}

// NewPostgres constructs a Postgres-backed snapshot sink.
func NewPostgres(db txBeginner) *Postgres {
	return &Postgres{db: db}
}

// Name implements batch.Sink.
func (p *Postgres) Name() string { return "postgres" }

// EnsureSchema creates the snapshot tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create snapshot schema: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Export implements batch.Sink.
func (p *Postgres) Export(ctx context.Context, res batch.Result) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO ledger_runs
        (id, input_digest, locked_policy, applied, skipped_malformed, skipped_business_rule, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.RunID, res.InputDigest, res.Policy,
		res.Stats.Applied, res.Stats.SkippedMalformed, res.Stats.SkippedBusinessRule,
		res.CompletedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, acc := range res.Accounts {
		if _, err := tx.Exec(ctx, `INSERT INTO ledger_account_snapshots
            (run_id, client_id, available, held, total, locked)
            VALUES ($1, $2, $3, $4, $5, $6)`,
			res.RunID, int32(acc.Client),
			acc.Available.String(), acc.Held.String(), acc.Total.String(),
			acc.Locked); err != nil {
			return fmt.Errorf("insert account %d: %w", acc.Client, err)
		}
	}

	return tx.Commit(ctx)
}

var _ batch.Sink = (*Postgres)(nil)
