package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/payments-engine/internal/batch"
	"github.com/congo-pay/payments-engine/internal/config"
	"github.com/congo-pay/payments-engine/internal/infra"
	"github.com/congo-pay/payments-engine/internal/rejection"
	"github.com/congo-pay/payments-engine/internal/sink"
)

// Runtime holds the runner and the resources opened for it.
type Runtime struct {
	Runner *batch.Runner
	DB     *pgxpool.Pool

	closers []io.Closer
	logger  *slog.Logger
}

// Build opens the optional rejection log, snapshot database and Kafka writer
// named by cfg and wires them into a Runner. Close releases them.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{logger: logger}
	opts := []batch.Option{batch.WithLockedPolicy(cfg.LockedPolicy)}

	if cfg.RejectionLog != "" {
		reporter, closer, err := rejection.OpenFile(cfg.RejectionLog)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, closer)
		opts = append(opts, batch.WithReporter(reporter))
	}

	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.DB = pool
		pg := sink.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			rt.Close()
			return nil, err
		}
		opts = append(opts, batch.WithSinks(pg))
	}

	if cfg.KafkaEnabled() {
		writer, err := infra.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, writer)
		opts = append(opts, batch.WithSinks(sink.NewKafka(writer)))
	}

	rt.Runner = batch.NewRunner(logger, opts...)
	return rt, nil
}

// Close releases everything Build opened.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if rt.DB != nil {
		rt.DB.Close()
		rt.DB = nil
	}
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn("release resources", "error", err)
		return err
	}
	return nil
}
