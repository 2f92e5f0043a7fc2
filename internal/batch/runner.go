package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/congo-pay/payments-engine/internal/ingest"
	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

// ErrSinkFailed indicates the snapshot was computed but at least one sink
// could not store it.
var ErrSinkFailed = errors.New("snapshot export failed")

// Result describes one completed run.
type Result struct {
	RunID       uuid.UUID        `json:"run_id"`
	InputDigest string           `json:"input_digest"`
	Accounts    []ledger.Account `json:"accounts"`
	Stats       ledger.Stats     `json:"stats"`
	Policy      string           `json:"locked_policy"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Sink receives the result of every successful run.
type Sink interface {
	Name() string
	Export(ctx context.Context, result Result) error
}

// Runner turns CSV input into an account snapshot. Each call to Run uses a
// fresh engine, so one Runner can serve concurrent callers.
type Runner struct {
	policy   ledger.LockedPolicy
	reporter ledger.Reporter
	sinks    []Sink
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLockedPolicy sets the locked-account policy for every run.
func WithLockedPolicy(p ledger.LockedPolicy) Option {
	return func(r *Runner) { r.policy = p }
}

// WithReporter receives every skipped record. The reporter must be safe for
// concurrent use if the Runner is shared.
func WithReporter(rep ledger.Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// WithSinks adds snapshot exporters.
func WithSinks(sinks ...Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

// NewRunner constructs a runner.
func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Run processes input to completion. A source failure returns an error
// wrapping ledger.ErrSourceFailed and no result. Sink failures return the
// full result together with an error wrapping ErrSinkFailed.
func (r *Runner) Run(ctx context.Context, input io.Reader) (Result, error) {
	src := ingest.NewReader(input)
	engine := ledger.New(ledger.WithLockedPolicy(r.policy))
	runID := uuid.New()
	started := r.now()

	if err := engine.Run(contextSource{ctx: ctx, src: src}, r.reporter); err != nil {
		r.logger.Error("run aborted", "run_id", runID, "error", err)
		return Result{}, err
	}

	res := Result{
		RunID:       runID,
		InputDigest: src.Digest(),
		Accounts:    engine.Snapshot(),
		Stats:       engine.Stats(),
		Policy:      r.policy.String(),
		CompletedAt: r.now().UTC(),
	}
	r.logger.Info("run completed",
		"run_id", runID,
		"accounts", len(res.Accounts),
		"applied", res.Stats.Applied,
		"skipped_malformed", res.Stats.SkippedMalformed,
		"skipped_business_rule", res.Stats.SkippedBusinessRule,
		"duration", res.CompletedAt.Sub(started.UTC()),
	)

	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Export(ctx, res); err != nil {
			r.logger.Error("snapshot export failed", "run_id", runID, "sink", sink.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %w", ErrSinkFailed, errors.Join(errs...))
	}
	return res, nil
}

// contextSource stops pulling records once ctx is done.
type contextSource struct {
	ctx context.Context
	src transaction.Source
}

func (s contextSource) Next() (transaction.Record, error) {
	if err := s.ctx.Err(); err != nil {
		return transaction.Record{}, err
	}
	return s.src.Next()
}
