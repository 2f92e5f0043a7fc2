package rejection

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

// LoggerReporter writes one structured line per skipped record.
type LoggerReporter struct {
	logger *slog.Logger
}

// NewLoggerReporter constructs a reporter on top of logger.
func NewLoggerReporter(logger *slog.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

// NewTextReporter writes rejections as slog text lines to w.
func NewTextReporter(w io.Writer) *LoggerReporter {
	return NewLoggerReporter(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// OpenFile appends rejections to the file at path, creating it if needed.
// The returned closer must be closed once the run is over.
func OpenFile(path string) (*LoggerReporter, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open rejection log: %w", err)
	}
	return NewTextReporter(f), f, nil
}

// Skipped implements ledger.Reporter.
func (r *LoggerReporter) Skipped(rec transaction.Record, outcome ledger.Outcome) {
	if r == nil || r.logger == nil {
		return
	}
	attrs := []any{
		"kind", rec.Kind.String(),
		"client", rec.Client,
		"tx", rec.Tx,
		"outcome", outcome.Status.String(),
	}
	if rec.Amount != nil {
		attrs = append(attrs, "amount", rec.Amount.String())
	}
	if outcome.Reason != nil {
		attrs = append(attrs, "reason", outcome.Reason.Error())
	}
	r.logger.Warn("record skipped", attrs...)
}

var _ ledger.Reporter = (*LoggerReporter)(nil)
