package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/congo-pay/payments-engine/internal/batch"
	"github.com/congo-pay/payments-engine/internal/bootstrap"
	"github.com/congo-pay/payments-engine/internal/config"
	"github.com/congo-pay/payments-engine/internal/logging"
	"github.com/congo-pay/payments-engine/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run processes the file named by args[0] and writes the snapshot to stdout.
// Extra arguments are ignored.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: payments-engine <transactions.csv>")
		return 1
	}
	path := args[0]
	if !utf8.ValidString(path) {
		fmt.Fprintln(stderr, "input path is not valid UTF-8")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := logging.NewWithWriter(stderr, cfg.LogLevel)

	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("build runner", "error", err)
		return 1
	}
	defer rt.Close()

	return process(ctx, rt.Runner, cfg.OutputFormat, path, stdout, logger)
}

func process(ctx context.Context, runner *batch.Runner, format report.Format, path string, stdout io.Writer, logger *slog.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("open input", "path", path, "error", err)
		return 1
	}
	defer f.Close()

	res, runErr := runner.Run(ctx, f)
	if runErr != nil && !errors.Is(runErr, batch.ErrSinkFailed) {
		logger.Error("run failed", "path", path, "error", runErr)
		return 1
	}

	// Render fully before writing so a failure leaves stdout empty.
	var buf bytes.Buffer
	if err := report.Write(&buf, format, res.Accounts); err != nil {
		logger.Error("render snapshot", "error", err)
		return 1
	}
	if _, err := buf.WriteTo(stdout); err != nil {
		logger.Error("write snapshot", "error", err)
		return 1
	}

	if runErr != nil {
		logger.Error("snapshot computed but not exported", "run_id", res.RunID, "error", runErr)
		return 1
	}
	return 0
}
