package rejection

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/money"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

func TestReporterLogsOnlySkippedRecords(t *testing.T) {
	var buf bytes.Buffer
	src := transaction.FromSlice(
		transaction.NewDeposit(1, 1, money.MustParse("1")),
		transaction.NewWithdrawal(1, 2, money.MustParse("5")),
		transaction.Record{Kind: transaction.Dispute, Client: 1, Tx: 1, Amount: ptr(money.MustParse("1"))},
	)

	e := ledger.New()
	require.NoError(t, e.Run(src, NewTextReporter(&buf)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "kind=withdrawal")
	assert.Contains(t, lines[0], "tx=2")
	assert.Contains(t, lines[0], "outcome=skipped_business_rule")
	assert.Contains(t, lines[0], "insufficient funds")
	assert.Contains(t, lines[0], "amount=5.0000")

	assert.Contains(t, lines[1], "kind=dispute")
	assert.Contains(t, lines[1], "outcome=skipped_malformed")
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *LoggerReporter
	assert.NotPanics(t, func() {
		r.Skipped(transaction.NewDispute(1, 1), ledger.Outcome{Status: ledger.SkippedBusinessRule})
	})
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejections.log")

	for i := 0; i < 2; i++ {
		r, closer, err := OpenFile(path)
		require.NoError(t, err)
		r.Skipped(transaction.NewResolve(7, 9), ledger.Outcome{Status: ledger.SkippedBusinessRule, Reason: ledger.ErrUnknownTransaction})
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "client=7"))
}

func TestOpenFileBadPath(t *testing.T) {
	_, _, err := OpenFile(filepath.Join(t.TempDir(), "missing", "rejections.log"))
	assert.Error(t, err)
}

func ptr(a money.Amount) *money.Amount { return &a }
