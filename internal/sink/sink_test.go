package sink

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/payments-engine/internal/batch"
	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/money"
)

func sampleResult() batch.Result {
	return batch.Result{
		RunID:       uuid.New(),
		InputDigest: strings.Repeat("ab", 32),
		Accounts: []ledger.Account{
			{Client: 1, Available: money.MustParse("1.5"), Total: money.MustParse("1.5")},
			{Client: 2, Held: money.MustParse("2"), Total: money.MustParse("2"), Locked: true},
		},
		Stats:       ledger.Stats{Applied: 4, SkippedBusinessRule: 1},
		Policy:      "allow",
		CompletedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// fakeTx records statements. Methods it does not override panic through the
// nil embedded interface.
type fakeTx struct {
	pgx.Tx
	stmts      []string
	args       [][]any
	failOn     string
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx.failOn != "" && strings.Contains(sql, tx.failOn) {
		return pgconn.CommandTag{}, errors.New("insert failed")
	}
	tx.stmts = append(tx.stmts, sql)
	tx.args = append(tx.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct{ tx *fakeTx }

func (db *fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return db.tx, nil
}

func TestPostgresExportWritesRunAndAccountsInOneTransaction(t *testing.T) {
	tx := &fakeTx{}
	res := sampleResult()

	require.NoError(t, NewPostgres(&fakeDB{tx: tx}).Export(context.Background(), res))

	require.Len(t, tx.stmts, 3)
	assert.Contains(t, tx.stmts[0], "INSERT INTO ledger_runs")
	assert.Equal(t, res.RunID, tx.args[0][0])
	assert.Equal(t, res.InputDigest, tx.args[0][1])

	assert.Contains(t, tx.stmts[2], "INSERT INTO ledger_account_snapshots")
	assert.Equal(t, []any{res.RunID, int32(2), "0.0000", "2.0000", "2.0000", true}, tx.args[2])

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestPostgresExportRollsBackOnFailure(t *testing.T) {
	tx := &fakeTx{failOn: "ledger_account_snapshots"}

	err := NewPostgres(&fakeDB{tx: tx}).Export(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert account 1")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPostgresEnsureSchema(t *testing.T) {
	tx := &fakeTx{}
	require.NoError(t, NewPostgres(&fakeDB{tx: tx}).EnsureSchema(context.Background()))
	require.Len(t, tx.stmts, 2)
	assert.Contains(t, tx.stmts[1], "ledger_account_snapshots")
	assert.True(t, tx.committed)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func TestKafkaPublishesOneMessagePerAccount(t *testing.T) {
	w := &fakeWriter{}
	res := sampleResult()

	require.NoError(t, NewKafka(w).Export(context.Background(), res))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "1", string(w.msgs[0].Key))
	assert.Equal(t, "2", string(w.msgs[1].Key))
	assert.Equal(t, res.RunID.String(), string(w.msgs[0].Headers[0].Value))

	var ev AccountSnapshotEvent
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &ev))
	assert.Equal(t, res.RunID, ev.RunID)
	assert.True(t, ev.Account.Locked)
	assert.Equal(t, "2.0000", ev.Account.Held.String())
}

func TestKafkaSkipsEmptySnapshot(t *testing.T) {
	w := &fakeWriter{}
	res := sampleResult()
	res.Accounts = nil
	require.NoError(t, NewKafka(w).Export(context.Background(), res))
	assert.Empty(t, w.msgs)
}

func TestKafkaPropagatesWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	assert.EqualError(t, NewKafka(w).Export(context.Background(), sampleResult()), "broker down")
}
