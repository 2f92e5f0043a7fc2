package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/payments-engine/internal/config"
	"github.com/congo-pay/payments-engine/internal/ledger"
	"github.com/congo-pay/payments-engine/internal/logging"
)

func TestBuildWithRejectionLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rejections.log")
	cfg := config.Config{RejectionLog: logPath, LockedPolicy: ledger.LockedFreeze}

	rt, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.Nil(t, rt.DB)

	res, err := rt.Runner.Run(context.Background(), strings.NewReader("type,client,tx,amount\nwithdrawal,1,1,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "freeze", res.Policy)
	assert.Empty(t, res.Accounts)
	require.NoError(t, rt.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind=withdrawal")
}

func TestBuildFailsOnUnwritableRejectionLog(t *testing.T) {
	cfg := config.Config{RejectionLog: filepath.Join(t.TempDir(), "nope", "rejections.log")}
	_, err := Build(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}

func TestBuildWithKafkaWriter(t *testing.T) {
	cfg := config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaTopic: "snapshots"}
	rt, err := Build(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.NoError(t, rt.Close())
}
