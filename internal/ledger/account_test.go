package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/payments-engine/internal/money"
)

func TestNewAccountStartsEmpty(t *testing.T) {
	acc := newAccount(1)
	assert.True(t, acc.Available.IsZero())
	assert.True(t, acc.Held.IsZero())
	assert.True(t, acc.Total.IsZero())
	assert.False(t, acc.Locked)
	assert.True(t, acc.Balanced())
}

func TestAccountMutatorsKeepInvariant(t *testing.T) {
	acc := newAccount(1)
	acc.deposit(amt("10"))
	require.NoError(t, acc.hold(amt("4")))
	assert.Equal(t, "6.0000", acc.Available.String())
	assert.Equal(t, "4.0000", acc.Held.String())
	assert.Equal(t, "10.0000", acc.Total.String())

	require.NoError(t, acc.release(amt("1")))
	require.NoError(t, acc.withdraw(amt("7")))
	require.NoError(t, acc.chargeback(amt("3")))

	assert.Equal(t, money.Zero.String(), acc.Available.String())
	assert.Equal(t, money.Zero.String(), acc.Held.String())
	assert.Equal(t, money.Zero.String(), acc.Total.String())
	assert.True(t, acc.Locked)
	assert.True(t, acc.Balanced())
}

func TestAccountMutatorsRefuseNegativeBalances(t *testing.T) {
	acc := newAccount(1)
	acc.deposit(amt("1"))
	before := *acc

	assert.ErrorIs(t, acc.withdraw(amt("1.0001")), ErrInsufficientFunds)
	assert.ErrorIs(t, acc.hold(amt("2")), ErrInsufficientFunds)
	assert.ErrorIs(t, acc.release(amt("0.0001")), ErrInsufficientFunds)
	assert.ErrorIs(t, acc.chargeback(amt("0.0001")), ErrInsufficientFunds)

	assert.Equal(t, before, *acc)
	assert.False(t, acc.Locked)
}
