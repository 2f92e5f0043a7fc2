package ledger

import (
	"github.com/congo-pay/payments-engine/internal/money"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

// Account is the balance state of one client. Total always equals
// Available + Held and neither component is ever negative.
type Account struct {
	Client    transaction.ClientID `json:"client"`
	Available money.Amount         `json:"available"`
	Held      money.Amount         `json:"held"`
	Total     money.Amount         `json:"total"`
	Locked    bool                 `json:"locked"`
}

func newAccount(client transaction.ClientID) *Account {
	return &Account{Client: client}
}

func (a *Account) deposit(amount money.Amount) {
	a.Available = a.Available.Add(amount)
	a.Total = a.Total.Add(amount)
}

func (a *Account) withdraw(amount money.Amount) error {
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
	return nil
}

// hold moves amount from available to held.
func (a *Account) hold(amount money.Amount) error {
	if a.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)
	return nil
}

// release moves amount from held back to available.
func (a *Account) release(amount money.Amount) error {
	if a.Held.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Held = a.Held.Sub(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// chargeback removes held funds for good and locks the account.
func (a *Account) chargeback(amount money.Amount) error {
	if a.Held.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
	return nil
}

// Balanced reports whether the account invariants hold.
func (a Account) Balanced() bool {
	return a.Total.Equal(a.Available.Add(a.Held)) &&
		a.Available.IsNonNegative() &&
		a.Held.IsNonNegative()
}
