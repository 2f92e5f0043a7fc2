package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/congo-pay/payments-engine/internal/money"
)

var (
	// ErrUnknownKind is returned for a transaction type outside the supported set.
	ErrUnknownKind = errors.New("unknown transaction type")

	// ErrMissingAmount indicates a deposit or withdrawal without an amount.
	ErrMissingAmount = errors.New("amount is required")

	// ErrUnexpectedAmount indicates a dispute, resolve or chargeback carrying an amount.
	ErrUnexpectedAmount = errors.New("amount must not be present")

	// ErrNegativeAmount indicates a deposit or withdrawal with a negative amount.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// Kind is the closed set of transaction types.
type Kind uint8

const (
	Deposit Kind = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[Kind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

// ParseKind maps the textual type column to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// RequiresAmount reports whether records of this kind must carry an amount.
func (k Kind) RequiresAmount() bool {
	return k == Deposit || k == Withdrawal
}

// ClientID identifies a client account.
type ClientID uint16

// TxID identifies a deposit or withdrawal. Dispute, resolve and chargeback
// records reuse the TxID of the deposit they reference.
type TxID uint32

// Record is a single parsed input row. Records are values and are never
// mutated after parsing.
type Record struct {
	Kind   Kind
	Client ClientID
	Tx     TxID
	Amount *money.Amount
}

// HasAmount reports whether the record carries an amount.
func (r Record) HasAmount() bool {
	return r.Amount != nil
}

// Validate checks the record shape for its kind.
func (r Record) Validate() error {
	switch r.Kind {
	case Deposit, Withdrawal:
		if r.Amount == nil {
			return ErrMissingAmount
		}
		if r.Amount.IsNegative() {
			return ErrNegativeAmount
		}
	case Dispute, Resolve, Chargeback:
		if r.Amount != nil {
			return ErrUnexpectedAmount
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, r.Kind)
	}
	return nil
}

func (r Record) String() string {
	if r.Amount == nil {
		return fmt.Sprintf("%s client=%d tx=%d", r.Kind, r.Client, r.Tx)
	}
	return fmt.Sprintf("%s client=%d tx=%d amount=%s", r.Kind, r.Client, r.Tx, r.Amount)
}
