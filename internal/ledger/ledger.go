package ledger

import (
	"errors"
	"fmt"

	"github.com/congo-pay/payments-engine/internal/transaction"
)

var (
	// ErrMalformed classifies records whose shape is invalid for their kind.
	ErrMalformed = errors.New("malformed record")

	// ErrBusinessRule classifies well-formed records that cannot be applied.
	ErrBusinessRule = errors.New("business rule violation")

	// ErrInsufficientFunds occurs when available funds cannot cover a withdrawal
	// or a dispute.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownTransaction indicates a dispute, resolve or chargeback for a
	// transaction id that was never deposited.
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrClientMismatch indicates a reference to another client's deposit.
	ErrClientMismatch = errors.New("client does not own transaction")

	// ErrInvalidDisputeState indicates the referenced deposit is not in the
	// status the operation requires.
	ErrInvalidDisputeState = errors.New("invalid dispute state")

	// ErrDuplicateTransaction indicates a deposit reusing an already seen tx id.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrAccountLocked is returned under LockedFreeze for operations on a
	// charged-back account.
	ErrAccountLocked = errors.New("account locked")

	// ErrSourceFailed wraps failures of the record source itself. It aborts the run.
	ErrSourceFailed = errors.New("transaction source failed")

	// ErrAborted is returned when running an engine that already aborted.
	ErrAborted = errors.New("engine aborted")
)

// Status is the result class of applying one record.
type Status uint8

const (
	Applied Status = iota
	SkippedMalformed
	SkippedBusinessRule
)

func (s Status) String() string {
	switch s {
	case Applied:
		return "applied"
	case SkippedMalformed:
		return "skipped_malformed"
	case SkippedBusinessRule:
		return "skipped_business_rule"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Outcome reports what Apply did with a record. Reason is nil when applied.
type Outcome struct {
	Status Status
	Reason error
}

// OK reports whether the record mutated the ledger.
func (o Outcome) OK() bool {
	return o.Status == Applied
}

func applied() Outcome {
	return Outcome{Status: Applied}
}

func malformed(err error) Outcome {
	return Outcome{Status: SkippedMalformed, Reason: fmt.Errorf("%w: %w", ErrMalformed, err)}
}

func rejected(err error) Outcome {
	return Outcome{Status: SkippedBusinessRule, Reason: fmt.Errorf("%w: %w", ErrBusinessRule, err)}
}

// LockedPolicy decides how records for a locked account are treated.
type LockedPolicy uint8

const (
	// LockedAllow keeps applying records to locked accounts; only the flag is surfaced.
	LockedAllow LockedPolicy = iota
	// LockedFreeze rejects deposits, withdrawals, disputes and resolves on locked
	// accounts. Chargebacks are still honored.
	LockedFreeze
)

// ParseLockedPolicy maps "allow" or "freeze" to a LockedPolicy.
func ParseLockedPolicy(s string) (LockedPolicy, error) {
	switch s {
	case "", "allow":
		return LockedAllow, nil
	case "freeze":
		return LockedFreeze, nil
	default:
		return 0, fmt.Errorf("unknown locked account policy %q", s)
	}
}

func (p LockedPolicy) String() string {
	if p == LockedFreeze {
		return "freeze"
	}
	return "allow"
}

// Reporter receives every record the engine skips.
type Reporter interface {
	Skipped(rec transaction.Record, outcome Outcome)
}

// Stats counts record outcomes for a run.
type Stats struct {
	Applied             int `json:"applied"`
	SkippedMalformed    int `json:"skipped_malformed"`
	SkippedBusinessRule int `json:"skipped_business_rule"`
}

// Total is the number of records seen.
func (s Stats) Total() int {
	return s.Applied + s.SkippedMalformed + s.SkippedBusinessRule
}

func (s *Stats) record(o Outcome) {
	switch o.Status {
	case Applied:
		s.Applied++
	case SkippedMalformed:
		s.SkippedMalformed++
	case SkippedBusinessRule:
		s.SkippedBusinessRule++
	}
}
