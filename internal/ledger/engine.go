package ledger

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/congo-pay/payments-engine/internal/transaction"
)

// RunState is the error-policy state of an Engine.
type RunState uint8

const (
	Running RunState = iota
	Aborted
)

func (s RunState) String() string {
	if s == Aborted {
		return "aborted"
	}
	return "running"
}

// Engine applies transaction records to client accounts. It owns all of its
// state and is meant for a single goroutine.
type Engine struct {
	accounts map[transaction.ClientID]*Account
	disputes disputeIndex
	policy   LockedPolicy
	stats    Stats
	state    RunState
}

// Option configures an Engine.
type Option func(*Engine)

// WithLockedPolicy sets how locked accounts are treated.
func WithLockedPolicy(p LockedPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// New builds an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		accounts: make(map[transaction.ClientID]*Account),
		disputes: make(disputeIndex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply applies one record. Skipped records leave every account untouched.
func (e *Engine) Apply(rec transaction.Record) Outcome {
	out := e.apply(rec)
	e.stats.record(out)
	return out
}

func (e *Engine) apply(rec transaction.Record) Outcome {
	if err := rec.Validate(); err != nil {
		return malformed(err)
	}

	switch rec.Kind {
	case transaction.Deposit:
		return e.deposit(rec)
	case transaction.Withdrawal:
		return e.withdraw(rec)
	case transaction.Dispute:
		return e.dispute(rec)
	case transaction.Resolve:
		return e.resolve(rec)
	case transaction.Chargeback:
		return e.chargeback(rec)
	default:
		return malformed(fmt.Errorf("%w: %s", transaction.ErrUnknownKind, rec.Kind))
	}
}

func (e *Engine) deposit(rec transaction.Record) Outcome {
	acc, exists := e.accounts[rec.Client]
	if exists && e.frozen(acc) {
		return rejected(fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client))
	}
	if err := e.disputes.add(rec); err != nil {
		return rejected(err)
	}
	if !exists {
		acc = newAccount(rec.Client)
		e.accounts[rec.Client] = acc
	}
	acc.deposit(*rec.Amount)
	return applied()
}

func (e *Engine) withdraw(rec transaction.Record) Outcome {
	acc, ok := e.accounts[rec.Client]
	if !ok {
		return rejected(fmt.Errorf("%w: client %d has no account", ErrInsufficientFunds, rec.Client))
	}
	if e.frozen(acc) {
		return rejected(fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client))
	}
	if err := acc.withdraw(*rec.Amount); err != nil {
		return rejected(fmt.Errorf("%w: client %d has %s, needs %s", err, rec.Client, acc.Available, rec.Amount))
	}
	return applied()
}

func (e *Engine) dispute(rec transaction.Record) Outcome {
	entry, err := e.disputes.lookup(rec, NotDisputed)
	if err != nil {
		return rejected(err)
	}
	acc := e.accounts[rec.Client]
	if e.frozen(acc) {
		return rejected(fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client))
	}
	if err := acc.hold(entry.amount); err != nil {
		return rejected(fmt.Errorf("%w: cannot hold %s for tx %d", err, entry.amount, rec.Tx))
	}
	entry.status = Disputed
	return applied()
}

func (e *Engine) resolve(rec transaction.Record) Outcome {
	entry, err := e.disputes.lookup(rec, Disputed)
	if err != nil {
		return rejected(err)
	}
	acc := e.accounts[rec.Client]
	if e.frozen(acc) {
		return rejected(fmt.Errorf("%w: client %d", ErrAccountLocked, rec.Client))
	}
	if err := acc.release(entry.amount); err != nil {
		return rejected(err)
	}
	entry.status = Resolved
	return applied()
}

func (e *Engine) chargeback(rec transaction.Record) Outcome {
	entry, err := e.disputes.lookup(rec, Disputed)
	if err != nil {
		return rejected(err)
	}
	if err := e.accounts[rec.Client].chargeback(entry.amount); err != nil {
		return rejected(err)
	}
	entry.status = ChargedBack
	return applied()
}

func (e *Engine) frozen(acc *Account) bool {
	return e.policy == LockedFreeze && acc.Locked
}

// Run pulls every record from src and applies it. Skipped records are handed
// to reporter, which may be nil. A source failure aborts the engine and is
// returned wrapped in ErrSourceFailed.
func (e *Engine) Run(src transaction.Source, reporter Reporter) error {
	if e.state == Aborted {
		return ErrAborted
	}
	for {
		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			e.state = Aborted
			return fmt.Errorf("%w: %w", ErrSourceFailed, err)
		}

		out := e.Apply(rec)
		if !out.OK() && reporter != nil {
			reporter.Skipped(rec, out)
		}
	}
}

// State reports whether the engine is still running or has aborted.
func (e *Engine) State() RunState {
	return e.state
}

// Stats returns the outcome counters so far.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Account returns a copy of the client's account.
func (e *Engine) Account(client transaction.ClientID) (Account, bool) {
	acc, ok := e.accounts[client]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Snapshot returns copies of all accounts ordered by client id.
func (e *Engine) Snapshot() []Account {
	out := make([]Account, 0, len(e.accounts))
	for _, acc := range e.accounts {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}

// DisputeStatus returns the status of an indexed deposit.
func (e *Engine) DisputeStatus(tx transaction.TxID) (DisputeStatus, bool) {
	entry, ok := e.disputes[tx]
	if !ok {
		return 0, false
	}
	return entry.status, true
}
