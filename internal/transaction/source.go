package transaction

import (
	"io"

	"github.com/congo-pay/payments-engine/internal/money"
)

// Source yields records one at a time. Next returns io.EOF once the input is
// exhausted; any other error means the input itself could not be read.
// A Source is forward-only and cannot be restarted.
type Source interface {
	Next() (Record, error)
}

type sliceSource struct {
	records []Record
	pos     int
}

// FromSlice wraps already-built records as a Source, mostly for tests.
func FromSlice(records ...Record) Source {
	return &sliceSource{records: records}
}

func (s *sliceSource) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// NewDeposit builds a deposit record.
func NewDeposit(client ClientID, tx TxID, amount money.Amount) Record {
	return Record{Kind: Deposit, Client: client, Tx: tx, Amount: &amount}
}

// NewWithdrawal builds a withdrawal record.
func NewWithdrawal(client ClientID, tx TxID, amount money.Amount) Record {
	return Record{Kind: Withdrawal, Client: client, Tx: tx, Amount: &amount}
}

// NewDispute builds a dispute record referencing tx.
func NewDispute(client ClientID, tx TxID) Record {
	return Record{Kind: Dispute, Client: client, Tx: tx}
}

// NewResolve builds a resolve record referencing tx.
func NewResolve(client ClientID, tx TxID) Record {
	return Record{Kind: Resolve, Client: client, Tx: tx}
}

// NewChargeback builds a chargeback record referencing tx.
func NewChargeback(client ClientID, tx TxID) Record {
	return Record{Kind: Chargeback, Client: client, Tx: tx}
}
