package ledger

import (
	"fmt"

	"github.com/congo-pay/payments-engine/internal/money"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

// DisputeStatus tracks where a deposit is in the dispute lifecycle.
type DisputeStatus uint8

const (
	NotDisputed DisputeStatus = iota
	Disputed
	Resolved
	ChargedBack
)

func (s DisputeStatus) String() string {
	switch s {
	case NotDisputed:
		return "not_disputed"
	case Disputed:
		return "disputed"
	case Resolved:
		return "resolved"
	case ChargedBack:
		return "charged_back"
	default:
		return fmt.Sprintf("dispute_status(%d)", uint8(s))
	}
}

// disputeEntry remembers an accepted deposit so it can be disputed later.
type disputeEntry struct {
	client transaction.ClientID
	amount money.Amount
	status DisputeStatus
}

// disputeIndex maps deposit tx ids to their entries. Withdrawals are never indexed.
type disputeIndex map[transaction.TxID]*disputeEntry

func (idx disputeIndex) add(rec transaction.Record) error {
	if _, exists := idx[rec.Tx]; exists {
		return fmt.Errorf("%w: tx %d", ErrDuplicateTransaction, rec.Tx)
	}
	idx[rec.Tx] = &disputeEntry{client: rec.Client, amount: *rec.Amount, status: NotDisputed}
	return nil
}

// lookup returns the entry referenced by rec if it belongs to the same client
// and is in the wanted status.
func (idx disputeIndex) lookup(rec transaction.Record, want DisputeStatus) (*disputeEntry, error) {
	entry, ok := idx[rec.Tx]
	if !ok {
		return nil, fmt.Errorf("%w: tx %d", ErrUnknownTransaction, rec.Tx)
	}
	if entry.client != rec.Client {
		return nil, fmt.Errorf("%w: tx %d belongs to client %d, not %d", ErrClientMismatch, rec.Tx, entry.client, rec.Client)
	}
	if entry.status != want {
		return nil, fmt.Errorf("%w: tx %d is %s, want %s", ErrInvalidDisputeState, rec.Tx, entry.status, want)
	}
	return entry, nil
}
