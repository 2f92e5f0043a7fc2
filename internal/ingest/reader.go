package ingest

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/congo-pay/payments-engine/internal/money"
	"github.com/congo-pay/payments-engine/internal/transaction"
)

var (
	// ErrMissingHeader is returned when the input is empty or lacks a required column.
	ErrMissingHeader = errors.New("csv header is missing a required column")

	// ErrDecode wraps any row that cannot be turned into a record.
	ErrDecode = errors.New("cannot decode row")
)

const (
	colType   = "type"
	colClient = "client"
	colTx     = "tx"
	colAmount = "amount"
)

// Reader streams transaction records out of CSV input. It implements
// transaction.Source and keeps only the current row in memory.
type Reader struct {
	csv    *csv.Reader
	closer io.Closer
	digest hash.Hash

	typeIdx, clientIdx, txIdx, amountIdx int
	headerRead                           bool
}

// NewReader wraps r. The header row is read lazily on the first call to Next.
func NewReader(r io.Reader) *Reader {
	digest, _ := blake2b.New256(nil) // only fails for oversized keys

	cr := csv.NewReader(io.TeeReader(r, digest))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	return &Reader{csv: cr, digest: digest, amountIdx: -1}
}

// Open opens the file at path and returns a Reader over it. Callers must Close it.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Digest returns the hex BLAKE2b-256 of the bytes consumed so far. Once Next
// has returned io.EOF it covers the whole input.
func (r *Reader) Digest() string {
	return hex.EncodeToString(r.digest.Sum(nil))
}

// Next returns the next record, io.EOF at the end of input, or a decode error.
func (r *Reader) Next() (transaction.Record, error) {
	if !r.headerRead {
		if err := r.readHeader(); err != nil {
			return transaction.Record{}, err
		}
	}

	for {
		row, err := r.csv.Read()
		if err != nil {
			return transaction.Record{}, err
		}
		if blankRow(row) {
			continue
		}
		rec, err := r.decode(row)
		if err != nil {
			line, _ := r.csv.FieldPos(0)
			return transaction.Record{}, fmt.Errorf("%w: line %d: %w", ErrDecode, line, err)
		}
		return rec, nil
	}
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty input", ErrMissingHeader)
	}
	if err != nil {
		return err
	}
	r.typeIdx, r.clientIdx, r.txIdx = -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colType:
			r.typeIdx = i
		case colClient:
			r.clientIdx = i
		case colTx:
			r.txIdx = i
		case colAmount:
			r.amountIdx = i
		}
	}
	for name, idx := range map[string]int{colType: r.typeIdx, colClient: r.clientIdx, colTx: r.txIdx} {
		if idx < 0 {
			return fmt.Errorf("%w: %q", ErrMissingHeader, name)
		}
	}
	r.headerRead = true
	return nil
}

func (r *Reader) decode(row []string) (transaction.Record, error) {
	kind, err := transaction.ParseKind(field(row, r.typeIdx))
	if err != nil {
		return transaction.Record{}, err
	}
	client, err := strconv.ParseUint(field(row, r.clientIdx), 10, 16)
	if err != nil {
		return transaction.Record{}, fmt.Errorf("client: %w", err)
	}
	tx, err := strconv.ParseUint(field(row, r.txIdx), 10, 32)
	if err != nil {
		return transaction.Record{}, fmt.Errorf("tx: %w", err)
	}

	rec := transaction.Record{Kind: kind, Client: transaction.ClientID(client), Tx: transaction.TxID(tx)}
	if raw := field(row, r.amountIdx); raw != "" {
		amount, err := money.Parse(raw)
		if err != nil {
			return transaction.Record{}, err
		}
		rec.Amount = &amount
	}
	return rec, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
