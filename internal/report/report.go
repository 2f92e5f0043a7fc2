package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/congo-pay/payments-engine/internal/ledger"
)

// Format selects how the account snapshot is rendered.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

var header = []string{"client", "available", "held", "total", "locked"}

// ParseFormat maps a config value to a Format. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the HTTP media type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Write renders accounts to w. Accounts are written in the order given.
func Write(w io.Writer, format Format, accounts []ledger.Account) error {
	switch format {
	case FormatCSV, "":
		return writeCSV(w, accounts)
	case FormatTable:
		return writeTable(w, accounts)
	case FormatJSON:
		return writeJSON(w, accounts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func row(acc ledger.Account) []string {
	return []string{
		strconv.FormatUint(uint64(acc.Client), 10),
		acc.Available.String(),
		acc.Held.String(),
		acc.Total.String(),
		strconv.FormatBool(acc.Locked),
	}
}

func writeCSV(w io.Writer, accounts []ledger.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, acc := range accounts {
		if err := cw.Write(row(acc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTable(w io.Writer, accounts []ledger.Account) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, acc := range accounts {
		table.Append(row(acc))
	}
	table.Render()
	return nil
}

func writeJSON(w io.Writer, accounts []ledger.Account) error {
	if accounts == nil {
		accounts = []ledger.Account{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(accounts)
}
