package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every Amount carries.
const Scale = 4

// MaxIntegerDigits bounds the integer part so parsed values fit NUMERIC(20, 4).
const MaxIntegerDigits = 16

// maxFractionDigits bounds the input before rounding to Scale.
const maxFractionDigits = 28

// ErrInvalidAmount is returned when text cannot be read as a decimal amount.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed fixed-point value with four fractional digits.
// The zero value is a valid zero amount.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// Parse reads a plain decimal string ([+-]digits[.digits]) and normalizes it
// to four fractional digits using half-to-even rounding. Exponent notation is
// rejected, as is an integer part longer than MaxIntegerDigits.
func Parse(text string) (Amount, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if err := checkPlain(text); err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %s", ErrInvalidAmount, truncate(text), err)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	return FromDecimal(d), nil
}

func checkPlain(text string) error {
	digits := strings.TrimLeft(text, "+-")
	if len(text)-len(digits) > 1 {
		return errors.New("repeated sign")
	}
	intPart, fracPart, hasDot := strings.Cut(digits, ".")
	if intPart == "" || !allDigits(intPart) {
		return errors.New("not a plain decimal")
	}
	if hasDot && (fracPart == "" || !allDigits(fracPart)) {
		return errors.New("not a plain decimal")
	}
	if len(strings.TrimLeft(intPart, "0")) > MaxIntegerDigits {
		return fmt.Errorf("more than %d integer digits", MaxIntegerDigits)
	}
	if len(fracPart) > maxFractionDigits {
		return fmt.Errorf("more than %d fractional digits", maxFractionDigits)
	}
	return nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// truncate keeps error messages short for oversized input.
func truncate(text string) string {
	const limit = 32
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

// MustParse is Parse for constants and tests. It panics on invalid input.
func MustParse(text string) Amount {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal normalizes d to the Amount scale.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d.RoundBank(Scale)}
}

// Decimal exposes the underlying value, e.g. for database drivers.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Cmp returns -1, 0 or +1 as a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

func (a Amount) LessThanOrEqual(b Amount) bool {
	return a.d.LessThanOrEqual(b.d)
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

func (a Amount) IsNonNegative() bool {
	return !a.d.IsNegative()
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// String renders the amount with exactly four fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a fixed-scale JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
