// Package money provides the exact decimal Amount type that all balance
// arithmetic in this application is based on. Amounts are stored with a
// fixed precision of two decimal places (cents) and never pass through
// binary floating point.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// ErrInvalidAmount is returned when an amount cannot be parsed from a
// string, or when it falls outside the supported range.
var ErrInvalidAmount = errors.New("invalid amount")

// maxCents bounds amounts so that cent-level arithmetic can never
// overflow an int64, even when summed across decades of occurrences.
const maxCents = int64(1) << 50

// Amount is a signed decimal quantity with cent precision.
//
// The zero value is usable and equal to Zero().
type Amount struct {
	d decimal.Decimal
}

// Zero returns a zero-valued amount.
func Zero() Amount {
	return Amount{}
}

// FromCents builds an amount from an integer number of cents; 500 means
// $5.00.
func FromCents(c int64) Amount {
	return Amount{d: decimal.New(c, -2)}
}

// NewFromString parses a currency string such as "1234.56", "$1,234.56",
// "+15" or "-0.99". Values are rounded half-up to cents. Returns
// ErrInvalidAmount for non-numeric or out-of-range input.
func NewFromString(s string) (Amount, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "+")

	if cleaned == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d = d.Round(2)

	cents := d.Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(maxCents)) {
		return Amount{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}

	return Amount{d: d}, nil
}

// Cents returns the amount as an integer number of cents.
func (a Amount) Cents() int64 {
	return a.d.Shift(2).IntPart()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

func (a Amount) Neg() Amount {
	return Amount{d: a.d.Neg()}
}

// MulInt scales the amount by an integer factor, e.g. 5 occurrences of a
// recurring charge.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// Cmp returns -1, 0 or 1 depending on whether a is less than, equal to,
// or greater than b.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// String renders the amount with exactly two decimal places and no
// currency symbol, e.g. "-15.00". This is also the persisted form.
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// Currency converts the amount to a USD-formatted string with thousands
// separators - FromCents(123456).Currency() returns "$1,234.56".
func (a Amount) Currency() string {
	c := a.Cents()

	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}

	p := message.NewPrinter(language.English)

	return p.Sprintf("%v$%d.%02d", sign, c/100, c%100)
}

// MarshalYAML persists amounts as plain decimal strings so that profile
// files stay hand-editable.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := NewFromString(value.Value)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
