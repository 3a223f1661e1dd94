// Package money handles monetary values as integer minor currency units.
//
// All ledger arithmetic happens on Money. Decimal representations exist only
// at input and output boundaries.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in minor currency units (cents).
type Money int64

// ErrInvalidAmount indicates a decimal amount that cannot be converted to
// minor units.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Grouping follows the API's canonical en style ("1,234.56") so that Parse
// can strip separators and the round-trip law holds.
var printer = message.NewPrinter(language.English)

// FromFloat converts a decimal amount to Money, rounding to two decimal
// places. Non-finite or negative input is rejected.
func FromFloat(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, ErrInvalidAmount
	}
	cents := decimal.NewFromFloat(amount).Shift(2).Round(0)
	return Money(cents.IntPart()), nil
}

// Parse converts a decimal string to Money. Thousands separators produced by
// Format are accepted, so Parse(m.Format()) == m for any valid m.
func Parse(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return Money(d.Shift(2).Round(0).IntPart()), nil
}

// Format renders the amount as a locale-formatted decimal string with
// thousands separators and exactly two decimal digits.
func (m Money) Format() string {
	units := int64(m) / 100
	cents := int64(m) % 100
	if cents < 0 {
		cents = -cents
	}
	return printer.Sprintf("%d", units) + fmt.Sprintf(".%02d", cents)
}

// Float returns the decimal value of the amount. Presentation use only.
func (m Money) Float() float64 {
	return float64(m) / 100
}
