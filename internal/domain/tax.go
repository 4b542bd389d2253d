package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RegistrationThreshold is annual turnover (₹20 lakh) above which GST
// registration becomes mandatory.
var RegistrationThreshold = decimal.NewFromInt(2_000_000)

// RateTable maps a category to its GST rate, expressed as a fraction.
type RateTable map[Category]decimal.Decimal

// DefaultRates returns the standard rate table: 18% on goods, 12% on services.
func DefaultRates() RateTable {
	return RateTable{
		CategoryGoods:   decimal.RequireFromString("0.18"),
		CategoryService: decimal.RequireFromString("0.12"),
	}
}

// TaxFor computes amount × rate(category).
func (rt RateTable) TaxFor(c Category, amount decimal.Decimal) (decimal.Decimal, error) {
	rate, ok := rt[c]
	if !ok {
		return decimal.Zero, &ErrValidation{Field: "category", Message: fmt.Sprintf("no GST rate for %q", c)}
	}
	return amount.Mul(rate), nil
}

// Amount bounds: below ₹1,000,000,000,000,000 (MaxAmountDigits integer
// digits) and at most MaxAmountScale decimal places.
const (
	MaxAmountDigits = 15
	MaxAmountScale  = 2
)

// ParseAmount turns user input into a positive decimal amount. Empty,
// non-numeric, non-finite ("NaN", "Inf"), non-positive and out-of-range
// values are all rejected with *ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ErrInvalidAmount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ErrInvalidAmount{Value: s}
	}
	if CheckAmount(d) != nil {
		return decimal.Zero, &ErrInvalidAmount{Value: s}
	}
	return d, nil
}

// CheckAmount reports whether d is a usable transaction amount. It never
// formats d, so an absurd exponent costs nothing.
func CheckAmount(d decimal.Decimal) error {
	if d.Sign() <= 0 || !Bounded(d, MaxAmountDigits, MaxAmountScale) {
		return &ErrInvalidAmount{}
	}
	return nil
}

// Bounded reports whether d has at most maxDigits digits before the
// decimal point and at most maxScale significant digits after it. Only the
// coefficient is inspected; the exponent is never expanded.
func Bounded(d decimal.Decimal, maxDigits, maxScale int) bool {
	coef := d.Coefficient()
	if coef.BitLen() > 256 {
		return false
	}
	digits := coef.Abs(coef).String()
	if digits == "0" {
		return true
	}
	exp := int64(d.Exponent()) + int64(len(digits)-len(strings.TrimRight(digits, "0")))
	digits = strings.TrimRight(digits, "0")

	if exp < -int64(maxScale) {
		return false
	}
	return int64(len(digits))+exp <= int64(maxDigits)
}
