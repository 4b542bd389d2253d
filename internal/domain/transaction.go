// Package domain defines the core bookkeeping entities for the GST copilot.
// These types are independent of storage and transport and carry the tax
// rules that every other layer relies on.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transaction kinds and categories
// ============================================================

// Kind distinguishes money coming in (sale) from money going out (expense).
type Kind string

const (
	KindSale    Kind = "sale"
	KindExpense Kind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindSale || k == KindExpense
}

// Category selects the GST rate applied to a transaction.
type Category string

const (
	CategoryGoods   Category = "goods"
	CategoryService Category = "service"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryGoods || c == CategoryService
}

// MaxTaxpayerIDLength bounds the optional GSTIN field.
const MaxTaxpayerIDLength = 15

// ============================================================
// Date: calendar date without a time component
// ============================================================

const dateLayout = "2006-01-02"

// Date is a calendar date. The zero value means "no date".
type Date struct {
	t time.Time
}

// NewDate builds a Date, normalising out-of-range months and days the same
// way time.Date does (month 0 is December of the previous year).
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ErrValidation{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	return Date{t: t}, nil
}

func (d Date) IsZero() bool { return d.t.IsZero() }
func (d Date) Year() int { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int { return d.t.Day() }
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }
func (d Date) String() string { return d.t.Format(dateLayout) }
func (d Date) YearMonth() string { return d.t.Format("2006-01") }
func (d Date) ShortMonth() string { return d.t.Format("Jan") }
func (d Date) Time() time.Time { return d.t }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" and, for snapshots written by older
// clients, full RFC 3339 timestamps (only the date part is kept).
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(dateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ============================================================
// Transaction
// ============================================================

// Transaction is a single ledger entry. It never changes after creation;
// TaxAmount is fixed with the rate in force when it was recorded.
type Transaction struct {
	ID         string          `json:"id"`
	Date       Date            `json:"date"`
	Kind       Kind            `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Category   Category        `json:"category"`
	TaxpayerID string          `json:"gstin,omitempty"`
	TaxAmount  decimal.Decimal `json:"gstAmount"`
}

// TransactionInput is everything a caller supplies to record a transaction.
type TransactionInput struct {
	Date       Date
	Kind       Kind
	Amount     decimal.Decimal
	Category   Category
	TaxpayerID string
}

// Validate checks the input. Amount problems are reported as
// *ErrInvalidAmount, everything else as *ErrValidation.
func (in TransactionInput) Validate() error {
	if err := CheckAmount(in.Amount); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "is required"}
	}
	if !in.Kind.Valid() {
		return &ErrValidation{Field: "type", Message: "must be 'sale' or 'expense'"}
	}
	if !in.Category.Valid() {
		return &ErrValidation{Field: "category", Message: "must be 'goods' or 'service'"}
	}
	if utf8.RuneCountInString(NormalizeTaxpayerID(in.TaxpayerID)) > MaxTaxpayerIDLength {
		return &ErrValidation{
			Field:   "gstin",
			Message: fmt.Sprintf("must be at most %d characters", MaxTaxpayerIDLength),
		}
	}
	return nil
}

// NormalizeTaxpayerID trims and upper-cases a GSTIN.
func NormalizeTaxpayerID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NewTransaction validates in and computes its tax with the given rates.
func NewTransaction(id string, in TransactionInput, rates RateTable) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	tax, err := rates.TaxFor(in.Category, in.Amount)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:         id,
		Date:       in.Date,
		Kind:       in.Kind,
		Amount:     in.Amount,
		Category:   in.Category,
		TaxpayerID: NormalizeTaxpayerID(in.TaxpayerID),
		TaxAmount:  tax,
	}, nil
}
