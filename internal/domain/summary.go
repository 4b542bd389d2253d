package domain

import "github.com/shopspring/decimal"

// ============================================================
// Aggregate metrics
// ============================================================

// Summary holds the ledger totals shown on the dashboard.
type Summary struct {
	TotalSales           decimal.Decimal `json:"totalSales"`
	TotalExpenses        decimal.Decimal `json:"totalExpenses"`
	NetIncome            decimal.Decimal `json:"netIncome"`
	OutputTax            decimal.Decimal `json:"outputTax"`
	InputTax             decimal.Decimal `json:"inputTax"`
	TaxPayable           decimal.Decimal `json:"taxPayable"`
	RequiresRegistration bool            `json:"requiresRegistration"`
	Threshold            decimal.Decimal `json:"threshold"`
	TransactionCount     int             `json:"transactionCount"`
}

// Summarize folds a list of transactions into totals. Excess input credit
// is floored to zero rather than carried forward.
func Summarize(txs []Transaction, threshold decimal.Decimal) Summary {
	s := Summary{
		TotalSales:       decimal.Zero,
		TotalExpenses:    decimal.Zero,
		OutputTax:        decimal.Zero,
		InputTax:         decimal.Zero,
		Threshold:        threshold,
		TransactionCount: len(txs),
	}
	for _, t := range txs {
		switch t.Kind {
		case KindSale:
			s.TotalSales = s.TotalSales.Add(t.Amount)
			s.OutputTax = s.OutputTax.Add(t.TaxAmount)
		case KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
			s.InputTax = s.InputTax.Add(t.TaxAmount)
		}
	}
	s.NetIncome = s.TotalSales.Sub(s.TotalExpenses)
	s.TaxPayable = decimal.Max(decimal.Zero, s.OutputTax.Sub(s.InputTax))
	s.RequiresRegistration = s.TotalSales.GreaterThan(threshold)
	return s
}

// ============================================================
// Monthly rollup
// ============================================================

// DefaultRollupMonths is how many month buckets the dashboard chart shows.
const DefaultRollupMonths = 6

// MonthBucket accumulates sales and expenses for one calendar month.
type MonthBucket struct {
	Key     string          `json:"key"` // YYYY-MM
	Label   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthlyRollup groups transactions by year-month. Buckets appear in the
// order their month is first seen in txs, and only the last limit buckets
// are kept.
func MonthlyRollup(txs []Transaction, limit int) []MonthBucket {
	index := make(map[string]int)
	buckets := make([]MonthBucket, 0)

	for _, t := range txs {
		key := t.Date.YearMonth()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, MonthBucket{
				Key:     key,
				Label:   t.Date.ShortMonth(),
				Income:  decimal.Zero,
				Expense: decimal.Zero,
			})
		}
		switch t.Kind {
		case KindSale:
			buckets[i].Income = buckets[i].Income.Add(t.Amount)
		case KindExpense:
			buckets[i].Expense = buckets[i].Expense.Add(t.Amount)
		}
	}

	if limit > 0 && len(buckets) > limit {
		buckets = buckets[len(buckets)-limit:]
	}
	return buckets
}

// ============================================================
// Compliance score
// ============================================================

// ComplianceScore is a date-only heuristic: 95 up to the GSTR-1 due day,
// 90 up to the GSTR-3B due day, 85 afterwards. Ledger contents play no part.
func ComplianceScore(dayOfMonth int) int {
	switch {
	case dayOfMonth <= 10:
		return 95
	case dayOfMonth <= 20:
		return 90
	default:
		return 85
	}
}
