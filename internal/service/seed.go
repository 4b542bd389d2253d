package service

import (
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"

	"github.com/shopspring/decimal"
)

type seedEntry struct {
	monthOffset int
	day         int
	kind        domain.Kind
	amount      int64
	category    domain.Category
}

// demoLedger spans the current month and the two before it.
var demoLedger = []seedEntry{
	{-2, 5, domain.KindSale, 150000, domain.CategoryGoods},
	{-2, 12, domain.KindExpense, 45000, domain.CategoryGoods},
	{-1, 8, domain.KindSale, 280000, domain.CategoryService},
	{-1, 20, domain.KindExpense, 32000, domain.CategoryService},
	{0, 3, domain.KindSale, 195000, domain.CategoryGoods},
	{0, 10, domain.KindExpense, 28000, domain.CategoryGoods},
}

// SeedTransactions builds the six demo transactions relative to today.
func SeedTransactions(today domain.Date, ids port.IDGenerator, rates domain.RateTable) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(demoLedger))
	for _, e := range demoLedger {
		in := domain.TransactionInput{
			Date:     domain.NewDate(today.Year(), today.Month()+time.Month(e.monthOffset), e.day),
			Kind:     e.kind,
			Amount:   decimal.NewFromInt(e.amount),
			Category: e.category,
		}
		tx, err := domain.NewTransaction(ids.NewID(), in, rates)
		if err != nil {
			// Only reachable with a rate table that lacks a category.
			panic(err)
		}
		out = append(out, tx)
	}
	return out
}
