package service_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestNewLedgerService_SeedsWhenNothingStored(t *testing.T) {
	sink := &recordingSink{}
	l, metrics := newLedger(t, &fakeLedgerStore{}, sink)

	txs := l.Transactions(context.Background())
	if len(txs) != 6 {
		t.Fatalf("expected 6 seeded transactions, got %d", len(txs))
	}
	if sink.count() != 1 {
		t.Errorf("expected the seed to be queued for saving once, got %d", sink.count())
	}
	if got := metrics.LedgerSnapshot().Transactions; got != 6 {
		t.Errorf("expected transactions gauge 6, got %d", got)
	}
}

func TestNewLedgerService_FallsBackOnLoadErrors(t *testing.T) {
	for name, err := range map[string]error{
		"corrupt":     &domain.ErrCorruptSnapshot{Key: "gstc_transactions", Err: errors.New("bad json")},
		"unavailable": &domain.ErrPersistenceUnavailable{Op: "load_transactions", Err: errors.New("down")},
	} {
		t.Run(name, func(t *testing.T) {
			l, _ := newLedger(t, &fakeLedgerStore{loadErr: err}, &recordingSink{})
			if n := len(l.Transactions(context.Background())); n != 6 {
				t.Errorf("expected seed fallback, got %d transactions", n)
			}
		})
	}
}

func TestNewLedgerService_UsesStoredLedger(t *testing.T) {
	stored := []domain.Transaction{{
		ID: "1", Date: domain.NewDate(2026, time.March, 1), Kind: domain.KindSale,
		Amount: decimal.NewFromInt(100), Category: domain.CategoryGoods, TaxAmount: decimal.NewFromInt(18),
	}}
	sink := &recordingSink{}
	l, _ := newLedger(t, &fakeLedgerStore{txs: stored, found: true}, sink)

	txs := l.Transactions(context.Background())
	if len(txs) != 1 || txs[0].ID != "1" {
		t.Fatalf("expected stored ledger, got %+v", txs)
	}
	if sink.count() != 0 {
		t.Errorf("loading must not trigger a save")
	}
}

func TestSeed_ShapeRelativeToToday(t *testing.T) {
	l, _ := emptyLedger(t)
	txs := l.Reset(context.Background())

	want := []struct {
		date     string
		kind     domain.Kind
		amount   int64
		category domain.Category
		tax      int64
	}{
		{"2026-08-05", domain.KindSale, 150000, domain.CategoryGoods, 27000},
		{"2026-08-12", domain.KindExpense, 45000, domain.CategoryGoods, 8100},
		{"2026-09-08", domain.KindSale, 280000, domain.CategoryService, 33600},
		{"2026-09-20", domain.KindExpense, 32000, domain.CategoryService, 3840},
		{"2026-10-03", domain.KindSale, 195000, domain.CategoryGoods, 35100},
		{"2026-10-10", domain.KindExpense, 28000, domain.CategoryGoods, 5040},
	}
	if len(txs) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(txs))
	}
	seen := map[string]bool{}
	for i, w := range want {
		got := txs[i]
		if got.Date.String() != w.date || got.Kind != w.kind || got.Category != w.category ||
			!got.Amount.Equal(decimal.NewFromInt(w.amount)) || !got.TaxAmount.Equal(decimal.NewFromInt(w.tax)) {
			t.Errorf("seed[%d] = %+v, want %+v", i, got, w)
		}
		if seen[got.ID] {
			t.Errorf("duplicate seed id %q", got.ID)
		}
		seen[got.ID] = true
	}
}

func TestSeed_CrossesYearBoundary(t *testing.T) {
	jan := time.Date(2027, time.January, 4, 9, 0, 0, 0, ist)
	l, _ := newLedgerAt(t, jan)

	txs := l.Reset(context.Background())
	if txs[0].Date.String() != "2026-11-05" || txs[2].Date.String() != "2026-12-08" || txs[4].Date.String() != "2027-01-03" {
		t.Errorf("unexpected seed dates: %s %s %s", txs[0].Date, txs[2].Date, txs[4].Date)
	}
}

func TestAdd_ComputesTaxAndAppends(t *testing.T) {
	l, sink := emptyLedger(t)
	ctx := context.Background()

	cases := []struct {
		amount   string
		category domain.Category
		tax      string
	}{
		{"1000", domain.CategoryGoods, "180"},
		{"1000", domain.CategoryService, "120"},
		{"99.99", domain.CategoryGoods, "17.9982"},
		{"0.01", domain.CategoryService, "0.0012"},
	}
	for i, c := range cases {
		tx, err := l.Add(ctx, input(domain.KindSale, c.amount, c.category, domain.NewDate(2026, time.October, 1)))
		if err != nil {
			t.Fatalf("add %s: %v", c.amount, err)
		}
		if !tx.TaxAmount.Equal(decimal.RequireFromString(c.tax)) {
			t.Errorf("tax for %s %s = %s, want %s", c.amount, c.category, tx.TaxAmount, c.tax)
		}
		txs := l.Transactions(ctx)
		if len(txs) != i+1 || txs[i].ID != tx.ID {
			t.Errorf("expected new entry at the end of the ledger")
		}
		got, err := l.Get(ctx, tx.ID)
		if err != nil || got.ID != tx.ID {
			t.Errorf("Get(%s) = %v, %v", tx.ID, got, err)
		}
	}
	if sink.count() != len(cases) {
		t.Errorf("expected one snapshot per add, got %d", sink.count())
	}
}

func TestAdd_InvalidAmountLeavesLedgerUnchanged(t *testing.T) {
	l, _ := newLedger(t, &fakeLedgerStore{}, &recordingSink{})
	ctx := context.Background()
	before := l.Summary(ctx)
	n := len(l.Transactions(ctx))

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		in := domain.TransactionInput{
			Date: domain.NewDate(2026, time.October, 1), Kind: domain.KindSale,
			Amount: amount, Category: domain.CategoryGoods,
		}
		_, err := l.Add(ctx, in)
		var invalid *domain.ErrInvalidAmount
		if !errors.As(err, &invalid) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if len(l.Transactions(ctx)) != n {
		t.Errorf("ledger length changed")
	}
	after := l.Summary(ctx)
	if !after.TotalSales.Equal(before.TotalSales) || !after.OutputTax.Equal(before.OutputTax) {
		t.Errorf("aggregates changed after rejected add")
	}
}

func TestAdd_RejectsBadFields(t *testing.T) {
	l, _ := emptyLedger(t)
	base := input(domain.KindSale, "10", domain.CategoryGoods, domain.NewDate(2026, time.October, 1))

	bad := []domain.TransactionInput{base, base, base, base}
	bad[0].Kind = "refund"
	bad[1].Category = "food"
	bad[2].Date = domain.Date{}
	bad[3].TaxpayerID = "29ABCDE1234F1Z5X"

	for i, in := range bad {
		_, err := l.Add(context.Background(), in)
		var v *domain.ErrValidation
		if !errors.As(err, &v) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
	if n := len(l.Transactions(context.Background())); n != 0 {
		t.Errorf("expected empty ledger, got %d", n)
	}
}

func TestDelete(t *testing.T) {
	l, _ := newLedger(t, &fakeLedgerStore{}, &recordingSink{})
	ctx := context.Background()
	txs := l.Transactions(ctx)
	target := txs[2].ID

	if !l.Delete(ctx, target) {
		t.Fatal("expected delete to report removal")
	}
	after := l.Transactions(ctx)
	if len(after) != len(txs)-1 {
		t.Fatalf("expected length %d, got %d", len(txs)-1, len(after))
	}
	for _, tx := range after {
		if tx.ID == target {
			t.Fatal("deleted id still present")
		}
	}
	var nf *domain.ErrNotFound
	if _, err := l.Get(ctx, target); !errors.As(err, &nf) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if l.Delete(ctx, "does-not-exist") {
		t.Error("deleting an absent id must be a no-op")
	}
	if len(l.Transactions(ctx)) != len(after) {
		t.Error("ledger changed on absent delete")
	}
}

func TestDelete_AbsentIDDoesNotPersist(t *testing.T) {
	l, sink := emptyLedger(t)
	l.Delete(context.Background(), "nope")
	if sink.count() != 0 {
		t.Errorf("expected no snapshot, got %d", sink.count())
	}
}

func TestReset_AlwaysSixTransactions(t *testing.T) {
	l, sink := emptyLedger(t)
	ctx := context.Background()
	for range 3 {
		_, _ = l.Add(ctx, input(domain.KindSale, "5", domain.CategoryGoods, domain.NewDate(2026, time.October, 1)))
	}

	for range 2 {
		if got := len(l.Reset(ctx)); got != 6 {
			t.Fatalf("expected 6 transactions after reset, got %d", got)
		}
	}
	if got := len(l.Transactions(ctx)); got != 6 {
		t.Errorf("expected ledger of 6, got %d", got)
	}
	if sink.count() != 5 {
		t.Errorf("expected 5 snapshots, got %d", sink.count())
	}
}

func TestSummary_ExampleScenario(t *testing.T) {
	l, _ := emptyLedger(t)
	ctx := context.Background()
	d := domain.NewDate(2026, time.October, 1)
	_, _ = l.Add(ctx, input(domain.KindSale, "150000", domain.CategoryGoods, d))
	_, _ = l.Add(ctx, input(domain.KindExpense, "45000", domain.CategoryGoods, d))

	s := l.Summary(ctx)
	checks := map[string][2]decimal.Decimal{
		"totalSales":    {s.TotalSales, decimal.NewFromInt(150000)},
		"totalExpenses": {s.TotalExpenses, decimal.NewFromInt(45000)},
		"netIncome":     {s.NetIncome, decimal.NewFromInt(105000)},
		"outputTax":     {s.OutputTax, decimal.NewFromInt(27000)},
		"inputTax":      {s.InputTax, decimal.NewFromInt(8100)},
		"taxPayable":    {s.TaxPayable, decimal.NewFromInt(18900)},
	}
	for name, c := range checks {
		if !c[0].Equal(c[1]) {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
	if s.RequiresRegistration {
		t.Error("expected requiresRegistration=false")
	}
}

func TestSummary_CacheInvalidatedOnMutation(t *testing.T) {
	l, metrics := newLedger(t, &fakeLedgerStore{txs: []domain.Transaction{}, found: true}, &recordingSink{})
	ctx := context.Background()

	first := l.Summary(ctx)
	second := l.Summary(ctx)
	if !first.TotalSales.Equal(second.TotalSales) {
		t.Fatal("cached summary differs")
	}

	_, _ = l.Add(ctx, input(domain.KindSale, "2000001", domain.CategoryGoods, domain.NewDate(2026, time.October, 2)))
	third := l.Summary(ctx)
	if !third.TotalSales.Equal(decimal.NewFromInt(2000001)) || !third.RequiresRegistration {
		t.Errorf("summary not refreshed after add: %+v", third)
	}

	snap := metrics.LedgerSnapshot()
	if snap.CacheHitRate <= 0 || snap.CacheHitRate >= 1 {
		t.Errorf("expected a mix of hits and misses, got rate %v", snap.CacheHitRate)
	}
	if snap.Adds != 1 {
		t.Errorf("expected 1 add, got %d", snap.Adds)
	}
}

func TestRegistrationThresholdIsStrict(t *testing.T) {
	l, _ := emptyLedger(t)
	ctx := context.Background()
	d := domain.NewDate(2026, time.October, 1)

	_, _ = l.Add(ctx, input(domain.KindSale, "2000000", domain.CategoryGoods, d))
	if l.Summary(ctx).RequiresRegistration {
		t.Fatal("exactly the threshold must not require registration")
	}
	_, _ = l.Add(ctx, input(domain.KindSale, "0.01", domain.CategoryGoods, d))
	if !l.Summary(ctx).RequiresRegistration {
		t.Fatal("above the threshold must require registration")
	}
}

func TestMonthlyRollup_SeedHasThreeBuckets(t *testing.T) {
	l, _ := newLedger(t, &fakeLedgerStore{}, &recordingSink{})
	buckets := l.MonthlyRollup(context.Background())

	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	if buckets[0].Label != "Aug" || buckets[2].Label != "Oct" {
		t.Errorf("unexpected labels %s..%s", buckets[0].Label, buckets[2].Label)
	}
	if !buckets[1].Income.Equal(decimal.NewFromInt(280000)) || !buckets[1].Expense.Equal(decimal.NewFromInt(32000)) {
		t.Errorf("unexpected September bucket %+v", buckets[1])
	}
}

func TestTransactionsByDate_NewestFirstStable(t *testing.T) {
	l, _ := emptyLedger(t)
	ctx := context.Background()
	a, _ := l.Add(ctx, input(domain.KindSale, "1", domain.CategoryGoods, domain.NewDate(2026, time.May, 1)))
	b, _ := l.Add(ctx, input(domain.KindSale, "2", domain.CategoryGoods, domain.NewDate(2026, time.June, 1)))
	c, _ := l.Add(ctx, input(domain.KindSale, "3", domain.CategoryGoods, domain.NewDate(2026, time.May, 1)))

	got := l.TransactionsByDate(ctx)
	want := []string{b.ID, a.ID, c.ID}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order = %v, want %v", []string{got[0].ID, got[1].ID, got[2].ID}, want)
		}
	}
	if ins := l.Transactions(ctx); ins[0].ID != a.ID {
		t.Error("sorting must not reorder the ledger itself")
	}
}

func TestComplianceScore_UsesConfiguredZone(t *testing.T) {
	// 19:00 UTC on the 10th is already the 11th in India.
	l, _ := newLedgerAt(t, time.Date(2026, time.October, 10, 19, 0, 0, 0, time.UTC))
	if got := l.ComplianceScore(context.Background()); got != 90 {
		t.Errorf("expected 90, got %d", got)
	}
}

func TestLedger_ConcurrentUse(t *testing.T) {
	l, _ := emptyLedger(t)
	ctx := context.Background()
	done := make(chan struct{})

	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 25 {
				tx, err := l.Add(ctx, input(domain.KindSale, "10", domain.CategoryGoods, domain.NewDate(2026, time.October, 1+i)))
				if err != nil {
					t.Error(err)
					return
				}
				_ = l.Summary(ctx)
				if i%2 == 0 {
					l.Delete(ctx, tx.ID)
				}
			}
		}()
	}
	for range 8 {
		<-done
	}
	if got := len(l.Transactions(ctx)); got != 100 {
		t.Errorf("expected 100 transactions, got %d", got)
	}
}

func TestLedger_LastSnapshotMatchesLedgerUnderConcurrency(t *testing.T) {
	ctx := context.Background()

	for round := range 20 {
		sink := &slowSink{}
		l, metrics := newLedger(t, &fakeLedgerStore{txs: []domain.Transaction{}, found: true}, sink)

		var wg sync.WaitGroup
		for g := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for n := range 5 {
					tx, err := l.Add(ctx, input(domain.KindSale, "10", domain.CategoryGoods, domain.NewDate(2026, time.October, 1+g)))
					if err != nil {
						t.Error(err)
						return
					}
					if n == 4 && g%3 == 0 {
						l.Delete(ctx, tx.ID)
					}
				}
			}()
		}
		wg.Wait()

		want := l.Transactions(ctx)
		got := sink.last()
		if !slices.EqualFunc(got, want, func(a, b domain.Transaction) bool { return a.ID == b.ID }) {
			t.Fatalf("round %d: last submitted snapshot has %d transactions, ledger has %d", round, len(got), len(want))
		}
		if n := metrics.LedgerSnapshot().Transactions; n != int64(len(want)) {
			t.Fatalf("round %d: gauge reports %d, ledger has %d", round, n, len(want))
		}
	}
}
