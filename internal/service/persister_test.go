package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newPersister(t *testing.T, store *fakeLedgerStore, retries int) (*service.Persister, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	p := service.NewPersister(store, resilience.NewCircuitBreaker("test-persist"), service.PersisterConfig{
		Resilience: resilience.Config{MaxRetries: retries, InitialBackoff: time.Millisecond},
		Timeout:    time.Second,
	}, metrics, zap.NewNop())
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, metrics
}

func ledgerOf(n int) []domain.Transaction {
	out := make([]domain.Transaction, n)
	for i := range out {
		out[i] = domain.Transaction{ID: string(rune('a' + i)), Amount: decimal.NewFromInt(int64(i + 1))}
	}
	return out
}

func TestPersister_WritesLatestSnapshot(t *testing.T) {
	store := &fakeLedgerStore{}
	p, metrics := newPersister(t, store, 0)

	for i := 1; i <= 10; i++ {
		p.Submit(ledgerOf(i))
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := len(store.lastSaved()); got != 10 {
		t.Errorf("expected the final snapshot (10 entries) to be saved last, got %d", got)
	}
	saves := store.saves.Load()
	if saves < 1 || saves > 10 {
		t.Errorf("unexpected save count %d", saves)
	}
	if got := metrics.LedgerSnapshot().PersistSuccesses; got != int64(saves) {
		t.Errorf("expected %d successes recorded, got %d", saves, got)
	}
}

func TestPersister_FailureIsCountedNotReturned(t *testing.T) {
	store := &fakeLedgerStore{saveErr: errors.New("disk full")}
	p, metrics := newPersister(t, store, 2)

	p.Submit(ledgerOf(1))
	if err := p.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := store.saves.Load(); got != 3 {
		t.Errorf("expected 1 attempt + 2 retries, got %d", got)
	}
	if got := metrics.LedgerSnapshot().PersistFailures; got != 1 {
		t.Errorf("expected 1 failure recorded, got %d", got)
	}
}

func TestPersister_CloseDrainsPending(t *testing.T) {
	store := &fakeLedgerStore{}
	p, _ := newPersister(t, store, 0)

	p.Submit(ledgerOf(3))
	if err := p.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.lastSaved()); got != 3 {
		t.Errorf("expected pending snapshot written on close, got %d entries", got)
	}

	p.Submit(ledgerOf(5))
	if err := p.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(store.lastSaved()); got != 3 {
		t.Errorf("snapshot submitted after close must be dropped")
	}
}

func TestPersister_FlushHonoursContext(t *testing.T) {
	store := &fakeLedgerStore{saveErr: errors.New("slow")}
	p, _ := newPersister(t, store, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Submit(ledgerOf(1))
	if err := p.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestLedgerWithPersister_EndToEnd(t *testing.T) {
	store := &fakeLedgerStore{}
	p, _ := newPersister(t, store, 0)
	l, _ := newLedger(t, store, p)
	ctx := context.Background()

	tx, err := l.Add(ctx, input(domain.KindExpense, "1200", domain.CategoryService, domain.NewDate(2026, time.October, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	saved := store.lastSaved()
	if len(saved) != 7 || saved[6].ID != tx.ID || !saved[6].TaxAmount.Equal(decimal.NewFromInt(144)) {
		t.Errorf("stored ledger does not match memory: %+v", saved)
	}
}
