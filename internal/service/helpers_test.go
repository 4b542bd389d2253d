package service_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/cache"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"go.uber.org/zap"
)

// --- Fakes ---

type fakeLedgerStore struct {
	mu      sync.Mutex
	txs     []domain.Transaction
	found   bool
	loadErr error
	saveErr error
	saves   atomic.Int32
	saved   [][]domain.Transaction
}

func (f *fakeLedgerStore) LoadTransactions(context.Context) ([]domain.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs, f.found, f.loadErr
}

func (f *fakeLedgerStore) SaveTransactions(_ context.Context, txs []domain.Transaction) error {
	f.saves.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, txs)
	return nil
}

func (f *fakeLedgerStore) lastSaved() []domain.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots [][]domain.Transaction
}

func (r *recordingSink) Submit(txs []domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, txs)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

// slowSink stalls before recording, widening any window in which two
// mutations could hand over their snapshots out of order.
type slowSink struct {
	recordingSink
}

func (s *slowSink) Submit(txs []domain.Transaction) {
	time.Sleep(time.Duration(rand.IntN(200)) * time.Microsecond)
	s.recordingSink.Submit(txs)
}

func (r *recordingSink) last() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string { return fmt.Sprintf("tx-%d", s.n.Add(1)) }

type fakePreferenceStore struct {
	lang    domain.Language
	found   bool
	loadErr error
	saveErr error
	saved   []domain.Language
}

func (f *fakePreferenceStore) LoadLanguage(context.Context) (domain.Language, bool, error) {
	return f.lang, f.found, f.loadErr
}

func (f *fakePreferenceStore) SaveLanguage(_ context.Context, lang domain.Language) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, lang)
	return nil
}

// --- Helpers ---

// fixedNow is 2026-10-17 10:00 IST.
var fixedNow = time.Date(2026, time.October, 17, 10, 0, 0, 0, ist)

var ist = time.FixedZone("IST", 5*3600+1800)

func clockAt(t time.Time) port.Clock {
	return port.ClockFunc(func() time.Time { return t })
}

func ledgerConfig(now time.Time) service.LedgerConfig {
	return service.LedgerConfig{
		Location: ist,
		Clock:    clockAt(now),
		IDs:      &seqIDs{},
		Rates:    domain.DefaultRates(),
	}
}

func newLedger(t *testing.T, store port.LedgerStore, sink service.SnapshotSink) (*service.LedgerService, *observability.Metrics) {
	t.Helper()
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)
	metrics := observability.NewMetrics()
	return service.NewLedgerService(context.Background(), ledgerConfig(fixedNow), store, sink, c, metrics, zap.NewNop()), metrics
}

// newLedgerAt builds an empty ledger whose clock is pinned to now.
func newLedgerAt(t *testing.T, now time.Time) (*service.LedgerService, *recordingSink) {
	t.Helper()
	c := cache.New[any](time.Minute)
	t.Cleanup(c.Close)
	sink := &recordingSink{}
	store := &fakeLedgerStore{txs: []domain.Transaction{}, found: true}
	return service.NewLedgerService(context.Background(), ledgerConfig(now), store, sink, c, observability.NewMetrics(), zap.NewNop()), sink
}

// emptyLedger starts from a stored empty list instead of the seed.
func emptyLedger(t *testing.T) (*service.LedgerService, *recordingSink) {
	t.Helper()
	return newLedgerAt(t, fixedNow)
}

func input(kind domain.Kind, amount string, cat domain.Category, date domain.Date) domain.TransactionInput {
	a, err := domain.ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	return domain.TransactionInput{Date: date, Kind: kind, Amount: a, Category: cat}
}
