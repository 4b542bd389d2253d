// Package service provides the business logic layer (use cases).
// LedgerService is the single owner of the transaction ledger; the other
// services derive their views from it.
package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/ids"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/ledger")

// LedgerConfig carries everything the engine would otherwise read from
// globals. Zero fields are filled with defaults.
type LedgerConfig struct {
	Location  *time.Location
	Clock     port.Clock
	IDs       port.IDGenerator
	Rates     domain.RateTable
	Threshold decimal.Decimal
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Clock == nil {
		c.Clock = port.SystemClock
	}
	if c.IDs == nil {
		c.IDs = ids.NewULID()
	}
	rates := domain.DefaultRates()
	for cat, rate := range c.Rates {
		rates[cat] = rate
	}
	c.Rates = rates
	if c.Threshold.IsZero() {
		c.Threshold = domain.RegistrationThreshold
	}
	return c
}

// SnapshotSink receives a copy of the ledger after every mutation. Submit
// is called with the ledger lock held and must not block.
type SnapshotSink interface {
	Submit(txs []domain.Transaction)
}

// LedgerService holds the in-memory ledger, which is the source of truth.
// Persistence is best-effort and never fails an operation.
type LedgerService struct {
	cfg     LedgerConfig
	sink    SnapshotSink
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.RWMutex
	txs     []domain.Transaction
	version uint64
}

// NewLedgerService loads the persisted ledger, or seeds the demo data when
// nothing usable is stored. It never fails.
func NewLedgerService(
	ctx context.Context,
	cfg LedgerConfig,
	store port.LedgerStore,
	sink SnapshotSink,
	cache port.Cache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LedgerService {
	ctx, span := tracer.Start(ctx, "LedgerService.Init")
	defer span.End()

	s := &LedgerService{
		cfg:     cfg.withDefaults(),
		sink:    sink,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}

	txs, ok, err := store.LoadTransactions(ctx)
	switch {
	case err != nil:
		logger.Warn("ledger snapshot unusable, seeding demo data", zap.Error(err))
	case !ok:
		logger.Info("no stored ledger, seeding demo data")
	}

	if err != nil || !ok {
		s.txs = SeedTransactions(s.Today(), s.cfg.IDs, s.cfg.Rates)
		s.sink.Submit(slices.Clone(s.txs))
		span.SetAttributes(attribute.Bool("ledger.seeded", true))
	} else {
		s.txs = txs
	}

	s.metrics.SetTransactions(len(s.txs))
	return s
}

// Today is the current calendar date in the configured zone.
func (s *LedgerService) Today() domain.Date {
	return domain.DateOf(s.cfg.Clock.Now().In(s.cfg.Location))
}

// Rates returns the rate table in force.
func (s *LedgerService) Rates() domain.RateTable { return s.cfg.Rates }

// Add validates the input, computes its tax and appends it.
func (s *LedgerService) Add(ctx context.Context, in domain.TransactionInput) (domain.Transaction, error) {
	_, span := tracer.Start(ctx, "LedgerService.Add")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("ledger.add", time.Since(start)) }()

	tx, err := domain.NewTransaction(s.cfg.IDs.NewID(), in, s.cfg.Rates)
	if err != nil {
		span.RecordError(err)
		return domain.Transaction{}, err
	}

	s.mu.Lock()
	s.txs = append(s.txs, tx)
	s.commitLocked()
	s.mu.Unlock()

	s.metrics.IncrMutation("add")
	span.SetAttributes(attribute.String("transaction.id", tx.ID))

	s.logger.Info("transaction recorded",
		zap.String("id", tx.ID),
		zap.String("type", string(tx.Kind)),
		zap.String("amount", tx.Amount.String()),
	)
	return tx, nil
}

// Delete removes the transaction with id. An unknown id is a no-op; the
// return value reports whether anything was removed.
func (s *LedgerService) Delete(ctx context.Context, id string) bool {
	_, span := tracer.Start(ctx, "LedgerService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	s.mu.Lock()
	i := slices.IndexFunc(s.txs, func(t domain.Transaction) bool { return t.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.txs = slices.Delete(s.txs, i, i+1)
	s.commitLocked()
	s.mu.Unlock()

	s.metrics.IncrMutation("delete")
	return true
}

// Reset replaces the ledger with a fresh demo seed relative to today.
func (s *LedgerService) Reset(ctx context.Context) []domain.Transaction {
	_, span := tracer.Start(ctx, "LedgerService.Reset")
	defer span.End()

	seed := SeedTransactions(s.Today(), s.cfg.IDs, s.cfg.Rates)

	s.mu.Lock()
	s.txs = seed
	s.commitLocked()
	s.mu.Unlock()

	s.metrics.IncrMutation("reset")
	s.logger.Info("ledger reset to demo data")
	return slices.Clone(seed)
}

// commitLocked bumps the version and hands a copy to the sink. Callers
// hold s.mu, so the sink sees snapshots in commit order and the latest one
// it receives is always the current ledger.
func (s *LedgerService) commitLocked() {
	s.version++
	s.cache.Clear()
	s.metrics.SetTransactions(len(s.txs))
	s.sink.Submit(slices.Clone(s.txs))
}

// Transactions returns the ledger in insertion order.
func (s *LedgerService) Transactions(ctx context.Context) []domain.Transaction {
	txs, _ := s.Snapshot()
	return txs
}

// TransactionsByDate returns the ledger newest first. Transactions on the
// same date keep their insertion order.
func (s *LedgerService) TransactionsByDate(ctx context.Context) []domain.Transaction {
	txs, _ := s.Snapshot()
	return sortByDate(txs)
}

// sortByDate orders txs newest first in place, keeping insertion order
// within a day.
func sortByDate(txs []domain.Transaction) []domain.Transaction {
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		return b.Date.Time().Compare(a.Date.Time())
	})
	return txs
}

// Get returns a single transaction.
func (s *LedgerService) Get(ctx context.Context, id string) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.txs {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Transaction{}, &domain.ErrNotFound{Resource: "transaction", ID: id}
}

// Snapshot returns a copy of the ledger together with its version.
func (s *LedgerService) Snapshot() ([]domain.Transaction, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.txs), s.version
}

// ComplianceScore depends only on today's day of month.
func (s *LedgerService) ComplianceScore(ctx context.Context) int {
	return domain.ComplianceScore(s.Today().Day())
}

// Summary returns the ledger totals, memoized per ledger version.
func (s *LedgerService) Summary(ctx context.Context) domain.Summary {
	_, span := tracer.Start(ctx, "LedgerService.Summary")
	defer span.End()

	txs, version := s.Snapshot()
	return s.summaryOf(txs, version)
}

// summaryOf computes (or recalls) the totals of a snapshot taken at version.
func (s *LedgerService) summaryOf(txs []domain.Transaction, version uint64) domain.Summary {
	key := fmt.Sprintf("summary:%d", version)
	if cached, ok := s.cache.Get(key); ok {
		if sum, ok := cached.(domain.Summary); ok {
			s.metrics.IncrCacheHit("summary")
			return sum
		}
	}
	s.metrics.IncrCacheMiss("summary")

	sum := domain.Summarize(txs, s.cfg.Threshold)
	s.cache.Set(key, sum)
	return sum
}

// MonthlyRollup returns the last six month buckets.
func (s *LedgerService) MonthlyRollup(ctx context.Context) []domain.MonthBucket {
	txs, version := s.Snapshot()
	return s.monthlyOf(txs, version)
}

func (s *LedgerService) monthlyOf(txs []domain.Transaction, version uint64) []domain.MonthBucket {
	key := fmt.Sprintf("monthly:%d", version)
	if cached, ok := s.cache.Get(key); ok {
		if buckets, ok := cached.([]domain.MonthBucket); ok {
			s.metrics.IncrCacheHit("monthly")
			return slices.Clone(buckets)
		}
	}
	s.metrics.IncrCacheMiss("monthly")

	buckets := domain.MonthlyRollup(txs, domain.DefaultRollupMonths)
	s.cache.Set(key, buckets)
	return slices.Clone(buckets)
}

