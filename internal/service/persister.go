package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// PersisterConfig tunes the background writer.
type PersisterConfig struct {
	Resilience resilience.Config
	// Timeout bounds a single save, retries included.
	Timeout time.Duration
}

// Persister writes ledger snapshots in the background. Pending snapshots
// coalesce: only the latest one is written, so at most one save is queued
// behind the one in flight. Failures are logged and counted, never returned.
type Persister struct {
	store   port.LedgerStore
	cb      *gobreaker.CircuitBreaker
	cfg     PersisterConfig
	metrics *observability.Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	latest  []domain.Transaction
	pending bool
	busy    bool
	closed  bool
	waiters []chan struct{}

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewPersister starts the writer goroutine. Call Close to stop it.
func NewPersister(store port.LedgerStore, cb *gobreaker.CircuitBreaker, cfg PersisterConfig, metrics *observability.Metrics, logger *zap.Logger) *Persister {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	p := &Persister{
		store:   store,
		cb:      cb,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit queues txs for saving, replacing any snapshot not yet written.
// Snapshots submitted after Close are dropped.
func (p *Persister) Submit(txs []domain.Transaction) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("persister closed, dropping snapshot", zap.Int("transactions", len(txs)))
		return
	}
	p.latest = txs
	p.pending = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until every submitted snapshot has been attempted.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if !p.pending && !p.busy {
		p.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes the pending snapshot, if any, and stops the writer.
func (p *Persister) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.stop:
			p.drain()
			return
		}
	}
}

// drain writes snapshots until none is pending, then releases waiters.
func (p *Persister) drain() {
	for {
		p.mu.Lock()
		if !p.pending {
			p.busy = false
			waiters := p.waiters
			p.waiters = nil
			p.mu.Unlock()
			for _, ch := range waiters {
				close(ch)
			}
			return
		}
		snapshot := p.latest
		p.latest = nil
		p.pending = false
		p.busy = true
		p.mu.Unlock()

		p.write(snapshot)
	}
}

func (p *Persister) write(txs []domain.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "Persister.Write")
	defer span.End()

	start := time.Now()
	err := resilience.Guard(ctx, p.cb, p.cfg.Resilience, func() error {
		return p.store.SaveTransactions(ctx, txs)
	})
	p.metrics.RecordPersist("save_transactions", time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		p.logger.Warn("ledger snapshot not saved",
			zap.Int("transactions", len(txs)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("ledger snapshot saved", zap.Int("transactions", len(txs)))
}
