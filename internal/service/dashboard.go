package service

import (
	"context"
	"slices"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecentTransactions is how many entries the dashboard lists.
const RecentTransactions = 5

// DashboardService assembles the home screen in one call.
type DashboardService struct {
	ledger      *LedgerService
	reminders   *ReminderService
	preferences *PreferenceService
	metrics     *observability.Metrics
	logger      *zap.Logger
}

func NewDashboardService(ledger *LedgerService, reminders *ReminderService, preferences *PreferenceService, metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		ledger:      ledger,
		reminders:   reminders,
		preferences: preferences,
		metrics:     metrics,
		logger:      logger,
	}
}

// Build gathers every dashboard section concurrently.
func (s *DashboardService) Build(ctx context.Context) (*domain.Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "DashboardService.Build")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("dashboard", time.Since(start)) }()

	// Every ledger section derives from one snapshot so the sections agree
	// even when a mutation lands mid-build.
	txs, version := s.ledger.Snapshot()
	today := s.ledger.Today()

	d := &domain.Dashboard{ComplianceScore: domain.ComplianceScore(today.Day())}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Summary = s.ledger.summaryOf(txs, version)
		d.Reminders = s.reminders.evaluate(today, d.Summary)
		return gCtx.Err()
	})
	g.Go(func() error {
		d.Monthly = s.ledger.monthlyOf(txs, version)
		return gCtx.Err()
	})
	g.Go(func() error {
		recent := sortByDate(slices.Clone(txs))
		if len(recent) > RecentTransactions {
			recent = recent[:RecentTransactions]
		}
		d.Recent = recent
		return gCtx.Err()
	})
	g.Go(func() error {
		d.Language = s.preferences.Language(gCtx)
		return gCtx.Err()
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard build aborted", zap.Error(err))
		return nil, err
	}

	d.GeneratedAt = s.ledger.cfg.Clock.Now().In(s.ledger.cfg.Location).Format(time.RFC3339)
	return d, nil
}
