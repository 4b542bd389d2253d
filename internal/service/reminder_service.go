package service

import (
	"context"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
)

// ReminderService evaluates filing obligations against today and the ledger.
type ReminderService struct {
	ledger *LedgerService
}

func NewReminderService(ledger *LedgerService) *ReminderService {
	return &ReminderService{ledger: ledger}
}

// List returns every obligation with its status for today.
func (s *ReminderService) List(ctx context.Context) []domain.Reminder {
	_, span := tracer.Start(ctx, "ReminderService.List")
	defer span.End()

	summary := s.ledger.Summary(ctx)
	return s.evaluate(s.ledger.Today(), summary)
}

func (s *ReminderService) evaluate(today domain.Date, summary domain.Summary) []domain.Reminder {
	return domain.BuildReminders(today, summary.RequiresRegistration)
}
