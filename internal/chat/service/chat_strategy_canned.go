package service

import (
	"context"
	"math/rand/v2"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/port"
)

// CannedStrategy answers a fixed set of intents from the catalogue.
// When an intent has several variants one is picked at random.
type CannedStrategy struct {
	catalog port.AnswerCatalog
	intents map[domain.Intent]bool
	pick    func(n int) int
}

// NewCannedStrategy handles the given intents.
func NewCannedStrategy(catalog port.AnswerCatalog, intents ...domain.Intent) *CannedStrategy {
	set := make(map[domain.Intent]bool, len(intents))
	for _, i := range intents {
		set[i] = true
	}
	return &CannedStrategy{catalog: catalog, intents: set, pick: rand.IntN}
}

// WithPicker replaces the random variant selector, mainly for tests.
func (s *CannedStrategy) WithPicker(pick func(n int) int) *CannedStrategy {
	s.pick = pick
	return s
}

func (s *CannedStrategy) CanHandle(intent domain.Intent) bool {
	return s.intents[intent]
}

func (s *CannedStrategy) Handle(_ context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error) {
	variants := s.catalog.Answers(chatCtx.Language, chatCtx.Intent)
	answer := variants[0]
	if len(variants) > 1 {
		answer = variants[s.pick(len(variants))]
	}
	return &domain.ChatResponse{
		ID:       chatCtx.MessageID,
		Intent:   chatCtx.Intent,
		Answer:   answer,
		Language: chatCtx.Language,
	}, nil
}

// DefaultStrategies returns the strategy set used in production: one for
// the topical answers and one for greetings.
func DefaultStrategies(catalog port.AnswerCatalog) []ChatStrategy {
	return []ChatStrategy{
		NewCannedStrategy(catalog,
			domain.IntentGSTR3B,
			domain.IntentGSTR1,
			domain.IntentThreshold,
			domain.IntentRate,
			domain.IntentITR,
			domain.IntentInputTax,
			domain.IntentPenalty,
		),
		NewCannedStrategy(catalog, domain.IntentGreeting),
	}
}
