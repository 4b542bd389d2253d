// Package service implements the tax chat.
//
// ============================================================
// Strategy routing
// ============================================================
//
// ProcessMessage flow:
//  1. Resolve the language (request field, else the stored preference)
//  2. Detect the intent from keywords, first match wins
//  3. Hand the message to the first strategy whose CanHandle accepts it
//  4. Fall back to the default answer when no strategy matches
package service

import (
	"context"
	"strings"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var chatTracer = otel.Tracer("chat/service")

// MaxQueryLength bounds the accepted query size in bytes.
const MaxQueryLength = 2000

// ChatStrategy answers the intents it accepts.
type ChatStrategy interface {
	CanHandle(intent domain.Intent) bool
	Handle(ctx context.Context, chatCtx *domain.ChatContext) (*domain.ChatResponse, error)
}

// ChatService routes chat messages to strategies.
type ChatService struct {
	catalog    port.AnswerCatalog
	language   port.LanguageSource
	strategies []ChatStrategy
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewChatService wires the service. Strategy order matters: the first one
// that accepts the intent answers.
func NewChatService(
	catalog port.AnswerCatalog,
	language port.LanguageSource,
	strategies []ChatStrategy,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		catalog:    catalog,
		language:   language,
		strategies: strategies,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessMessage answers a single query.
func (s *ChatService) ProcessMessage(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, &maindomain.ErrValidation{Field: "query", Message: "is required"}
	}
	if len(query) > MaxQueryLength {
		return nil, &maindomain.ErrValidation{Field: "query", Message: "is too long"}
	}

	lang, err := s.resolveLanguage(ctx, req.Language)
	if err != nil {
		return nil, err
	}

	intent := DetectIntent(query)
	span.SetAttributes(
		attribute.String("chat.intent", string(intent)),
		attribute.String("chat.language", string(lang)),
	)

	s.logger.Info("chat message received",
		zap.String("intent", string(intent)),
		zap.String("language", string(lang)),
		zap.Int("query_length", len(query)),
	)
	s.metrics.IncrChat(string(intent))

	chatCtx := &domain.ChatContext{
		MessageID: uuid.NewString(),
		Query:     query,
		Intent:    intent,
		Language:  lang,
	}

	for _, strategy := range s.strategies {
		if strategy.CanHandle(intent) {
			return strategy.Handle(ctx, chatCtx)
		}
	}

	s.logger.Debug("no strategy matched, using default answer", zap.String("intent", string(intent)))
	return s.defaultHandle(chatCtx), nil
}

// Intro returns the opening greeting and suggested questions.
func (s *ChatService) Intro(ctx context.Context, rawLang string) (*domain.Intro, error) {
	lang, err := s.resolveLanguage(ctx, rawLang)
	if err != nil {
		return nil, err
	}
	return &domain.Intro{
		Greeting:    s.catalog.Answers(lang, domain.IntentGreeting)[0],
		Suggestions: s.catalog.Suggestions(lang),
		Language:    lang,
	}, nil
}

func (s *ChatService) resolveLanguage(ctx context.Context, raw string) (maindomain.Language, error) {
	if strings.TrimSpace(raw) == "" {
		return s.language.Language(ctx), nil
	}
	return maindomain.ParseLanguage(raw)
}

func (s *ChatService) defaultHandle(chatCtx *domain.ChatContext) *domain.ChatResponse {
	return &domain.ChatResponse{
		ID:       chatCtx.MessageID,
		Intent:   domain.IntentDefault,
		Answer:   s.catalog.Answers(chatCtx.Language, domain.IntentDefault)[0],
		Language: chatCtx.Language,
	}
}

// ============================================================
// Intent detection
// ============================================================

type intentRule struct {
	intent   domain.Intent
	keywords []string
}

// intentRules is checked in order. Keywords are plain substrings, so
// "this" counts as a greeting.
var intentRules = []intentRule{
	{domain.IntentGSTR3B, []string{"gstr3b", "gstr-3b", "3b"}},
	{domain.IntentGSTR1, []string{"gstr1", "gstr-1", "gstr 1"}},
	{domain.IntentThreshold, []string{"threshold", "limit", "registration", "सीमा", "पंजीकरण"}},
	{domain.IntentRate, []string{"rate", "percentage", "%", "दर"}},
	{domain.IntentITR, []string{"itr", "income tax", "आयकर"}},
	{domain.IntentInputTax, []string{"input", "itc", "credit", "क्रेडिट"}},
	{domain.IntentPenalty, []string{"penalty", "late", "fine", "जुर्माना", "देर"}},
	{domain.IntentGreeting, []string{"hi", "hello", "hey", "नमस्ते"}},
}

// DetectIntent maps a query to the first intent whose keyword it contains.
func DetectIntent(query string) domain.Intent {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentDefault
}
