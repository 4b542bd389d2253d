package service

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"

	"go.uber.org/zap"
)

// PreferenceService owns the language preference. Like the ledger, the
// in-memory value wins and storage failures only produce a warning.
type PreferenceService struct {
	store   port.PreferenceStore
	metrics *observability.Metrics
	logger  *zap.Logger

	mu   sync.RWMutex
	lang domain.Language
}

// NewPreferenceService loads the stored language, falling back to def.
func NewPreferenceService(ctx context.Context, store port.PreferenceStore, def domain.Language, metrics *observability.Metrics, logger *zap.Logger) *PreferenceService {
	if !def.Valid() {
		def = domain.LanguageEnglish
	}
	s := &PreferenceService{store: store, metrics: metrics, logger: logger, lang: def}

	lang, ok, err := store.LoadLanguage(ctx)
	switch {
	case err != nil:
		logger.Warn("stored language unusable, using default", zap.String("default", string(def)), zap.Error(err))
	case ok:
		s.lang = lang
	}
	return s
}

// Language returns the current preference.
func (s *PreferenceService) Language(ctx context.Context) domain.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// SetLanguage validates and stores a new preference.
func (s *PreferenceService) SetLanguage(ctx context.Context, raw string) (domain.Language, error) {
	ctx, span := tracer.Start(ctx, "PreferenceService.SetLanguage")
	defer span.End()

	lang, err := domain.ParseLanguage(raw)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()

	start := time.Now()
	err = s.store.SaveLanguage(ctx, lang)
	s.metrics.RecordPersist("save_language", time.Since(start), err)
	if err != nil {
		s.logger.Warn("language preference not saved", zap.String("language", string(lang)), zap.Error(err))
	}
	return lang, nil
}
