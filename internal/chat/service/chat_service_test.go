package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/infra"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/service"
	maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fixedLanguage maindomain.Language

func (f fixedLanguage) Language(context.Context) maindomain.Language { return maindomain.Language(f) }

func newChat(lang maindomain.Language) (*service.ChatService, *observability.Metrics) {
	metrics := observability.NewMetrics()
	catalog := infra.NewCatalog()
	return service.NewChatService(catalog, fixedLanguage(lang), service.DefaultStrategies(catalog), metrics, zap.NewNop()), metrics
}

func TestDetectIntent(t *testing.T) {
	cases := map[string]domain.Intent{
		"When to file GSTR-3B?":         domain.IntentGSTR3B,
		"gstr3b due":                    domain.IntentGSTR3B,
		"what about gstr 1":             domain.IntentGSTR1,
		"GSTR-1 date":                   domain.IntentGSTR1,
		"What is GST threshold?":        domain.IntentThreshold,
		"GST सीमा क्या है?":             domain.IntentThreshold,
		"GST rates for goods?":          domain.IntentRate,
		"वस्तुओं पर GST दर?":            domain.IntentRate,
		"income tax deadline":           domain.IntentITR,
		"explain ITC":                   domain.IntentInputTax,
		"penalty for delay":             domain.IntentPenalty,
		"Hello":                         domain.IntentGreeting,
		"नमस्ते":                        domain.IntentGreeting,
		"what is this":                  domain.IntentGreeting,
		"GSTR-3B late registration fee": domain.IntentGSTR3B,
		"rate of late fee":              domain.IntentRate,
		"xyz":                           domain.IntentDefault,
		"GSTR-9 kab?":                   domain.IntentDefault,
	}
	for query, want := range cases {
		if got := service.DetectIntent(query); got != want {
			t.Errorf("DetectIntent(%q) = %s, want %s", query, got, want)
		}
	}
}

func TestProcessMessage_English(t *testing.T) {
	svc, metrics := newChat(maindomain.LanguageEnglish)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{Query: "When to file GSTR-3B?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Intent != domain.IntentGSTR3B || resp.Language != maindomain.LanguageEnglish {
		t.Errorf("unexpected response %+v", resp)
	}
	if !strings.Contains(resp.Answer, "20th of every month") {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if _, err := uuid.Parse(resp.ID); err != nil {
		t.Errorf("expected uuid id, got %q", resp.ID)
	}
	if got := metrics.LedgerSnapshot().ChatMessages; got != 1 {
		t.Errorf("expected 1 chat message counted, got %d", got)
	}
}

func TestProcessMessage_LanguageOverride(t *testing.T) {
	svc, _ := newChat(maindomain.LanguageEnglish)

	resp, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{Query: "itr", Language: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Language != maindomain.LanguageHindi || !strings.Contains(resp.Answer, "31 जुलाई") {
		t.Errorf("expected Hindi ITR answer, got %+v", resp)
	}

	var v *maindomain.ErrValidation
	if _, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{Query: "itr", Language: "de"}); !errors.As(err, &v) {
		t.Errorf("expected ErrValidation for unknown language, got %v", err)
	}
}

func TestProcessMessage_DefaultAndGreeting(t *testing.T) {
	svc, _ := newChat(maindomain.LanguageHindi)
	ctx := context.Background()

	resp, _ := svc.ProcessMessage(ctx, &domain.ChatRequest{Query: "xyz"})
	if resp.Intent != domain.IntentDefault || !strings.HasPrefix(resp.Answer, "इस बारे में") {
		t.Errorf("unexpected default answer %+v", resp)
	}

	greetings := infra.NewCatalog().Answers(maindomain.LanguageHindi, domain.IntentGreeting)
	resp, _ = svc.ProcessMessage(ctx, &domain.ChatRequest{Query: "hello"})
	if resp.Answer != greetings[0] && resp.Answer != greetings[1] {
		t.Errorf("greeting %q is not one of the variants", resp.Answer)
	}
}

func TestProcessMessage_RejectsEmptyAndLong(t *testing.T) {
	svc, _ := newChat(maindomain.LanguageEnglish)
	for _, q := range []string{"", "   ", strings.Repeat("a", service.MaxQueryLength+1)} {
		var v *maindomain.ErrValidation
		if _, err := svc.ProcessMessage(context.Background(), &domain.ChatRequest{Query: q}); !errors.As(err, &v) {
			t.Errorf("query of length %d: expected ErrValidation, got %v", len(q), err)
		}
	}
}

func TestCannedStrategy_PicksVariant(t *testing.T) {
	catalog := infra.NewCatalog()
	s := service.NewCannedStrategy(catalog, domain.IntentGreeting).WithPicker(func(int) int { return 1 })

	if s.CanHandle(domain.IntentRate) {
		t.Error("strategy must only accept its own intents")
	}
	resp, err := s.Handle(context.Background(), &domain.ChatContext{
		MessageID: "m1", Intent: domain.IntentGreeting, Language: maindomain.LanguageEnglish,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "Hi there! Ask me anything about GST, ITR, or tax compliance." || resp.ID != "m1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestIntro(t *testing.T) {
	svc, _ := newChat(maindomain.LanguageHindi)
	intro, err := svc.Intro(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if intro.Language != maindomain.LanguageHindi || len(intro.Suggestions) != 3 || !strings.HasPrefix(intro.Greeting, "नमस्ते") {
		t.Errorf("unexpected intro %+v", intro)
	}
}
