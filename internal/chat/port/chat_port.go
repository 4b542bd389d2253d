// Package port defines the interfaces the chat service depends on.
package port

import (
	"context"

	chatdomain "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
)

// AnswerCatalog supplies the canned answers. An intent may have several
// variants; the caller decides which one to use.
type AnswerCatalog interface {
	Answers(lang maindomain.Language, intent chatdomain.Intent) []string
	Suggestions(lang maindomain.Language) []string
}

// LanguageSource returns the current language preference.
type LanguageSource interface {
	Language(ctx context.Context) maindomain.Language
}
