// Package domain defines the types used by the tax chat (POST /v1/chat).
//
// The chat is a canned-answer assistant: the query is matched against
// keyword lists, the first matching intent wins, and the answer comes from
// a fixed English/Hindi catalogue. There is no language model behind it.
package domain

import maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"

// ============================================================
// Intents
// ============================================================

// Intent names a topic the chat knows how to answer.
type Intent string

const (
	IntentGSTR3B    Intent = "gstr3b"
	IntentGSTR1     Intent = "gstr1"
	IntentThreshold Intent = "threshold"
	IntentRate      Intent = "rate"
	IntentITR       Intent = "itr"
	IntentInputTax  Intent = "input_tax"
	IntentPenalty   Intent = "penalty"
	IntentGreeting  Intent = "greeting"
	IntentDefault   Intent = "default"
)

// ============================================================
// Request / Response
// ============================================================

// ChatRequest is the body of POST /v1/chat. Language is optional; the
// stored preference is used when it is empty.
type ChatRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// ChatResponse is one assistant message.
type ChatResponse struct {
	ID       string              `json:"id"`
	Intent   Intent              `json:"intent"`
	Answer   string              `json:"answer"`
	Language maindomain.Language `json:"language"`
}

// Intro is the opening message plus quick-reply suggestions, served by
// GET /v1/chat/intro.
type Intro struct {
	Greeting    string              `json:"greeting"`
	Suggestions []string            `json:"suggestions"`
	Language    maindomain.Language `json:"language"`
}

// ============================================================
// Strategy context
// ============================================================

// ChatContext is everything a strategy needs to answer one message.
type ChatContext struct {
	MessageID string
	Query     string
	Intent    Intent
	Language  maindomain.Language
}
