package domain

import "strings"

// Language is the UI and chat language preference.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// ParseLanguage normalises and validates a language code.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", &ErrValidation{Field: "language", Message: "must be 'en' or 'hi'"}
	}
	return l, nil
}
