package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"go.uber.org/zap"
)

func remindersHandler(reminders *service.ReminderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders.List(r.Context())})
	}
}

func dashboardHandler(dashboard *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		d, err := dashboard.Build(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// ============================================================
// Preferences
// ============================================================

type languageBody struct {
	Language string `json:"language"`
}

func getLanguageHandler(prefs *service.PreferenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, languageBody{Language: string(prefs.Language(r.Context()))})
	}
}

func putLanguageHandler(prefs *service.PreferenceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body languageBody
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, `invalid request body: expected {"language": "en"|"hi"}`)
			return
		}
		lang, err := prefs.SetLanguage(r.Context(), body.Language)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.Header().Set("Content-Language", string(lang))
		writeJSON(w, http.StatusOK, languageBody{Language: string(lang)})
	}
}
