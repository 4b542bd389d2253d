// Package handler exposes the tax chat over HTTP.
//
//	POST /v1/chat         {"query": "...", "language": "hi"} -> one answer
//	GET  /v1/chat/intro   ?language=hi                      -> greeting + suggestions
//
// The handlers are thin: decode, delegate to ChatService, encode.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/chat/service"
	maindomain "github.com/boddenberg/gst-copilot-bfa-go/internal/domain"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("chat/handler")

// maxBodyBytes caps the request body; queries themselves are far smaller.
const maxBodyBytes = 16 << 10

// ChatHandler serves POST /v1/chat.
func ChatHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req domain.ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, `invalid request body: expected {"query": "your question"}`)
			return
		}

		resp, err := chatSvc.ProcessMessage(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ChatIntroHandler serves GET /v1/chat/intro.
func ChatIntroHandler(chatSvc *service.ChatService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		intro, err := chatSvc.Intro(r.Context(), r.URL.Query().Get("language"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, intro)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var validation *maindomain.ErrValidation
	if errors.As(err, &validation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	logger.Error("unexpected error in chat handler", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}
