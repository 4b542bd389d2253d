// Package handler exposes the ledger over HTTP for the browser UI.
package handler

import (
	"net/http"
	"time"

	chathandler "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/handler"
	chatservice "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/service"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Probe is a named dependency checked by /healthz and /readyz.
type Probe struct {
	Name    string
	Checker port.HealthChecker
}

// Services bundles everything the router dispatches to.
type Services struct {
	Ledger      *service.LedgerService
	Reminders   *service.ReminderService
	Dashboard   *service.DashboardService
	Preferences *service.PreferenceService
	Chat        *chatservice.ChatService
	Probes      []Probe
}

// RouterConfig holds the HTTP-level knobs.
type RouterConfig struct {
	ChatRatePerSec float64
	ChatRateBurst  int
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, cfg RouterConfig, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger, "/healthz", "/readyz", "/metrics", "/ping"))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Probes))
	r.Get("/readyz", readyzHandler(svc.Probes, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if svc.Preferences != nil {
			r.Use(ContentLanguage(svc.Preferences))
		}

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", listTransactionsHandler(svc.Ledger))
			r.Post("/", createTransactionHandler(svc.Ledger, logger))
			r.Get("/{id}", getTransactionHandler(svc.Ledger, logger))
			r.Delete("/{id}", deleteTransactionHandler(svc.Ledger))
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Post("/reset", resetLedgerHandler(svc.Ledger))
			r.Get("/summary", summaryHandler(svc.Ledger))
			r.Get("/monthly", monthlyHandler(svc.Ledger))
			r.Get("/compliance", complianceHandler(svc.Ledger))
			r.Get("/export", exportHandler(svc.Ledger, logger))
		})

		r.Get("/reminders", remindersHandler(svc.Reminders))
		r.Get("/dashboard", dashboardHandler(svc.Dashboard, logger))

		r.Get("/preferences/language", getLanguageHandler(svc.Preferences))
		r.Put("/preferences/language", putLanguageHandler(svc.Preferences, logger))

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(cfg.ChatRatePerSec, cfg.ChatRateBurst, logger))
			r.Post("/chat", chathandler.ChatHandler(svc.Chat, logger))
		})
		r.Get("/chat/intro", chathandler.ChatIntroHandler(svc.Chat, logger))

		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Probes
// ============================================================

func checkProbes(r *http.Request, probes []Probe) domain.HealthStatus {
	now := time.Now().UTC().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: observability.ServiceName, Status: "healthy", LastChecked: now},
	}

	overall := "healthy"
	for _, p := range probes {
		start := time.Now()
		err := p.Checker.Ping(r.Context())
		h := domain.ServiceHealth{
			Name:        p.Name,
			Status:      "healthy",
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		}
		if err != nil {
			h.Status = "degraded"
			h.Error = err.Error()
			overall = "degraded"
		}
		services = append(services, h)
	}
	return domain.HealthStatus{Status: overall, Services: services}
}

// healthzHandler always answers 200: the ledger keeps working in memory
// when storage is down, so a failing store only degrades the service.
func healthzHandler(probes []Probe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checkProbes(r, probes))
	}
}

func readyzHandler(probes []Probe, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checkProbes(r, probes)
		if status.Status != "healthy" {
			logger.Warn("readiness check failed", zap.Any("services", status.Services))
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.LedgerSnapshot())
	}
}
