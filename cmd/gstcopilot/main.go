package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	chatinfra "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/infra"
	chatservice "github.com/boddenberg/gst-copilot-bfa-go/internal/chat/service"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/config"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/handler"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/cache"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/kvstore"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/observability"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/persistence"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/supabase"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/port"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("timezone", cfg.Timezone),
		zap.String("default_language", cfg.DefaultLanguage),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("persist_timeout", cfg.PersistTimeout),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, observability.ServiceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Application ---
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	a, err := newApp(startCtx, cfg, metrics, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}
	// The ledger is flushed after the listener stops so the last mutation
	// reaches the store.
	if err := a.Close(ctx); err != nil {
		logger.Error("ledger flush incomplete", zap.Error(err))
	}

	logger.Info("server stopped")
}

// app is the wired service graph behind the HTTP server.
type app struct {
	handler   http.Handler
	persister *service.Persister
	cache     *cache.InMemory[any]
	closeKV   func()
}

// newApp opens the configured store and builds every service on top of it.
func newApp(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (*app, error) {
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}

	kv, closeKV, err := openKVStore(ctx, cfg, resilienceCfg, logger)
	if err != nil {
		return nil, err
	}

	snapshots := persistence.NewSnapshotStore(kv, cfg.KeyPrefix)
	persister := service.NewPersister(
		snapshots,
		resilience.NewCircuitBreaker("persist"),
		service.PersisterConfig{Resilience: resilienceCfg, Timeout: cfg.PersistTimeout},
		metrics,
		logger,
	)
	viewCache := cache.New[any](cfg.CacheTTL)

	// --- Services ---
	ledgerSvc := service.NewLedgerService(
		ctx,
		service.LedgerConfig{Location: cfg.Location()},
		snapshots,
		persister,
		viewCache,
		metrics,
		logger,
	)
	prefSvc := service.NewPreferenceService(ctx, snapshots, domain.Language(cfg.DefaultLanguage), metrics, logger)
	reminderSvc := service.NewReminderService(ledgerSvc)
	dashboardSvc := service.NewDashboardService(ledgerSvc, reminderSvc, prefSvc, metrics, logger)

	catalog := chatinfra.NewCatalog()
	chatSvc := chatservice.NewChatService(catalog, prefSvc, chatservice.DefaultStrategies(catalog), metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Ledger:      ledgerSvc,
		Reminders:   reminderSvc,
		Dashboard:   dashboardSvc,
		Preferences: prefSvc,
		Chat:        chatSvc,
		Probes:      []handler.Probe{{Name: "store", Checker: snapshots}},
	}, handler.RouterConfig{
		ChatRatePerSec: cfg.ChatRatePerSec,
		ChatRateBurst:  cfg.ChatRateBurst,
	}, metrics, logger)

	return &app{
		handler:   router,
		persister: persister,
		cache:     viewCache,
		closeKV:   closeKV,
	}, nil
}

// Close flushes pending ledger writes and releases the store.
func (a *app) Close(ctx context.Context) error {
	err := a.persister.Close(ctx)
	a.cache.Close()
	a.closeKV()
	return err
}

// openKVStore builds the backend selected by STORE_BACKEND. The returned
// func releases its resources.
func openKVStore(ctx context.Context, cfg *config.Config, resilienceCfg resilience.Config, logger *zap.Logger) (port.KVStore, func(), error) {
	noop := func() {}

	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, the ledger is lost on restart")
		return kvstore.NewMemory(), noop, nil

	case config.BackendFile:
		store, err := kvstore.NewFile(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", zap.String("data_dir", cfg.DataDir))
		return store, noop, nil

	case config.BackendPostgres:
		store, err := kvstore.OpenSQL(ctx, kvstore.Postgres, cfg.DatabaseURL, "kv_store")
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return store, func() { store.Close() }, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		store, err := kvstore.OpenSQL(ctx, kvstore.SQLite, cfg.SQLitePath, "kv_store")
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return store, func() { store.Close() }, nil

	case config.BackendSupabase:
		logger.Info("using Supabase store",
			zap.String("supabase_url", cfg.SupabaseURL),
			zap.String("table", cfg.SupabaseTable),
		)
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cfg.SupabaseTable,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		return client, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
