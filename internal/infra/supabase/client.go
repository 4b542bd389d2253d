// Package supabase provides a client for Supabase (PostgREST).
// It backs the key-value area used for the ledger snapshot when the
// service runs without local storage.
package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/boddenberg/gst-copilot-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	table          string
	cb             *gobreaker.CircuitBreaker
	bulkhead       *resilience.Bulkhead
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client storing values in table.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey, table string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		table:          table,
		cb:             cb,
		bulkhead:       resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:            cfg,
		logger:         logger,
	}
}

// kvRow maps the kv_store table columns.
type kvRow struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Get fetches a single value by key (implements port.KVStore).
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Get")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key))

	var (
		value []byte
		found bool
	)

	err := c.guard(ctx, func() error {
		path := fmt.Sprintf("%s?key=eq.%s&select=key,value&limit=1", c.table, url.QueryEscape(key))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}

		if body == nil || string(body) == "[]" {
			found = false
			return nil
		}

		var rows []kvRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("failed to decode %s row: %w", c.table, err))
		}
		if len(rows) == 0 {
			found = false
			return nil
		}

		value = []byte(rows[0].Value)
		found = true
		return nil
	})

	if err != nil {
		return nil, false, c.wrap("get", err)
	}
	return value, found, nil
}

// Put upserts a value (implements port.KVStore).
func (c *Client) Put(ctx context.Context, key string, value []byte) error {
	ctx, span := tracer.Start(ctx, "Supabase.Put")
	defer span.End()
	span.SetAttributes(attribute.String("kv.key", key), attribute.Int("kv.bytes", len(value)))

	row := kvRow{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	err := c.guard(ctx, func() error {
		return c.doUpsert(ctx, c.table+"?on_conflict=key", row)
	})
	if err != nil {
		return c.wrap("put", err)
	}
	return nil
}

// Ping checks the table is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	if _, err := c.doRequest(ctx, http.MethodGet, c.table+"?select=key&limit=1"); err != nil {
		return c.wrap("ping", err)
	}
	return nil
}

// guard bounds concurrency, then runs fn inside the breaker with retries.
func (c *Client) guard(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	return resilience.Guard(ctx, c.cb, c.cfg, fn)
}

// wrap reports a failure that already went through the client's retries.
// It is marked permanent so a caller running its own Guard does not retry
// it again.
func (c *Client) wrap(op string, err error) error {
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return resilience.Permanent(err)
	}
	return resilience.Permanent(&domain.ErrExternalService{Service: "supabase/" + c.table + "/" + op, Err: err})
}

// doRequest executes an authenticated request to Supabase PostgREST.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		c.logger.Error("supabase: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, statusError(resp.StatusCode, body)
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
}

// statusError marks 4xx responses (other than 408 and 429) as permanent so
// the retry loop gives up on requests that cannot succeed.
func statusError(status int, body []byte) error {
	err := fmt.Errorf("supabase returned status %d: %s", status, string(body))
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		return resilience.Permanent(err)
	}
	return err
}
