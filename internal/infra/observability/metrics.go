package observability

import (
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
	transactions    prometheus.Gauge
	persistTotal    *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	chatMessages    *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gst_request_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gst_ledger_mutations_total",
				Help: "Ledger mutations by operation (add, delete, reset).",
			},
			[]string{"op"},
		),
		transactions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gst_ledger_transactions",
				Help: "Number of transactions currently held in the ledger.",
			},
		),
		persistTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gst_persist_total",
				Help: "Persistence attempts by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		persistDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gst_persist_duration_seconds",
				Help:    "Duration of persistence operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		chatMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gst_chat_messages_total",
				Help: "Chat messages answered, by detected intent.",
			},
			[]string{"intent"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gst_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gst_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrMutation counts a ledger mutation.
func (m *Metrics) IncrMutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

// SetTransactions sets the ledger size gauge.
func (m *Metrics) SetTransactions(n int) {
	m.transactions.Set(float64(n))
}

// RecordPersist records the outcome and duration of a persistence call.
func (m *Metrics) RecordPersist(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.persistTotal.WithLabelValues(op, status).Inc()
	m.persistDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncrChat counts a chat message by intent.
func (m *Metrics) IncrChat(intent string) {
	m.chatMessages.WithLabelValues(intent).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// LedgerSnapshot returns the counters behind GET /v1/metrics/ledger.
func (m *Metrics) LedgerSnapshot() *domain.LedgerMetrics {
	hits := getCounterValue(m.cacheHits, "summary")
	misses := getCounterValue(m.cacheMisses, "summary")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.LedgerMetrics{
		Transactions:     int64(getGaugeValue(m.transactions)),
		Adds:             int64(getCounterValue(m.mutations, "add")),
		Deletes:          int64(getCounterValue(m.mutations, "delete")),
		Resets:           int64(getCounterValue(m.mutations, "reset")),
		PersistSuccesses: int64(sumCounterVec(m.persistTotal, "status", "success")),
		PersistFailures:  int64(sumCounterVec(m.persistTotal, "status", "error")),
		CacheHitRate:     hitRate,
		ChatMessages:     int64(sumCounterVec(m.chatMessages, "", "")),
		Period:           "since_start",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getGaugeValue(g prometheus.Gauge) float64 {
	m := &dto.Metric{}
	if err := g.Write(m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// sumCounterVec adds up every child of cv whose label name equals value.
// An empty name sums all children.
func sumCounterVec(cv *prometheus.CounterVec, name, value string) float64 {
	ch := make(chan prometheus.Metric, 64)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var total float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil {
			continue
		}
		if name != "" && !hasLabel(m, name, value) {
			continue
		}
		total += m.GetCounter().GetValue()
	}
	return total
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
