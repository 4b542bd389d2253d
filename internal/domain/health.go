package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// LedgerMetrics is returned by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	Transactions     int64   `json:"transactions"`
	Adds             int64   `json:"adds"`
	Deletes          int64   `json:"deletes"`
	Resets           int64   `json:"resets"`
	PersistSuccesses int64   `json:"persistSuccesses"`
	PersistFailures  int64   `json:"persistFailures"`
	CacheHitRate     float64 `json:"cacheHitRate"`
	ChatMessages     int64   `json:"chatMessages"`
	Period           string  `json:"period"`
}

// Dashboard bundles everything the home screen renders.
type Dashboard struct {
	Summary         Summary       `json:"summary"`
	Monthly         []MonthBucket `json:"monthly"`
	ComplianceScore int           `json:"complianceScore"`
	Reminders       []Reminder    `json:"reminders"`
	Recent          []Transaction `json:"recent"`
	Language        Language      `json:"language"`
	GeneratedAt     string        `json:"generatedAt"`
}
