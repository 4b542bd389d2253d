// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"
)

// KVStore is a flat key-value area holding opaque values.
// Get returns (nil, false, nil) when the key has never been written.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// LedgerStore loads and saves the full transaction list.
// LoadTransactions returns (nil, false, nil) when nothing was ever saved and
// a *domain.ErrCorruptSnapshot when the stored value cannot be decoded.
type LedgerStore interface {
	LoadTransactions(ctx context.Context) ([]domain.Transaction, bool, error)
	SaveTransactions(ctx context.Context, txs []domain.Transaction) error
}

// PreferenceStore persists the language preference.
type PreferenceStore interface {
	LoadLanguage(ctx context.Context) (domain.Language, bool, error)
	SaveLanguage(ctx context.Context, lang domain.Language) error
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Clock supplies "now". Tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// IDGenerator hands out unique transaction identifiers.
type IDGenerator interface {
	NewID() string
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Clear()
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
