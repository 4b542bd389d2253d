package handler

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/boddenberg/gst-copilot-bfa-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LanguageSource returns the current UI language.
type LanguageSource interface {
	Language(ctx context.Context) domain.Language
}

// ContentLanguage stamps every API response with the stored preference.
func ContentLanguage(src LanguageSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Language", string(src.Language(r.Context())))
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a token bucket per client address. A non-positive rate
// disables limiting.
func RateLimit(perSecond float64, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}

	type bucket struct {
		lim  *rate.Limiter
		seen time.Time
	}
	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		idleTTL = 5 * time.Minute
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		b, ok := buckets[key]
		if !ok {
			// New client: drop the idle ones first.
			for k, old := range buckets {
				if now.Sub(old.seen) > idleTTL {
					delete(buckets, k)
				}
			}
			b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
			buckets[key] = b
		}
		b.seen = now
		return b.lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiterFor(key).Allow() {
				logger.Warn("rate limit exceeded", zap.String("client", key), zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey is the caller's IP. RealIP has already applied proxy headers.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
