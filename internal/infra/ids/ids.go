// Package ids generates transaction identifiers.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ULID hands out monotonic, lexicographically sortable identifiers. Two ids
// minted in the same millisecond still sort in creation order.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewULID returns a generator seeded from the wall clock.
func NewULID() *ULID {
	return &ULID{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

// NewID returns a fresh identifier.
func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}
