// Package platform holds the small collaborators injected into the stores:
// a clock and an id generator.
package platform

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the wall clock in local time.
func SystemClock() time.Time {
	return time.Now()
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// IDGenerator produces globally unique opaque ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues UUIDv7 ids, which combine a millisecond timestamp
// with random bits.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SequenceGenerator issues prefix-1, prefix-2, ... and is safe for
// concurrent use. Handy for deterministic fixtures.
type SequenceGenerator struct {
	Prefix string
	mu     sync.Mutex
	n      int
}

func (g *SequenceGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, g.n)
}
