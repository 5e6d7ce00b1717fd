// Package clock abstracts wall-clock time so escrow retention, credential
// expiry, and cache TTL logic can be tested against a fixed instant instead
// of racing the real clock.
package clock

import "time"

// Clock returns the current time. Production code uses SystemClock; tests
// use a FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reports the real wall-clock time.
type SystemClock struct{}

// NewSystemClock returns a Clock backed by time.Now.
func NewSystemClock() Clock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant, for deterministic tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }
