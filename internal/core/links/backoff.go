package links

import (
	"math/rand/v2"
	"time"
)

const backoffMultiplier = 2

// JitterFunc returns a random duration in [0, limit).
type JitterFunc func(limit time.Duration) time.Duration

// RandomJitter is the default JitterFunc.
func RandomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}

	return rand.N(limit)
}

// Backoff is the bounded retry state of a single rate-limited call.
// Each call owns its own Backoff; nothing is shared between requests.
type Backoff struct {
	attempt     int
	maxRetries  int
	defaultWait time.Duration
	maxJitter   time.Duration
	jitter      JitterFunc
}

// NewBackoff creates a retry state allowing maxRetries retries after HTTP 429.
func NewBackoff(maxRetries int, defaultWait, maxJitter time.Duration, jitter JitterFunc) *Backoff {
	if maxRetries < 0 {
		maxRetries = 0
	}

	if jitter == nil {
		jitter = RandomJitter
	}

	return &Backoff{
		maxRetries:  maxRetries,
		defaultWait: defaultWait,
		maxJitter:   maxJitter,
		jitter:      jitter,
	}
}

// Next returns the wait before the next retry. suggested is the upstream hint
// (Retry-After); zero means use the default. It returns false once the budget is spent.
func (b *Backoff) Next(suggested time.Duration) (time.Duration, bool) {
	if b.attempt >= b.maxRetries {
		return 0, false
	}

	wait := suggested
	if wait <= 0 {
		wait = b.defaultWait
	}

	for i := 0; i < b.attempt; i++ {
		wait *= backoffMultiplier
	}

	b.attempt++

	return wait + b.jitter(b.maxJitter), true
}

// Attempt returns the number of retries granted so far.
func (b *Backoff) Attempt() int {
	return b.attempt
}

// Remaining returns how many retries are still allowed.
func (b *Backoff) Remaining() int {
	return b.maxRetries - b.attempt
}
