// Package throttle limits how often a single client may attempt to log in.
package throttle

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call. RetryAfter is set only when
// the attempt is refused.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts attempts per key (the client address).
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func allowed() Decision { return Decision{Allowed: true} }

func denied(retryAfter time.Duration) Decision {
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return Decision{RetryAfter: retryAfter}
}
