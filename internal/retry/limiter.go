package retry

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter optionally throttles retry attempts in addition to their
// exponential backoff, useful when a provider's rate limit is known ahead
// of time and pacing requests proactively reduces the 429 rate.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter builds a Limiter permitting ratePerSecond requests per
// second with the given burst. A nil *Limiter is valid and does no
// limiting: its Wait returns immediately.
func NewLimiter(ratePerSecond float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or ctx is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
