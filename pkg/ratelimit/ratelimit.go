package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter spaces operations to a fixed rate with optional positive jitter.
// The zero-rate Limiter never blocks.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64
	interval time.Duration
}

// NewLimiter allows rps operations per second. jitter, clamped to [0, 1],
// adds up to jitter*interval of random extra wait after each tick.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	if rps <= 0 {
		return &Limiter{jitter: jitter}
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		jitter:   jitter,
		interval: interval,
	}
}

// Wait blocks until the next slot or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ticker == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	if l.jitter > 0 {
		// Ticks already enforce the minimum spacing, so only positive
		// jitter changes anything.
		extra := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
		return Pause(ctx, extra)
	}
	return nil
}

// Stop releases the ticker.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}

// Pause sleeps for d unless ctx is done first. A non-positive d returns
// immediately with ctx's error, if any.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
