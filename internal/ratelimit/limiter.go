package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Source identifies an upstream quote provider.
type Source string

const (
	SourceBrapi        Source = "brapi"
	SourceAlphaVantage Source = "alphavantage"
	SourceCoinGecko    Source = "coingecko"
)

// DefaultIntervals are the minimum spacings between consecutive calls to each provider.
// Alpha Vantage's free tier allows 5 requests per minute.
var DefaultIntervals = map[Source]time.Duration{
	SourceBrapi:        1000 * time.Millisecond,
	SourceAlphaVantage: 12000 * time.Millisecond,
	SourceCoinGecko:    1200 * time.Millisecond,
}

// Limiter enforces a minimum interval between calls per source.
// It is safe for concurrent use; the first call for a source never waits.
type Limiter struct {
	limiters map[Source]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a limiter with the given per-source intervals.
// A non-positive interval disables limiting for that source.
func New(intervals map[Source]time.Duration) *Limiter {
	l := &Limiter{limiters: make(map[Source]*rate.Limiter, len(intervals))}
	for src, d := range intervals {
		if d <= 0 {
			l.limiters[src] = rate.NewLimiter(rate.Inf, 1)
			continue
		}
		l.limiters[src] = rate.NewLimiter(rate.Every(d), 1)
	}
	return l
}

// NewDefault creates a limiter using DefaultIntervals.
func NewDefault() *Limiter {
	return New(DefaultIntervals)
}

// Unlimited creates a limiter that never waits.
func Unlimited() *Limiter {
	return &Limiter{limiters: make(map[Source]*rate.Limiter)}
}

// Wait blocks until a call to source is permitted and records it.
// It returns an error if ctx is done first.
func (l *Limiter) Wait(ctx context.Context, source Source) error {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if !exists {
		return ctx.Err()
	}

	return limiter.Wait(ctx)
}

// Interval returns the configured spacing for source, zero when unlimited.
func (l *Limiter) Interval(source Source) time.Duration {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if !exists || limiter.Limit() == rate.Inf {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limiter.Limit()))
}
