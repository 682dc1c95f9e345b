// Package ratelimit bounds the outbound request rate shared by all
// workers with a token bucket.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token bucket configured in requests per minute. One
// token is one outbound API call; Acquire suspends the calling worker
// until the bucket allows another call.
type Limiter struct {
	bucket   *rate.Limiter
	requests atomic.Int64
	started  time.Time
}

// New creates a Limiter allowing rpm requests per minute with the given
// burst capacity. A burst below 1 is raised to 1.
func New(rpm, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	r := rate.Limit(float64(rpm) / 60.0)
	return &Limiter{
		bucket:  rate.NewLimiter(r, burst),
		started: time.Now(),
	}
}

// Acquire blocks until a token is available or ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.bucket.Wait(ctx); err != nil {
		return err
	}
	l.requests.Add(1)
	return nil
}

// Allow reports whether a call may proceed right now, without waiting.
// It consumes a token when it returns true.
func (l *Limiter) Allow() bool {
	if !l.bucket.Allow() {
		return false
	}
	l.requests.Add(1)
	return true
}

// Stats describes limiter activity since creation.
type Stats struct {
	Requests int64   `json:"requests"`
	Elapsed  float64 `json:"elapsed_seconds"`
	// EffectiveRPM is the observed request rate over the whole run
	EffectiveRPM float64 `json:"effective_rpm"`
}

// Stats returns a snapshot of limiter activity.
func (l *Limiter) Stats() Stats {
	elapsed := time.Since(l.started).Seconds()
	n := l.requests.Load()
	s := Stats{Requests: n, Elapsed: elapsed}
	if elapsed > 0 {
		s.EffectiveRPM = float64(n) / elapsed * 60.0
	}
	return s
}
