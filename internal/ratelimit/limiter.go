// Package ratelimit provides token bucket rate limiting for the MCP tools and
// the HTTP control endpoints that drive a simulation.
package ratelimit

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// ErrRateLimited is wrapped by every rejection so callers can map it to a
// transport-specific response.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // bucket capacity and initial fill
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow takes one token from key's bucket and reports whether one was
// available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b := l.refillLocked(key, now)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// Tokens returns the tokens currently available to key.
func (l *Limiter) Tokens(key string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refillLocked(key, l.nowFunc()).tokens
}

func (l *Limiter) refillLocked(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.last = now
	}
	return b
}

// ToolLimiters maps tool or endpoint names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the default limits for the simulation tools.
// Reads are cheap and get generous buckets; resets restart a run and are
// kept scarce.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"sim_step":     NewLimiter(2.0, 20),      // 120/minute, burst 20
		"sim_snapshot": NewLimiter(5.0, 30),      // 300/minute, burst 30
		"sim_summary":  NewLimiter(1.0, 10),      // 60/minute, burst 10
		"sim_toggle":   NewLimiter(1.0, 5),       // 60/minute, burst 5
		"sim_reset":    NewLimiter(20.0/60.0, 3), // 20/minute, burst 3
	}
}

// CheckLimit checks the limit for name. Names without a limiter always pass.
func CheckLimit(limiters ToolLimiters, name string) error {
	return CheckKey(limiters, name, name)
}

// CheckKey checks the limit for name using a caller-chosen bucket key, e.g.
// the client address.
func CheckKey(limiters ToolLimiters, name, key string) error {
	limiter, ok := limiters[name]
	if !ok {
		return nil
	}
	if !limiter.Allow(key) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, name)
	}
	return nil
}

// Middleware limits next per client host under name. Rejected requests get
// 429 Too Many Requests with a Retry-After hint.
func Middleware(limiters ToolLimiters, name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := CheckKey(limiters, name, clientKey(r)); err != nil {
			w.Header().Set("Retry-After", "1")
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
