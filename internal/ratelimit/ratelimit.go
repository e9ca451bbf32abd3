// Package ratelimit is a fixed-window in-memory request limiter, adapted
// directly from server/ratelimit.go's inMemoryRateLimiter: same
// reset-on-window-expiry shape, keyed here on the bearer token's caller ID
// rather than a Mattermost-User-ID header.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

type entry struct {
	windowStart time.Time
	count       int
}

// Limiter is a per-caller fixed-window rate limiter.
type Limiter struct {
	mu          sync.Mutex
	requests    map[string]entry
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// New builds a Limiter allowing maxRequests per window.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		requests:    make(map[string]entry),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow reports whether callerID may make another request in the current
// window, incrementing its count as a side effect. An empty callerID
// (unauthenticated request, handled by separate auth middleware) is always
// allowed.
func (l *Limiter) Allow(callerID string) bool {
	if callerID == "" {
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.requests[callerID]
	if !exists || now.Sub(e.windowStart) >= l.window {
		l.requests[callerID] = entry{windowStart: now, count: 1}
		return true
	}

	if e.count >= l.maxRequests {
		return false
	}

	e.count++
	l.requests[callerID] = e
	return true
}

// Middleware enforces the limiter against the caller ID the auth
// middleware attached to the request context.
func Middleware(limiter *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID := CallerIDFromContext(r.Context())
			if !limiter.Allow(callerID) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
