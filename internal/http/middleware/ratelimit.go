package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is the fixed-window counter behind the login, registration and
// form-submission limits.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// RateLimiter counts in process memory. Production wires the Redis-backed
// implementation so limits hold across instances; this one backs tests and
// single-instance deployments.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*countWindow
}

type countWindow struct {
	count int
	until time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*countWindow)}
}

func (r *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	w, ok := r.windows[key]
	if !ok || now.After(w.until) {
		r.windows[key] = &countWindow{count: 1, until: now.Add(window)}
		return true
	}
	if w.count >= limit {
		return false
	}
	w.count++
	return true
}

// RateLimit wraps a handler with a per-key fixed-window limit. An empty key or
// a nil limiter lets the request through.
func RateLimit(limiter Limiter, keyFn func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(key, limit, window) {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
