// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter counts events per key over a fixed window. Safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

// New creates a limiter allowing at most limit events per key per window.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
	go l.sweep()
	return l
}

// Allow records an attempt for key and reports whether it is within
// the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// Reset forgets all attempts for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops expired buckets so the map does not grow unbounded.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := l.now()
		for key, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP returns the caller's address, honoring X-Forwarded-For and
// X-Real-IP when the app sits behind a proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SigninLimiter throttles credential checks per source IP and per
// account email, so neither a single host nor a single mailbox can be
// hammered.
type SigninLimiter struct {
	byIP    *Limiter
	byEmail *Limiter
}

// NewSigninLimiter returns a limiter with the default policy:
// 10 attempts per IP per minute, 5 attempts per email per 5 minutes.
func NewSigninLimiter() *SigninLimiter {
	return &SigninLimiter{
		byIP:    New(10, time.Minute),
		byEmail: New(5, 5*time.Minute),
	}
}

// Allow reports whether a signin attempt from this request for this
// email may proceed.
func (s *SigninLimiter) Allow(r *http.Request, email string) bool {
	if !s.byIP.Allow(ClientIP(r)) {
		return false
	}
	if email != "" {
		return s.byEmail.Allow(strings.ToLower(strings.TrimSpace(email)))
	}
	return true
}

// Forgive clears the per-email window after a successful signin.
func (s *SigninLimiter) Forgive(email string) {
	if email != "" {
		s.byEmail.Reset(strings.ToLower(strings.TrimSpace(email)))
	}
}
