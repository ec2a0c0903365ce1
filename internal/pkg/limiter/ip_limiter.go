/*
Package limiter provides per-IP rate limiting for the status API.

It keeps one token bucket (rate.Limiter) per client IP address and periodically drops the
buckets of idle clients.
*/
package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"roombot/internal/pkg/errs"
	"roombot/internal/pkg/logx"
	"roombot/internal/pkg/resp"
)

// cleanupInterval is how often idle buckets are removed.
const cleanupInterval = 3 * time.Minute

// IPRateLimiter implements a rate limiter keyed by client IP address.
type IPRateLimiter struct {
	// mu protects concurrent access to the limits map.
	mu sync.RWMutex

	// limits maps a client IP address to its token bucket.
	limits map[string]*rate.Limiter

	// r is the number of events allowed per second.
	r rate.Limit

	// b is the burst size of every bucket.
	b int
}

// NewIPRateLimiter creates and returns a new IPRateLimiter instance. Idle buckets are removed
// until ctx ends.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, b int) *IPRateLimiter {
	i := &IPRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}

	go i.cleanUpVisitors(ctx)

	return i
}

// GetLimiter retrieves the bucket of ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.RLock()
	limiter, exists := i.limits[ip]
	i.mu.RUnlock()

	if exists {
		return limiter
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists = i.limits[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.limits[ip] = limiter
	}
	return limiter
}

// Len returns the number of tracked IP addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.limits)
}

// sweep removes the buckets that are full again, i.e. whose client has been idle.
func (i *IPRateLimiter) sweep(now time.Time) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	count := 0
	for ip, limiter := range i.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(i.limits, ip)
			count++
		}
	}
	return count
}

func (i *IPRateLimiter) cleanUpVisitors(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed := i.sweep(now)
			logx.Debug("Rate limiter cleanup finished", "removed", removed, "active", i.Len())
		}
	}
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !i.GetLimiter(ip).Allow() {
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		next.ServeHTTP(w, r)
	})
}
