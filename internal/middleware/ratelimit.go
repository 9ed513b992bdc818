package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// rateLimitEntry tracks request counts for a single IP within a time window.
type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// rateLimiter is a fixed-window counter per client IP.
type rateLimiter struct {
	mu          sync.Mutex
	entries     map[string]*rateLimitEntry
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// allow records one request from ip and reports whether it is within the
// limit. When it is not, retryAfter is the time left in the window.
func (l *rateLimiter) allow(ip string) (ok bool, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[ip]
	if !exists || now.Sub(entry.windowStart) >= l.window {
		l.entries[ip] = &rateLimitEntry{count: 1, windowStart: now}
		return true, 0
	}

	entry.count++
	if entry.count > l.maxRequests {
		return false, l.window - now.Sub(entry.windowStart)
	}
	return true, 0
}

// sweep drops entries whose window ended long ago.
func (l *rateLimiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.entries {
		if now.Sub(entry.windowStart) > l.window*2 {
			delete(l.entries, ip)
		}
	}
}

// sweepInterval is how often stale rate limit entries are dropped.
const sweepInterval = time.Minute

// runSweeper sweeps every interval until ctx is done.
func (l *rateLimiter) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window. Returns 429 with Retry-After when exceeded.
// The cleanup goroutine stops when ctx is done.
func RateLimit(ctx context.Context, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	l := &rateLimiter{
		entries:     make(map[string]*rateLimitEntry),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
	go l.runSweeper(ctx, sweepInterval)
	return l.middleware
}

func (l *rateLimiter) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ok, retryAfter := l.allow(c.RealIP())
		if ok {
			return next(c)
		}

		seconds := int(retryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(seconds))
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error":   http.StatusText(http.StatusTooManyRequests),
			"message": "Rate limit exceeded. Please try again later.",
		})
	}
}
