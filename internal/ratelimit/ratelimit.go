// Package ratelimit provides fixed-window request throttling for the
// public write endpoints. Counters are keyed by client identifier and
// reset at window boundaries; bursts straddling a boundary are accepted
// imprecision of the fixed-window model.
package ratelimit

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
)

// Defaults match the public form endpoints: 10 writes per minute per client
const (
	DefaultWindow = time.Minute
	DefaultMax    = 10
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed bool
	ResetAt time.Time
}

// Store tracks request counts per key. Hit must perform the
// increment-and-compare atomically so concurrent requests from the same
// client cannot undercount.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error)
}

// Limiter checks clients against a fixed-window counter
type Limiter struct {
	store  Store
	window time.Duration
	max    int
	now    func() time.Time
}

// New creates a limiter. Non-positive window or max fall back to defaults.
func New(store Store, window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if max <= 0 {
		max = DefaultMax
	}
	return &Limiter{store: store, window: window, max: max, now: time.Now}
}

// Check records a hit for key and reports whether it is allowed.
// Store errors fail open so a broken counter cannot take writes down.
func (l *Limiter) Check(ctx context.Context, key string) Decision {
	d, err := l.store.Hit(ctx, key, l.now(), l.window, l.max)
	if err != nil {
		logging.L(ctx).Error("rate limit store failed", "error", err)
		return Decision{Allowed: true, ResetAt: l.now().Add(l.window)}
	}
	return d
}

var sessionCookiePattern = regexp.MustCompile(`session_id=([^;]+)`)

// ClientIdentifier derives the rate limit key from forwarded IP headers
// plus any session cookie fragment. It is a throttling key only, never
// an identity.
func ClientIdentifier(h http.Header) string {
	ip := "unknown"
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	} else if real := h.Get("X-Real-Ip"); real != "" {
		ip = real
	}

	session := ""
	if m := sessionCookiePattern.FindStringSubmatch(h.Get("Cookie")); m != nil {
		session = m[1]
	}
	return ip + "-" + session
}

// Middleware rejects over-quota clients with 429 before the handler runs
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ClientIdentifier(c.Request.Header)
		d := l.Check(c.Request.Context(), key)
		if !d.Allowed {
			metrics.RateLimitDenialsTotal.Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "too many requests",
				"resetAt": d.ResetAt.UTC().Format(time.RFC3339),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
