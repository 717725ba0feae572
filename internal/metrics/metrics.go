// Package metrics provides Prometheus instrumentation for the Localspot API.
package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localspot",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "localspot",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// FinderSearchesTotal counts finder searches by input kind.
	FinderSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localspot",
			Name:      "finder_searches_total",
			Help:      "Total finder searches by input kind (search or wizard).",
		},
		[]string{"kind"},
	)

	// ReviewsSubmittedTotal counts accepted review submissions.
	ReviewsSubmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localspot",
		Name:      "reviews_submitted_total",
		Help:      "Total reviews accepted and persisted.",
	})

	// ChallengesIssuedTotal counts math challenges issued.
	ChallengesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localspot",
		Name:      "challenges_issued_total",
		Help:      "Total math challenges issued.",
	})

	// ChallengeVerificationsTotal counts challenge verifications by result.
	ChallengeVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "localspot",
			Name:      "challenge_verifications_total",
			Help:      "Total challenge verification attempts by result (success, failure).",
		},
		[]string{"result"},
	)

	// RateLimitDenialsTotal counts requests denied by the rate limiter.
	RateLimitDenialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localspot",
		Name:      "rate_limit_denials_total",
		Help:      "Total requests denied by the fixed-window rate limiter.",
	})

	// HoneypotRejectionsTotal counts submissions rejected by the honeypot field.
	HoneypotRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localspot",
		Name:      "honeypot_rejections_total",
		Help:      "Total submissions rejected because the honeypot field was filled.",
	})

	// BusinessesImportedTotal counts businesses created via CSV import.
	BusinessesImportedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "localspot",
		Name:      "businesses_imported_total",
		Help:      "Total businesses created through CSV import.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "localspot",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "localspot", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "localspot", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "localspot", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "localspot", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FinderSearchesTotal,
		ReviewsSubmittedTotal,
		ChallengesIssuedTotal,
		ChallengeVerificationsTotal,
		RateLimitDenialsTotal,
		HoneypotRejectionsTotal,
		BusinessesImportedTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// statusBucket collapses status codes into class buckets (2xx, 4xx, ...).
func statusBucket(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

// Handler returns the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
