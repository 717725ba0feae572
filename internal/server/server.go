// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rvahub/localspot/internal/admin"
	"github.com/rvahub/localspot/internal/botguard"
	"github.com/rvahub/localspot/internal/config"
	"github.com/rvahub/localspot/internal/deals"
	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/favorites"
	"github.com/rvahub/localspot/internal/health"
	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
	"github.com/rvahub/localspot/internal/profiles"
	"github.com/rvahub/localspot/internal/ratelimit"
	"github.com/rvahub/localspot/internal/realtime"
	"github.com/rvahub/localspot/internal/recommend"
	"github.com/rvahub/localspot/internal/reports"
	"github.com/rvahub/localspot/internal/reviews"
	"github.com/rvahub/localspot/internal/security"
	"github.com/rvahub/localspot/internal/traces"
	"github.com/rvahub/localspot/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	businesses   directory.Store
	signals      directory.SignalSource
	directorySvc *directory.Service
	reviewSvc    *reviews.Service
	profileSvc   *profiles.Service
	favoriteSvc  *favorites.Service
	dealSvc      *deals.Service
	reportSvc    *reports.Service
	resetters    []admin.Resetter
	sessions     *admin.SessionManager
	guard        *botguard.Guard
	guardStore   *botguard.MemoryStore
	rateLimiter  *ratelimit.Limiter
	realtimeHub  *realtime.Hub
	healthReg    *health.Registry
	traceStop    func(context.Context) error
	db           *sql.DB // nil if using in-memory
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set logger)
	for _, opt := range opts {
		opt(s)
	}

	// Context for initialization
	ctx := context.Background()

	var (
		reviewStore   reviews.Store
		profileStore  profiles.Store
		favoriteStore favorites.Store
		dealStore     deals.Store
	)

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))

		businessStore := directory.NewPostgresStore(db)
		if err := businessStore.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate business store", "error", err)
		}
		s.businesses = businessStore
		s.signals = businessStore

		pgReviews := reviews.NewPostgresStore(db)
		if err := pgReviews.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate review store", "error", err)
		}
		reviewStore = pgReviews

		pgProfiles := profiles.NewPostgresStore(db)
		if err := pgProfiles.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate profile store", "error", err)
		}
		profileStore = pgProfiles

		pgFavorites := favorites.NewPostgresStore(db)
		if err := pgFavorites.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate favorite store", "error", err)
		}
		favoriteStore = pgFavorites

		pgDeals := deals.NewPostgresStore(db)
		if err := pgDeals.Migrate(ctx); err != nil {
			s.logger.Warn("failed to migrate deal store", "error", err)
		}
		dealStore = pgDeals
	} else {
		businessStore := directory.NewMemoryStore()
		memReviews := reviews.NewMemoryStore()
		memProfiles := profiles.NewMemoryStore()
		memFavorites := favorites.NewMemoryStore()
		memDeals := deals.NewMemoryStore(businessStore)

		s.businesses = businessStore
		reviewStore = memReviews
		profileStore = memProfiles
		favoriteStore = memFavorites
		dealStore = memDeals

		// The signal snapshot is computed in SQL under Postgres; demo
		// mode aggregates the in-memory stores on the fly.
		s.signals = &memorySignalSource{
			businesses: businessStore,
			reviews:    memReviews,
			deals:      memDeals,
		}

		// Demo reset wipes every in-memory store
		s.resetters = []admin.Resetter{
			businessStore, memReviews, memProfiles, memFavorites, memDeals,
		}

		s.logger.Info("using in-memory storage (demo mode)")
	}

	// Domain services
	s.directorySvc = directory.NewService(s.businesses)
	s.reviewSvc = reviews.NewService(reviewStore, &businessChecker{store: s.businesses})
	s.profileSvc = profiles.NewService(profileStore)
	s.favoriteSvc = favorites.NewService(favoriteStore)
	s.dealSvc = deals.NewService(dealStore)
	s.reportSvc = reports.NewService(s.businesses, reviewStore, dealStore, favoriteStore)

	// Bot mitigation: math challenges and the write rate limiter
	s.guardStore = botguard.NewMemoryStore(cfg.ChallengeSweepInt)
	s.guard = botguard.NewGuard(s.guardStore, cfg.ChallengeTTL)
	s.rateLimiter = ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimitWindow, cfg.RateLimitMax)

	// Admin sessions
	s.sessions = admin.NewSessionManager(cfg.AdminUsername, cfg.AdminPassword)

	// Create realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger)

	// Health checks
	s.healthReg = health.NewRegistry()
	if s.db != nil {
		s.healthReg.Register("database", health.DatabaseChecker(s.db))
	}

	// Tracing (no-op when OTEL_EXPORTER_OTLP_ENDPOINT is unset)
	traceStop, err := traces.Init(ctx, cfg.OTLPEndpoint, s.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.traceStop = traceStop

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "an unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	directoryHandler := directory.NewHandler(s.directorySvc, s.signals)
	reviewHandler := reviews.NewHandler(s.reviewSvc, s.guard, s.realtimeHub)
	profileHandler := profiles.NewHandler(s.profileSvc, s.guard, s.cfg.IsProduction())
	favoriteHandler := favorites.NewHandler(s.favoriteSvc, s.businesses)
	dealHandler := deals.NewHandler(s.dealSvc, s.businesses, s.realtimeHub)
	recommendHandler := recommend.NewHandler(s.signals)
	reportHandler := reports.NewHandler(s.reportSvc)
	botguardHandler := botguard.NewHandler(s.guard)
	adminHandler := admin.NewHandler(s.sessions, s.directorySvc, s.cfg.IsProduction(), s.resetters...)

	// V1 API group
	v1 := s.router.Group("/v1")

	// PUBLIC ROUTES (no cookie or session required)
	directoryHandler.RegisterPublicRoutes(v1)
	reviewHandler.RegisterReadRoutes(v1)
	dealHandler.RegisterPublicRoutes(v1)
	recommendHandler.RegisterRoutes(v1)
	reportHandler.RegisterPublicRoutes(v1)
	botguardHandler.RegisterRoutes(v1)
	adminHandler.RegisterPublicRoutes(v1)

	// GUARDED WRITES (rate limited; honeypot and challenge checks run
	// inside the handlers)
	limited := v1.Group("")
	limited.Use(s.rateLimiter.Middleware())
	{
		reviewHandler.RegisterWriteRoutes(limited)
		profileHandler.RegisterWriteRoutes(limited)
	}

	// PROFILE ROUTES (require the profile cookie)
	profiled := v1.Group("")
	profiled.Use(profiles.RequireProfile())
	{
		profileHandler.RegisterProfileRoutes(profiled)
		favoriteHandler.RegisterRoutes(profiled)
	}

	// ADMIN ROUTES (require a live admin session)
	adminGroup := v1.Group("/admin")
	adminGroup.Use(adminHandler.RequireAdmin())
	{
		directoryHandler.RegisterAdminRoutes(adminGroup)
		dealHandler.RegisterAdminRoutes(adminGroup)
		reportHandler.RegisterAdminRoutes(adminGroup)
		adminHandler.RegisterAdminRoutes(adminGroup)
	}
}

// -----------------------------------------------------------------------------
// Health handlers
// -----------------------------------------------------------------------------

// HealthResponse is the /health payload
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp string            `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	allHealthy, statuses := s.healthReg.CheckAll(ctx)

	checks := make(map[string]string, len(statuses))
	for _, st := range statuses {
		if st.Healthy {
			checks[st.Name] = "healthy"
		} else {
			checks[st.Name] = "unhealthy"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server",
			"port", s.cfg.Port,
			"env", s.cfg.Env,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Export database pool stats while running with Postgres
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, collectors)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop the challenge sweep goroutine
	if s.guardStore != nil {
		s.guardStore.Stop()
		s.logger.Info("challenge store stopped")
	}

	// Flush pending trace spans
	if s.traceStop != nil {
		if err := s.traceStop(ctx); err != nil {
			s.logger.Error("trace shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
