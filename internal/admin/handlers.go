package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
)

// CookieName is the admin session cookie
const CookieName = "admin_session"

// Resetter clears a store's data for the demo reset
type Resetter interface {
	Reset()
}

// Handler serves login, logout, CSV import, and demo reset
type Handler struct {
	sessions     *SessionManager
	businesses   *directory.Service
	resetters    []Resetter
	secureCookie bool
}

// NewHandler creates an admin handler. resetters are cleared in order by
// the demo reset; pass nil when running against Postgres.
func NewHandler(sessions *SessionManager, businesses *directory.Service, secureCookie bool, resetters ...Resetter) *Handler {
	return &Handler{
		sessions:     sessions,
		businesses:   businesses,
		resetters:    resetters,
		secureCookie: secureCookie,
	}
}

// RegisterPublicRoutes registers the login endpoint
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.POST("/admin/login", h.Login)
}

// RegisterAdminRoutes registers endpoints behind RequireAdmin
func (h *Handler) RegisterAdminRoutes(r gin.IRoutes) {
	r.POST("/logout", h.Logout)
	r.POST("/import", h.Import)
	r.POST("/reset-demo", h.ResetDemo)
}

// RequireAdmin rejects requests without a live admin session
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || !h.sessions.Validate(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRequest is the admin login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.sessions.Login(req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		logging.L(c.Request.Context()).Warn("admin login rejected", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, int(SessionTTL.Seconds()), "/", "", h.secureCookie, true)
	logging.L(c.Request.Context()).Info("admin logged in")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout handles POST /v1/admin/logout
func (h *Handler) Logout(c *gin.Context) {
	if token, err := c.Cookie(CookieName); err == nil {
		h.sessions.Logout(token)
	}
	c.SetCookie(CookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Import handles POST /v1/admin/import, reading a CSV upload from the
// "file" form field
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()

	result, err := h.businesses.ImportCSV(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse csv: " + err.Error()})
		return
	}
	if result.Imported == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid businesses found in csv"})
		return
	}

	metrics.BusinessesImportedTotal.Add(float64(result.Imported))
	logging.L(c.Request.Context()).Info("csv import complete", "imported", result.Imported, "skipped", result.Skipped)
	c.JSON(http.StatusOK, gin.H{"success": true, "imported": result.Imported, "skipped": result.Skipped})
}

// ResetDemo handles POST /v1/admin/reset-demo, clearing every in-memory
// store. Postgres deployments reseed with the migrate and seed commands
// instead.
func (h *Handler) ResetDemo(c *gin.Context) {
	if len(h.resetters) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "demo reset is only available in memory mode"})
		return
	}
	for _, r := range h.resetters {
		r.Reset()
	}
	logging.L(c.Request.Context()).Info("demo data reset")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "demo data reset"})
}
