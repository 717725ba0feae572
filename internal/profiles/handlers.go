package profiles

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"

	"github.com/rvahub/localspot/internal/botguard"
	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
	"github.com/rvahub/localspot/internal/traces"
)

// CookieName is the long-lived profile cookie
const CookieName = "profile_id"

// cookieMaxAge keeps the profile cookie for a year
const cookieMaxAge = 365 * 24 * 60 * 60

// Handler serves profile endpoints
type Handler struct {
	service      *Service
	guard        *botguard.Guard
	secureCookie bool
}

// NewHandler creates a profile handler. secureCookie should be true in
// production so the cookie only travels over TLS.
func NewHandler(service *Service, guard *botguard.Guard, secureCookie bool) *Handler {
	return &Handler{service: service, guard: guard, secureCookie: secureCookie}
}

// RegisterWriteRoutes registers the guarded creation endpoint
func (h *Handler) RegisterWriteRoutes(r gin.IRoutes) {
	r.POST("/profiles", h.Create)
}

// RegisterProfileRoutes registers endpoints that require the profile cookie
func (h *Handler) RegisterProfileRoutes(r gin.IRoutes) {
	r.GET("/profiles/me", h.Me)
}

// CreateProfileRequest is the profile creation payload
type CreateProfileRequest struct {
	Nickname   string `json:"nickname"`
	Honeypot   string `json:"honeypot"`
	MathToken  string `json:"mathToken"`
	MathAnswer *int   `json:"mathAnswer"`
}

// Create handles POST /v1/profiles. On success the profile ID is set as
// an httpOnly cookie that subsequent favorite calls identify by.
func (h *Handler) Create(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "profiles.Create")
	defer span.End()

	if !botguard.CheckHoneypot(req.Honeypot) {
		metrics.HoneypotRejectionsTotal.Inc()
		span.SetStatus(codes.Error, "honeypot rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission"})
		return
	}

	if req.MathToken == "" || req.MathAnswer == nil {
		span.SetStatus(codes.Error, "challenge missing")
		c.JSON(http.StatusBadRequest, gin.H{"error": "challenge required"})
		return
	}
	if !h.guard.Verify(ctx, req.MathToken, *req.MathAnswer) {
		metrics.ChallengeVerificationsTotal.WithLabelValues("failure").Inc()
		span.SetStatus(codes.Error, "challenge failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid challenge answer"})
		return
	}
	metrics.ChallengeVerificationsTotal.WithLabelValues("success").Inc()

	profile, err := h.service.Create(ctx, req.Nickname)
	if errors.Is(err, ErrNicknameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nickname already taken"})
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile create failed")
		logging.L(ctx).Error("profile create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create profile"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, strconv.FormatInt(profile.ID, 10), cookieMaxAge, "/", "", h.secureCookie, true)

	logging.L(ctx).Info("profile created", "id", profile.ID, "nickname", profile.Nickname)
	c.JSON(http.StatusCreated, gin.H{"success": true, "profile": profile})
}

// Me handles GET /v1/profiles/me
func (h *Handler) Me(c *gin.Context) {
	id, ok := ProfileID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "profile required"})
		return
	}

	profile, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "profile required"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("get profile failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ProfileID extracts the profile cookie from the request
func ProfileID(c *gin.Context) (int64, bool) {
	raw, err := c.Cookie(CookieName)
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// RequireProfile rejects requests without a valid profile cookie
func RequireProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ProfileID(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "profile required, please create a profile first"})
			c.Abort()
			return
		}
		c.Next()
	}
}
