package reviews

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

// Publisher broadcasts domain events to connected clients
type Publisher interface {
	Publish(event string, payload any)
}

// Handler serves review endpoints. Creation sits behind the abuse guard
// chain: rate limit middleware first, then honeypot, then challenge.
type Handler struct {
	service *Service
	guard   *botguard.Guard
	events  Publisher
}

// NewHandler creates a review handler. events may be nil.
func NewHandler(service *Service, guard *botguard.Guard, events Publisher) *Handler {
	return &Handler{service: service, guard: guard, events: events}
}

// RegisterReadRoutes registers the public listing endpoint
func (h *Handler) RegisterReadRoutes(r gin.IRoutes) {
	r.GET("/businesses/:id/reviews", h.ListByBusiness)
}

// RegisterWriteRoutes registers the guarded submission endpoint
func (h *Handler) RegisterWriteRoutes(r gin.IRoutes) {
	r.POST("/reviews", h.Create)
}

// CreateReviewRequest is the review submission payload. Honeypot and
// challenge fields ride along with the review itself.
type CreateReviewRequest struct {
	BusinessID  int64  `json:"businessId"`
	Rating      int    `json:"rating"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	DisplayName string `json:"displayName"`
	Honeypot    string `json:"honeypot"`
	MathToken   string `json:"mathToken"`
	MathAnswer  *int   `json:"mathAnswer"`
}

// Create handles POST /v1/reviews
func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "reviews.Create",
		traces.BusinessID(req.BusinessID))
	defer span.End()

	// Honeypot rejections look like any other invalid submission
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

	review, err := h.service.Create(ctx, &Review{
		BusinessID:  req.BusinessID,
		Rating:      req.Rating,
		Title:       req.Title,
		Body:        req.Body,
		DisplayName: req.DisplayName,
	})
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "review create failed")
		logging.L(ctx).Error("review create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit review"})
		return
	}

	metrics.ReviewsSubmittedTotal.Inc()
	if h.events != nil {
		h.events.Publish("review_posted", gin.H{
			"businessId": review.BusinessID,
			"rating":     review.Rating,
		})
	}
	logging.L(ctx).Info("review submitted", "business_id", review.BusinessID, "rating", review.Rating)
	c.JSON(http.StatusCreated, gin.H{"success": true, "review": review})
}

// ListByBusiness handles GET /v1/businesses/:id/reviews
func (h *Handler) ListByBusiness(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	list, err := h.service.ListByBusiness(c.Request.Context(), id)
	if err != nil {
		logging.L(c.Request.Context()).Error("list reviews failed", "business_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list, "count": len(list)})
}
