package deals

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/logging"
)

// Publisher broadcasts domain events to connected clients
type Publisher interface {
	Publish(event string, payload any)
}

// Handler serves deal endpoints
type Handler struct {
	service    *Service
	businesses directory.Store
	events     Publisher
}

// NewHandler creates a deals handler. events may be nil.
func NewHandler(service *Service, businesses directory.Store, events Publisher) *Handler {
	return &Handler{service: service, businesses: businesses, events: events}
}

// RegisterPublicRoutes registers the public active-deals listing
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/deals", h.ListActive)
}

// RegisterAdminRoutes registers the management endpoints
func (h *Handler) RegisterAdminRoutes(r gin.IRoutes) {
	r.GET("/deals", h.ListAll)
	r.POST("/deals", h.Create)
	r.PUT("/deals/:id", h.Update)
	r.DELETE("/deals/:id", h.Delete)
}

// ListActive handles GET /v1/deals
func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("list active deals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deals"})
		return
	}
	if list == nil {
		list = []*ActiveDeal{}
	}
	c.JSON(http.StatusOK, gin.H{"deals": list, "count": len(list)})
}

// ListAll handles GET /v1/admin/deals
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.service.Store().List(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("list deals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list deals"})
		return
	}
	if list == nil {
		list = []*Deal{}
	}
	c.JSON(http.StatusOK, gin.H{"deals": list, "count": len(list)})
}

// DealRequest is the create/update payload. isActive defaults to true
// when omitted; expiresOn accepts RFC 3339.
type DealRequest struct {
	BusinessID  int64      `json:"businessId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CouponCode  string     `json:"couponCode"`
	ExpiresOn   *time.Time `json:"expiresOn"`
	IsActive    *bool      `json:"isActive"`
}

func (r DealRequest) toDeal(id int64) *Deal {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &Deal{
		ID:          id,
		BusinessID:  r.BusinessID,
		Title:       r.Title,
		Description: r.Description,
		CouponCode:  r.CouponCode,
		ExpiresOn:   r.ExpiresOn,
		IsActive:    active,
	}
}

// Create handles POST /v1/admin/deals
func (h *Handler) Create(c *gin.Context) {
	var req DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.businesses.Get(c.Request.Context(), req.BusinessID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
			return
		}
		logging.L(c.Request.Context()).Error("deal business lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create deal"})
		return
	}

	deal, err := h.service.Create(c.Request.Context(), req.toDeal(0))
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("create deal failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create deal"})
		return
	}

	if h.events != nil && deal.Active(time.Now()) {
		h.events.Publish("deal_published", gin.H{"businessId": deal.BusinessID, "title": deal.Title})
	}
	logging.L(c.Request.Context()).Info("deal created", "id", deal.ID, "business_id", deal.BusinessID)
	c.JSON(http.StatusCreated, deal)
}

// Update handles PUT /v1/admin/deals/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal id"})
		return
	}

	var req DealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	deal, err := h.service.Update(c.Request.Context(), req.toDeal(id))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("update deal failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update deal"})
		return
	}
	c.JSON(http.StatusOK, deal)
}

// Delete handles DELETE /v1/admin/deals/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deal id"})
		return
	}

	err = h.service.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "deal not found"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("delete deal failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete deal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
