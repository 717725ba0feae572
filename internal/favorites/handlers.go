package favorites

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/profiles"
)

// Handler serves favorite endpoints. All routes require the profile cookie.
type Handler struct {
	service    *Service
	businesses directory.Store
}

// NewHandler creates a favorites handler
func NewHandler(service *Service, businesses directory.Store) *Handler {
	return &Handler{service: service, businesses: businesses}
}

// RegisterRoutes registers favorite endpoints on a profile-gated group
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/favorites", h.List)
	r.POST("/favorites", h.Add)
	r.DELETE("/favorites", h.Remove)
}

// Add handles POST /v1/favorites
func (h *Handler) Add(c *gin.Context) {
	profileID, _ := profiles.ProfileID(c)

	var req struct {
		BusinessID int64 `json:"businessId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.BusinessID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	if _, err := h.businesses.Get(c.Request.Context(), req.BusinessID); err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
			return
		}
		logging.L(c.Request.Context()).Error("favorite business lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}

	err := h.service.Add(c.Request.Context(), profileID, req.BusinessID)
	if errors.Is(err, ErrAlreadyFavorited) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "already favorited"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("add favorite failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Remove handles DELETE /v1/favorites?businessId=N
func (h *Handler) Remove(c *gin.Context) {
	profileID, _ := profiles.ProfileID(c)

	businessID, err := strconv.ParseInt(c.Query("businessId"), 10, 64)
	if err != nil || businessID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	if err := h.service.Remove(c.Request.Context(), profileID, businessID); err != nil {
		logging.L(c.Request.Context()).Error("remove favorite failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// List handles GET /v1/favorites, returning saved businesses
func (h *Handler) List(c *gin.Context) {
	profileID, _ := profiles.ProfileID(c)

	favs, err := h.service.ListByProfile(c.Request.Context(), profileID)
	if err != nil {
		logging.L(c.Request.Context()).Error("list favorites failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
		return
	}

	businesses := make([]*directory.Business, 0, len(favs))
	for _, f := range favs {
		b, err := h.businesses.Get(c.Request.Context(), f.BusinessID)
		if errors.Is(err, directory.ErrNotFound) {
			continue
		}
		if err != nil {
			logging.L(c.Request.Context()).Error("favorite business lookup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
			return
		}
		businesses = append(businesses, b)
	}
	c.JSON(http.StatusOK, gin.H{"businesses": businesses, "count": len(businesses)})
}
