package directory

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/logging"
)

// Handler exposes business endpoints over HTTP
type Handler struct {
	service *Service
	signals SignalSource
}

// NewHandler creates a business handler. The signal source supplies the
// rating aggregates shown on browse rows and backing the rating/review sorts.
func NewHandler(service *Service, signals SignalSource) *Handler {
	return &Handler{service: service, signals: signals}
}

// RegisterPublicRoutes registers the browse endpoints
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.GET("/businesses", h.List)
	r.GET("/businesses/:id", h.Get)
}

// RegisterAdminRoutes registers the management endpoints. The caller is
// expected to mount these behind admin authentication.
func (h *Handler) RegisterAdminRoutes(r gin.IRoutes) {
	r.POST("/businesses", h.Create)
	r.PUT("/businesses/:id", h.Update)
	r.DELETE("/businesses/:id", h.Delete)
}

// ListedBusiness is a browse row: the business plus its review aggregates
type ListedBusiness struct {
	*Business
	AvgRating   float64 `json:"avgRating"`
	ReviewCount int     `json:"reviewCount"`
}

// List handles GET /v1/businesses. Sort accepts name (default), newest,
// rating, and reviews; the rating/review orders come from the signal
// aggregates, so those fetch the full filtered set and page afterwards.
func (h *Handler) List(c *gin.Context) {
	opts := ListOptions{
		Category:     c.Query("category"),
		Neighborhood: c.Query("neighborhood"),
		Search:       c.Query("search"),
		Sort:         c.Query("sort"),
		Limit:        intQuery(c, "limit", 50),
		Offset:       intQuery(c, "offset", 0),
	}
	if opts.Limit < 1 || opts.Limit > 200 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	ctx := c.Request.Context()
	statSort := opts.Sort == "rating" || opts.Sort == "reviews"

	storeOpts := opts
	if statSort {
		// Name order from the store keeps ties deterministic after the
		// stable stat sort below.
		storeOpts.Sort = "name"
		storeOpts.Limit = 0
		storeOpts.Offset = 0
	}

	businesses, err := h.service.List(ctx, storeOpts)
	if err != nil {
		logging.L(ctx).Error("list businesses failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list businesses"})
		return
	}

	signals, err := h.signals.Signals(ctx, SignalFilter{
		Category:     opts.Category,
		Neighborhood: opts.Neighborhood,
	})
	if err != nil {
		logging.L(ctx).Error("load business signals failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list businesses"})
		return
	}
	stats := make(map[int64]Signal, len(signals))
	for _, sig := range signals {
		stats[sig.ID] = sig
	}

	rows := make([]*ListedBusiness, 0, len(businesses))
	for _, b := range businesses {
		rows = append(rows, &ListedBusiness{
			Business:    b,
			AvgRating:   stats[b.ID].AvgRating,
			ReviewCount: stats[b.ID].ReviewCount,
		})
	}

	if statSort {
		byRating := opts.Sort == "rating"
		sort.SliceStable(rows, func(i, j int) bool {
			if byRating && rows[i].AvgRating != rows[j].AvgRating {
				return rows[i].AvgRating > rows[j].AvgRating
			}
			return rows[i].ReviewCount > rows[j].ReviewCount
		})
		rows = pageRows(rows, opts.Offset, opts.Limit)
	}

	c.JSON(http.StatusOK, gin.H{"businesses": rows, "count": len(rows)})
}

func pageRows(rows []*ListedBusiness, offset, limit int) []*ListedBusiness {
	if offset >= len(rows) {
		return []*ListedBusiness{}
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// Get handles GET /v1/businesses/:id
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	business, err := h.service.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("get business failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get business"})
		return
	}
	c.JSON(http.StatusOK, business)
}

// CreateBusinessRequest is the payload for creating or updating a business
type CreateBusinessRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Neighborhood string `json:"neighborhood" binding:"required"`
	Address      string `json:"address" binding:"required"`
	Phone        string `json:"phone"`
	Website      string `json:"website"`
	Description  string `json:"description"`
	Tags         string `json:"tags"`
}

// Create handles POST /v1/admin/businesses
func (h *Handler) Create(c *gin.Context) {
	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	business, err := h.service.Create(c.Request.Context(), &Business{
		Name:         req.Name,
		Category:     req.Category,
		Neighborhood: req.Neighborhood,
		Address:      req.Address,
		Phone:        req.Phone,
		Website:      req.Website,
		Description:  req.Description,
		TagsCSV:      req.Tags,
	})
	if errors.Is(err, ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("create business failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create business"})
		return
	}

	logging.L(c.Request.Context()).Info("business created", "id", business.ID, "name", business.Name)
	c.JSON(http.StatusCreated, business)
}

// Update handles PUT /v1/admin/businesses/:id
func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	business, err := h.service.Update(c.Request.Context(), &Business{
		ID:           id,
		Name:         req.Name,
		Category:     req.Category,
		Neighborhood: req.Neighborhood,
		Address:      req.Address,
		Phone:        req.Phone,
		Website:      req.Website,
		Description:  req.Description,
		TagsCSV:      req.Tags,
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
		logging.L(c.Request.Context()).Error("update business failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update business"})
		return
	}
	c.JSON(http.StatusOK, business)
}

// Delete handles DELETE /v1/admin/businesses/:id
func (h *Handler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid business id"})
		return
	}

	err = h.service.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "business not found"})
		return
	}
	if err != nil {
		logging.L(c.Request.Context()).Error("delete business failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete business"})
		return
	}

	logging.L(c.Request.Context()).Info("business deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
