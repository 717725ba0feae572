package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/logging"
)

// Handler serves report endpoints
type Handler struct {
	service *Service
}

// NewHandler creates a reports handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers the report generation endpoint
func (h *Handler) RegisterPublicRoutes(r gin.IRoutes) {
	r.POST("/reports", h.Generate)
}

// RegisterAdminRoutes registers the CSV export endpoint
func (h *Handler) RegisterAdminRoutes(r gin.IRoutes) {
	r.GET("/export/:type", h.Export)
}

// GenerateRequest selects a report and its filters
type GenerateRequest struct {
	ReportType string  `json:"reportType"`
	Filters    Filters `json:"filters"`
}

// Generate handles POST /v1/reports
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}
	if req.Filters.ExpiryWindow < 0 || req.Filters.ExpiryWindow > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}
	if req.Filters.MinReviews < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}

	ctx := c.Request.Context()
	var results any
	var err error
	switch req.ReportType {
	case "top-rated":
		results, err = h.service.TopRated(ctx, req.Filters)
	case "most-reviewed":
		results, err = h.service.MostReviewed(ctx, req.Filters)
	case "category-dist":
		results, err = h.service.CategoryDistribution(ctx, req.Filters)
	case "expiring-deals":
		results, err = h.service.ExpiringDeals(ctx, req.Filters)
	case "most-favorited":
		results, err = h.service.MostFavorited(ctx, req.Filters)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report type"})
		return
	}
	if err != nil {
		logging.L(ctx).Error("report generation failed", "report", req.ReportType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Export handles GET /v1/admin/export/:type
func (h *Handler) Export(c *gin.Context) {
	exportType := c.Param("type")
	csv, err := h.service.Export(c.Request.Context(), exportType)
	if err != nil {
		if _, known := ExportHeaders[exportType]; !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid export type"})
			return
		}
		logging.L(c.Request.Context()).Error("export failed", "type", exportType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export data"})
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", exportType, time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}
