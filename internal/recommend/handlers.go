package recommend

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
	"github.com/rvahub/localspot/internal/query"
	"github.com/rvahub/localspot/internal/traces"
)

const maxResults = 20

// Handler serves the finder endpoint
type Handler struct {
	signals directory.SignalSource
}

// NewHandler creates a finder handler over a signal source
func NewHandler(signals directory.SignalSource) *Handler {
	return &Handler{signals: signals}
}

// RegisterRoutes registers the finder endpoint
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/finder", h.Find)
}

// FindRequest is the finder payload. A "search" request carries free text;
// a "wizard" request carries pre-built filters.
type FindRequest struct {
	Type    string         `json:"type"`
	Query   string         `json:"query"`
	Filters *query.Filters `json:"filters"`
}

// FindResult is one ranked business merged with display data
type FindResult struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Neighborhood string   `json:"neighborhood"`
	Address      string   `json:"address"`
	AvgRating    float64  `json:"avgRating"`
	ReviewCount  int      `json:"reviewCount"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
}

// Find handles POST /v1/finder
func (h *Handler) Find(c *gin.Context) {
	var req FindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var filters query.Filters
	switch {
	case req.Type == "search" && req.Query != "":
		filters = query.Parse(req.Query)
	case req.Type == "wizard" && req.Filters != nil:
		filters = *req.Filters
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	metrics.FinderSearchesTotal.WithLabelValues(req.Type).Inc()

	ctx, span := traces.StartSpan(c.Request.Context(), "recommend.Find",
		attribute.String("finder.type", req.Type),
		traces.Category(filters.Category), traces.Neighborhood(filters.Neighborhood))
	defer span.End()

	// Category and neighborhood are hard filters applied before scoring
	signals, err := h.signals.Signals(ctx, directory.SignalFilter{
		Category:     filters.Category,
		Neighborhood: filters.Neighborhood,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "signal query failed")
		logging.L(ctx).Error("finder signal query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search businesses"})
		return
	}

	byID := make(map[int64]directory.Signal, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}

	scored := Score(filters, signals)
	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}

	results := make([]FindResult, 0, len(scored))
	for _, sr := range scored {
		s, ok := byID[sr.BusinessID]
		if !ok {
			continue
		}
		results = append(results, FindResult{
			ID:           s.ID,
			Name:         s.Name,
			Category:     s.Category,
			Neighborhood: s.Neighborhood,
			Address:      s.Address,
			AvgRating:    s.AvgRating,
			ReviewCount:  s.ReviewCount,
			Score:        sr.Score,
			Reasons:      sr.Reasons,
		})
	}

	span.SetAttributes(attribute.Int("finder.results", len(results)))
	c.JSON(http.StatusOK, gin.H{"results": results})
}
