package botguard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rvahub/localspot/internal/logging"
	"github.com/rvahub/localspot/internal/metrics"
)

// Handler serves challenge issuance
type Handler struct {
	guard *Guard
}

// NewHandler creates a challenge handler
func NewHandler(guard *Guard) *Handler {
	return &Handler{guard: guard}
}

// RegisterRoutes registers the challenge endpoint
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/challenge", h.Issue)
}

// Issue handles GET /v1/challenge. The answer stays server-side; clients
// get the puzzle text and a single-use token.
func (h *Handler) Issue(c *gin.Context) {
	text, token, err := h.guard.Issue(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("challenge issue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate challenge"})
		return
	}
	metrics.ChallengesIssuedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"challenge": text, "token": token})
}
