package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/pkg/response"
)

type metricsSource interface {
	Handler() http.Handler
	Snapshot() models.SystemMetrics
}

// MetricsHandler serves the scrape endpoint, an admin snapshot and liveness.
type MetricsHandler struct {
	source metricsSource
}

func NewMetricsHandler(source metricsSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

// Prometheus streams the exposition format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.source.Handler().ServeHTTP(c.Writer, c.Request)
}

// Internal godoc
// @Summary Internal metrics snapshot
// @Tags Metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /metrics/internal [get]
func (h *MetricsHandler) Internal(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.source.Snapshot(), nil)
}

func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
