package handlers

import (
	metrics "ledger-api/internal/pkg/telemetry"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetMetrics returns the collected request metrics as JSON.
func GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.List())
}

// PrometheusMetrics exposes metrics in Prometheus exposition format.
func PrometheusMetrics(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
