package server

import (
	"context"
	"net/http"
	"time"

	"barbershop/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func(ctx context.Context) error

type HealthStatus struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} server.HealthStatus
// @Failure      503 {object} server.HealthStatus
// @Router       /health [get]
func Health(check HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check == nil {
			c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := check(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthStatus{Status: "unavailable", Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
	}
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
