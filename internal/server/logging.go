package server

import (
	"strings"
	"time"

	"barbershop/internal/logger"

	"github.com/gin-gonic/gin"
)

var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// RequestLoggingMiddleware writes one structured line per request.
// Server errors are logged at error level, client errors at warn.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if quietPaths[path] || strings.HasPrefix(path, "/swagger/") {
			return
		}

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if ref := txRefFromQuery(c); ref != "" {
			args = append(args, "tx_ref", ref)
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", args...)
		case status >= 400:
			logger.Warn("HTTP request", args...)
		default:
			logger.Info("HTTP request", args...)
		}
	}
}

// txRefFromQuery picks up the reference the gateway and return page put in the query string.
func txRefFromQuery(c *gin.Context) string {
	if ref := c.Query("tx_ref"); ref != "" {
		return ref
	}
	return c.Query("trx_ref")
}
