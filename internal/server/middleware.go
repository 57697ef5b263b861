package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ppiankov/inclusify/internal/logging"
)

var quietPaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// requestLogger logs each request and records its metrics. 5xx log at
// error level, 4xx at warn.
func requestLogger(logger logging.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		metrics.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.duration.WithLabelValues(route).Observe(duration.Seconds())

		if quietPaths[c.Request.URL.Path] && status < 400 {
			return
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", c.Writer.Size()),
			logging.String("remote_addr", c.ClientIP()),
		}
		switch {
		case status >= 500:
			logger.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			logger.Warn("HTTP request completed with client error", fields...)
		default:
			logger.Info("HTTP request completed", fields...)
		}
	}
}

// rateLimit rejects requests beyond the shared token bucket with 429.
// Health and metrics endpoints are exempt.
func rateLimit(limiter *rate.Limiter, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if quietPaths[c.Request.URL.Path] || limiter.Allow() {
			c.Next()
			return
		}
		metrics.rateLimited.Inc()
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
	}
}
