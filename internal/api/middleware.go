package api

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Recovery returns a middleware that recovers from panics, logs the stack trace,
// and returns a 500 to the client so the server continues serving.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger.Error("panic recovered",
					"panic", r,
					"stack", string(stack),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status": "error",
					"error":  "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// OTEL returns a middleware that starts a server span per request.
func OTEL(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// RequestLogger returns a middleware that emits a structured slog line for
// every request. Orchestrator polling of /health and /ready logs at DEBUG.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if isProbePath(c.FullPath()) && c.Writer.Status() < http.StatusInternalServerError {
			level = slog.LevelDebug
		}
		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

func isProbePath(route string) bool {
	return route == "/health" || route == "/ready"
}
