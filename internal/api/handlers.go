package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"vivbliss/mongo-init/internal/orchestrator"

	"github.com/gin-gonic/gin"
)

// orchestratorService is the subset of *orchestrator.Orchestrator used by the
// HTTP handlers. Declaring it as an interface allows test doubles to be injected.
type orchestratorService interface {
	StartBootstrap() (func(context.Context) (*orchestrator.Result, error), error)
	RunDeepHealth(ctx context.Context) map[string]orchestrator.ProbeResult
	IsReady() bool
	IsBootstrapInProgress() bool
	LastResult() *orchestrator.Result
}

// Handler holds the dependencies shared across all HTTP handlers.
type Handler struct {
	orchestrator     orchestratorService
	bootstrapTimeout time.Duration
	logger           *slog.Logger
}

func (h *Handler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

// Bootstrap handles POST /api/v1/bootstrap.
// It returns 202 when a run is started and 409 if one is already in progress.
// The slot is claimed before responding; the run itself happens in a
// background goroutine bounded by bootstrapTimeout, and its outcome is read
// back through GET /api/v1/bootstrap.
func (h *Handler) Bootstrap(c *gin.Context) {
	run, err := h.orchestrator.StartBootstrap()
	if errors.Is(err, orchestrator.ErrBootstrapInProgress) {
		c.JSON(http.StatusConflict, gin.H{"status": orchestrator.StatusInProgress})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": orchestrator.StatusError, "error": err.Error()})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.bootstrapTimeout) //nolint:contextcheck
		defer cancel()
		if _, err := run(ctx); err != nil {
			h.log().Warn("background bootstrap failed", "err", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// BootstrapResult handles GET /api/v1/bootstrap.
func (h *Handler) BootstrapResult(c *gin.Context) {
	if h.orchestrator.IsBootstrapInProgress() {
		c.JSON(http.StatusOK, gin.H{"status": orchestrator.StatusInProgress})
		return
	}
	result := h.orchestrator.LastResult()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "not-run"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Health handles GET /health. Liveness only; always 200.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"mode":   "shallow",
	})
}

// DeepHealth handles GET /health/deep.
// It probes every configured dependency and returns 200 only when all are OK.
func (h *Handler) DeepHealth(c *gin.Context) {
	probes := h.orchestrator.RunDeepHealth(c.Request.Context())

	status := "healthy"
	code := http.StatusOK
	if !AllHealthy(probes) {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"dependencies": probes,
	})
}

// Ready handles GET /ready.
// It returns 200 only after a successful bootstrap; 503 otherwise.
func (h *Handler) Ready(c *gin.Context) {
	if h.orchestrator.IsReady() {
		c.JSON(http.StatusOK, gin.H{"ready": true})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
}

// AllHealthy reports whether every probe succeeded.
func AllHealthy(probes map[string]orchestrator.ProbeResult) bool {
	for _, p := range probes {
		if !p.OK {
			return false
		}
	}
	return true
}
