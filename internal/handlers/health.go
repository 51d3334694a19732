package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/dossier/api/internal/database"
	"github.com/stwalsh4118/dossier/api/internal/middleware"
	"github.com/stwalsh4118/dossier/api/internal/services"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for database health checks
	HealthCheckTimeout = 2 * time.Second
)

// Snapshot readiness values.
const (
	SnapshotFresh   = "fresh"
	SnapshotStale   = "stale"
	SnapshotMissing = "missing"
)

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db         database.Pinger
	reconciler services.Reconciler
	startTime  time.Time
	env        string
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(db database.Pinger, reconciler services.Reconciler, env string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		reconciler: reconciler,
		startTime:  time.Now(),
		env:        env,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Snapshot string `json:"snapshot"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version      string     `json:"version"`
	Environment  string     `json:"environment"`
	Uptime       string     `json:"uptime"`
	Members      int        `json:"members"`
	ReconciledAt *time.Time `json:"reconciledAt,omitempty"`
}

// Health handles GET /health. It never checks dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready.
// Readiness depends on the record store only; a stale or missing snapshot is
// reported but still serves.
func (h *HealthHandler) Ready(c *gin.Context) {
	snapshot := h.snapshotState()

	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
			Snapshot: snapshot,
		})
		return
	}

	if err := h.db.Ping(ctx); err != nil {
		if log := middleware.GetLogger(c); log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}

		c.JSON(http.StatusServiceUnavailable, ReadyResponse{
			Status:   "not_ready",
			Database: "disconnected",
			Snapshot: snapshot,
		})
		return
	}

	c.JSON(http.StatusOK, ReadyResponse{
		Status:   "ready",
		Database: "connected",
		Snapshot: snapshot,
	})
}

func (h *HealthHandler) snapshotState() string {
	if h.reconciler == nil || h.reconciler.Snapshot() == nil {
		return SnapshotMissing
	}
	if h.reconciler.Status().Stale {
		return SnapshotStale
	}
	return SnapshotFresh
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	resp := InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	}

	if h.reconciler != nil {
		if snap := h.reconciler.Snapshot(); snap != nil {
			reconciledAt := snap.ReconciledAt
			resp.Members = len(snap.Views)
			resp.ReconciledAt = &reconciledAt
		}
	}

	c.JSON(http.StatusOK, resp)
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
