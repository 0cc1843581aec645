package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	health Readiness
}

func NewHealthHandler(health Readiness) *HealthHandler {
	return &HealthHandler{health: health}
}

// Health always reports up: the process answering is the signal. The SPA polls
// this before showing the login form.
func (h *HealthHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "status": "up"})
}

// Ready reflects the availability gate, for orchestration probes.
func (h *HealthHandler) Ready(ctx *gin.Context) {
	if h.health == nil || !h.health.Ready() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
