// Package handler contains HTTP request handlers.
// In Gin, a handler is any function with signature func(*gin.Context).
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	visionProvider   string
	searchConfigured bool
}

// NewHealthHandler creates a new HealthHandler that also reports which
// upstream providers are configured.
func NewHealthHandler(visionProvider string, searchConfigured bool) *HealthHandler {
	return &HealthHandler{
		visionProvider:   visionProvider,
		searchConfigured: searchConfigured,
	}
}

// Healthz responds with service status.
func (h *HealthHandler) Healthz(c *gin.Context) {
	search := "none"
	if h.searchConfigured {
		search = "tavily"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "scene-finder",
		"vision":  h.visionProvider,
		"search":  search,
	})
}
