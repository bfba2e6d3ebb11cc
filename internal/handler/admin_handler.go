package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/scene-finder/internal/storage"
)

// AdminHandler handles administrative endpoints over the identification call log.
type AdminHandler struct {
	callRepo storage.CallRepository // nil when the call log is disabled
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(callRepo storage.CallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		callRepo: callRepo,
		logger:   logger,
	}
}

// Stats returns identification call counts.
// Route: GET /api/admin/stats
// With ?provider=gemini only that provider's call count is returned.
func (h *AdminHandler) Stats(c *gin.Context) {
	if h.callRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "call log disabled"})
		return
	}

	if provider := c.Query("provider"); provider != "" {
		count, err := h.callRepo.CountByProvider(c.Request.Context(), provider)
		if err != nil {
			h.logger.Error("counting provider calls", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"provider": provider, "total": count})
		return
	}

	stats, err := h.callRepo.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("computing call stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecentCalls lists the most recent identification calls.
// Route: GET /api/admin/calls?limit=20
func (h *AdminHandler) RecentCalls(c *gin.Context) {
	if h.callRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "call log disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be between 1 and 500"})
		return
	}

	calls, err := h.callRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("listing calls", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// GetCall returns one identification call.
// Route: GET /api/admin/calls/:id
func (h *AdminHandler) GetCall(c *gin.Context) {
	if h.callRepo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "call log disabled"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "id must be a positive integer"})
		return
	}

	call, err := h.callRepo.GetByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "call not found"})
		return
	}
	if err != nil {
		h.logger.Error("getting call", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
		return
	}

	c.JSON(http.StatusOK, call)
}
