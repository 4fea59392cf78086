package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the read-only catalog endpoints
type Handler struct {
	store  *Store
	logger *zap.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(store *Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// RegisterRoutes registers catalog routes under /api/credits
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	credits := router.Group("/credits")
	{
		credits.GET("", h.listProjects)
		credits.GET("/stats", h.getStats)
		credits.GET("/:projectId", h.getProject)
	}
}

// listProjects handles GET /api/credits
func (h *Handler) listProjects(c *gin.Context) {
	filter := Filter{
		Search:   c.Query("search"),
		Registry: c.Query("registry"),
		Country:  c.Query("country"),
		Category: c.Query("category"),
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	result := h.store.List(filter, page, limit)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
		"projects":   result.Projects,
	})
}

// getStats handles GET /api/credits/stats
func (h *Handler) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   h.store.Stats(),
	})
}

// getProject handles GET /api/credits/:projectId
func (h *Handler) getProject(c *gin.Context) {
	project, err := h.store.Get(c.Param("projectId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Project not found",
			})
			return
		}
		h.logger.Error("failed to fetch project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"project": project,
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
