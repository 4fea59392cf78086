package market

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/notifications"
)

// Handler serves the secondary-market endpoints
type Handler struct {
	ledger *Ledger
	hub    *notifications.Hub
	logger *zap.Logger
}

// NewHandler creates a new market handler. hub may be nil when the
// websocket feed is disabled.
func NewHandler(ledger *Ledger, hub *notifications.Hub, logger *zap.Logger) *Handler {
	return &Handler{ledger: ledger, hub: hub, logger: logger}
}

// RegisterRoutes registers market routes under /api/market
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	market := router.Group("/market")
	{
		market.POST("/list", h.createListing)
		market.GET("/listings", h.browseListings)
		market.POST("/buy/:listingId", h.buyListing)
		market.GET("/my-listings/:userId", h.myListings)
		market.POST("/cancel/:listingId", h.cancelListing)
		if h.hub != nil {
			market.GET("/ws", h.serveWS)
		}
	}
}

// createListing handles POST /api/market/list
func (h *Handler) createListing(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	listing, err := h.ledger.Create(req)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
			return
		}
		h.logger.Error("failed to create listing", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list credit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"listing": listing,
	})
}

// browseListings handles GET /api/market/listings
func (h *Handler) browseListings(c *gin.Context) {
	filter := BrowseFilter{Registry: c.Query("registry")}
	if raw := c.Query("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}

	listings := h.ledger.Browse(filter, c.Query("sortBy"))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    len(listings),
		"listings": listings,
	})
}

// buyListing handles POST /api/market/buy/:listingId
func (h *Handler) buyListing(c *gin.Context) {
	var body struct {
		BuyerID string `json:"buyerId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	settlement, err := h.ledger.Buy(c.Param("listingId"), body.BuyerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, ErrNotActive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Listing is not active"})
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		default:
			h.logger.Error("failed to complete purchase", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete purchase"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transaction": settlement,
	})
}

// myListings handles GET /api/market/my-listings/:userId
func (h *Handler) myListings(c *gin.Context) {
	listings := h.ledger.BySeller(c.Param("userId"))

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"total":    len(listings),
		"listings": listings,
	})
}

// cancelListing handles POST /api/market/cancel/:listingId
func (h *Handler) cancelListing(c *gin.Context) {
	var body struct {
		UserID string `json:"userId"`
	}
	// Body is optional for compatibility with the legacy client, which
	// sent no payload; the seller check then rejects unless the ledger
	// permits foreign cancels.
	_ = c.ShouldBindJSON(&body)

	err := h.ledger.Cancel(c.Param("listingId"), body.UserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, ErrNotSeller):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the seller can cancel a listing"})
		case errors.Is(err, ErrNotActive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Listing is not active"})
		default:
			h.logger.Error("failed to cancel listing", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel listing"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing cancelled",
	})
}

// serveWS handles GET /api/market/ws
func (h *Handler) serveWS(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
