package portfolio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/catalog"
	"carbonchain/marketplace-backend/internal/credentials"
	"carbonchain/marketplace-backend/internal/portfolio/export"
)

// CredentialIssuer submits a purchase to the external credential gateway.
// nil disables issuance entirely.
type CredentialIssuer interface {
	IssueCredential(ctx context.Context, subject credentials.CredentialSubject) (*credentials.IssueResult, error)
}

// Handler serves purchase and portfolio endpoints
type Handler struct {
	service *Service
	catalog *catalog.Store
	issuer  CredentialIssuer
	logger  *zap.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *Service, catalogStore *catalog.Store, issuer CredentialIssuer, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		catalog: catalogStore,
		issuer:  issuer,
		logger:  logger,
	}
}

// RegisterRoutes registers purchase and portfolio routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/credits/:projectId/purchase", h.purchase)

	portfolio := router.Group("/portfolio")
	{
		portfolio.GET("/:userId", h.getPortfolio)
		portfolio.GET("/:userId/export", h.exportPortfolio)
	}
}

type purchaseRequest struct {
	UserID   string  `json:"userId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// purchase handles POST /api/credits/:projectId/purchase
func (h *Handler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	projectID := c.Param("projectId")
	purchase, err := h.service.RecordPurchase(req.UserID, projectID, req.Quantity, req.Price)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		case errors.Is(err, ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		default:
			h.logger.Error("purchase failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete purchase"})
		}
		return
	}

	response := gin.H{
		"success":  true,
		"purchase": purchase,
	}

	// Issuance is best-effort: the purchase stands even when the gateway
	// rejects or is unreachable, and the outcome is surfaced alongside.
	if h.issuer != nil {
		project, _ := h.catalog.Get(projectID)
		subject := credentials.SubjectForPurchase(project, purchase.UserID, purchase.Quantity, purchase.PricePerTon)
		result, err := h.issuer.IssueCredential(c.Request.Context(), subject)
		if err != nil {
			h.logger.Warn("credential issuance failed",
				zap.String("purchase_id", purchase.ID),
				zap.Error(err))
			response["credential"] = gin.H{"success": false, "error": err.Error()}
		} else {
			response["credential"] = gin.H{"success": true, "credentialId": result.CredentialID}
		}
	}

	c.JSON(http.StatusOK, response)
}

// getPortfolio handles GET /api/portfolio/:userId
func (h *Handler) getPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"portfolio": h.service.Get(c.Param("userId")),
	})
}

// exportPortfolio handles GET /api/portfolio/:userId/export
func (h *Handler) exportPortfolio(c *gin.Context) {
	userID := c.Param("userId")
	p := h.service.Get(userID)

	statement := export.Statement{
		UserID:         userID,
		GeneratedAt:    time.Now().UTC(),
		TotalQuantity:  p.TotalQuantity,
		TotalValue:     p.TotalValue,
		TotalPurchases: p.TotalPurchases,
		Lines:          make([]export.Line, 0, len(p.Purchases)),
	}
	for _, purchase := range p.Purchases {
		statement.Lines = append(statement.Lines, export.Line{
			PurchaseID:   purchase.ID,
			ProjectName:  purchase.ProjectName,
			Registry:     purchase.Registry,
			Quantity:     purchase.Quantity,
			PricePerTon:  purchase.PricePerTon,
			TotalPrice:   purchase.TotalPrice,
			PurchaseDate: purchase.PurchaseDate,
		})
	}

	format := c.DefaultQuery("format", "pdf")
	filename := fmt.Sprintf("portfolio-%s-%s", userID, statement.GeneratedAt.Format("2006-01-02"))

	switch format {
	case "pdf":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Header("Content-Type", "application/pdf")
		if err := export.WritePDF(c.Writer, statement); err != nil {
			h.logger.Error("portfolio PDF export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export portfolio"})
		}
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteExcel(c.Writer, statement); err != nil {
			h.logger.Error("portfolio Excel export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export portfolio"})
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
	}
}
