package credentials

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/catalog"
	"carbonchain/marketplace-backend/internal/config"
)

// Handler serves credential endpoints. The issue endpoint synthesizes a
// credential locally from catalog data; verification proxies to the
// gateway when one is configured.
type Handler struct {
	catalog *catalog.Store
	client  *Client
	cfg     config.AirConfig
	logger  *zap.Logger
}

// NewHandler creates a new credentials handler. client may be nil when
// the gateway is disabled.
func NewHandler(catalogStore *catalog.Store, client *Client, cfg config.AirConfig, logger *zap.Logger) *Handler {
	return &Handler{
		catalog: catalogStore,
		client:  client,
		cfg:     cfg,
		logger:  logger,
	}
}

// RegisterRoutes registers credential routes under /api/credentials
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	credentials := router.Group("/credentials")
	{
		credentials.POST("/issue", h.issueMock)
		credentials.POST("/verify/:credentialId", h.verify)
	}
}

type issueRequest struct {
	ProjectID string `json:"projectId"`
	Quantity  int    `json:"quantity"`
	UserID    string `json:"userId"`
}

// issueMock handles POST /api/credentials/issue
func (h *Handler) issueMock(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProjectID == "" || req.Quantity <= 0 || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	project, err := h.catalog.Get(req.ProjectID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		h.logger.Error("failed to resolve project", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue credential"})
		return
	}

	now := time.Now().UTC()
	subject := CredentialSubject{
		ID:          req.UserID,
		CreditID:    fmt.Sprintf("%s-%s-%d", project.Registry, project.ID, now.UnixMilli()),
		Registry:    project.Registry,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ProjectType: project.Type,
		Vintage:     2024,
		Quantity:    req.Quantity,
		Country:     project.Country,
	}
	if subject.ProjectType == "" {
		subject.ProjectType = project.Category
	}
	subject.ApplyDefaults()

	credential := MockCredential{
		CredentialID:      fmt.Sprintf("CRED-%d", now.UnixMilli()),
		Type:              "CarbonCreditCredential",
		Issuer:            h.cfg.IssuerDID,
		IssuanceDate:      now,
		CredentialSubject: subject,
	}

	h.logger.Info("mock credential issued", zap.String("credential_id", credential.CredentialID))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"credential": credential,
	})
}

// verify handles POST /api/credentials/verify/:credentialId
func (h *Handler) verify(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Credential gateway is not configured",
		})
		return
	}

	result, err := h.client.VerifyCredential(c.Request.Context(), c.Param("credentialId"))
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success":  false,
				"verified": false,
				"error":    gwErr.Message,
			})
			return
		}
		h.logger.Error("credential verification failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credential"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"verified":   result.Verified,
		"credential": result.Credential,
	})
}
