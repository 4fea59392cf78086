package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/config"
)

const tokenLifetime = 24 * time.Hour

// Handler serves the login stub and the JWKS document. Login accepts any
// username/password pair; there is no user store.
type Handler struct {
	keys   *KeyPair
	cfg    config.KeysConfig
	issuer string
	logger *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(keys *KeyPair, cfg config.KeysConfig, issuerDID string, logger *zap.Logger) *Handler {
	return &Handler{
		keys:   keys,
		cfg:    cfg,
		issuer: issuerDID,
		logger: logger,
	}
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", h.login)
	router.GET("/.well-known/jwks.json", h.jwks)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles POST /api/auth/login
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": req.Username,
		"iss": h.issuer,
		"aud": "carbonchain",
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	})
	token.Header["kid"] = h.cfg.KeyID

	signed, err := token.SignedString(h.keys.Private)
	if err != nil {
		h.logger.Error("failed to sign login token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   signed,
		"user":    gin.H{"username": req.Username},
	})
}

// jwks handles GET /.well-known/jwks.json
func (h *Handler) jwks(c *gin.Context) {
	data, err := os.ReadFile(h.cfg.JWKSPath)
	if err != nil {
		h.logger.Error("failed to load JWKS", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load JWKS"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}
