package credentials

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/config"
)

// GatewayError is a rejected or failed partner call. It is non-fatal to
// whatever operation triggered the issuance.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("credential gateway unreachable: %s", e.Message)
	}
	return fmt.Sprintf("credential gateway rejected request (%d): %s", e.StatusCode, e.Message)
}

// Client talks to the AIR Protocol partner API. Every call authenticates
// with a short-lived RS256 assertion; nothing is ever retried.
type Client struct {
	cfg        config.AirConfig
	keyID      string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client signing with the given key
func NewClient(cfg config.AirConfig, keyID string, privateKey *rsa.PrivateKey, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		keyID:      keyID,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// assertion signs a one-hour partner authentication token
func (c *Client) assertion() (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": c.cfg.IssuerDID,
		"sub": c.cfg.PartnerID,
		"aud": "air-kit",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign gateway assertion: %w", err)
	}
	return signed, nil
}

// IssueCredential submits subject claims for issuance. Unset subject
// fields are defaulted before sending.
func (c *Client) IssueCredential(ctx context.Context, subject CredentialSubject) (*IssueResult, error) {
	subject.ApplyDefaults()

	payload := map[string]interface{}{
		"schemaId":          c.cfg.SchemaID,
		"programId":         c.cfg.IssuanceProgramID,
		"credentialSubject": subject,
	}

	var result IssueResult
	if err := c.post(ctx, "/v1/credentials/issue", payload, &result); err != nil {
		return nil, err
	}

	c.logger.Info("credential issued",
		zap.String("credential_id", result.CredentialID),
		zap.String("project_id", subject.ProjectID))
	return &result, nil
}

// VerifyCredential asks the partner to verify an issued credential
func (c *Client) VerifyCredential(ctx context.Context, credentialID string) (*VerifyResult, error) {
	payload := map[string]interface{}{
		"credentialId": credentialID,
		"programId":    c.cfg.VerificationProgramID,
	}

	var result VerifyResult
	if err := c.post(ctx, "/v1/credentials/verify", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	token, err := c.assertion()
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Partner-ID", c.cfg.PartnerID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &GatewayError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GatewayError{
			StatusCode: resp.StatusCode,
			Message:    partnerMessage(resp.Body, resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// partnerMessage extracts the partner's error message when the body
// carries one, falling back to the HTTP status line.
func partnerMessage(body io.Reader, fallback string) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return fallback
}
