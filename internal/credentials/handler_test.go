package credentials

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/catalog"
	"carbonchain/marketplace-backend/internal/config"
)

func setupCredentialsRouter(t *testing.T, client *Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := catalog.NewStore(zap.NewNop())
	require.NoError(t, store.LoadData([]catalog.Project{
		{ID: "VCS-981", Name: "Katingan Peatland Restoration", Registry: "verra", Country: "Indonesia", Category: "forestry", Issued: 7500000},
	}, nil))

	cfg := config.AirConfig{IssuerDID: "did:air:issuer"}
	handler := NewHandler(store, client, cfg, zap.NewNop())

	router := gin.New()
	api := router.Group("/api")
	handler.RegisterRoutes(api)
	return router
}

func TestIssueMockCredential(t *testing.T) {
	router := setupCredentialsRouter(t, nil)

	body := bytes.NewBufferString(`{"projectId":"VCS-981","quantity":50,"userId":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success    bool           `json:"success"`
		Credential MockCredential `json:"credential"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Credential.CredentialID, "CRED-")
	assert.Equal(t, "CarbonCreditCredential", resp.Credential.Type)
	assert.Equal(t, "did:air:issuer", resp.Credential.Issuer)

	subject := resp.Credential.CredentialSubject
	assert.Equal(t, "user-1", subject.ID)
	assert.Equal(t, "VCS-981", subject.ProjectID)
	assert.Equal(t, "forestry", subject.ProjectType)
	assert.Equal(t, 50, subject.Quantity)
	assert.Equal(t, 85, subject.QualityScore)
	assert.True(t, subject.RegistryVerified)
}

func TestIssueMockCredentialValidation(t *testing.T) {
	router := setupCredentialsRouter(t, nil)

	cases := []string{
		`{}`,
		`{"projectId":"VCS-981","quantity":50}`,
		`{"projectId":"VCS-981","quantity":0,"userId":"user-1"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestIssueMockCredentialUnknownProject(t *testing.T) {
	router := setupCredentialsRouter(t, nil)

	body := bytes.NewBufferString(`{"projectId":"VCS-9999","quantity":50,"userId":"user-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/credentials/issue", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Project not found")
}

func TestVerifyWithoutGateway(t *testing.T) {
	router := setupCredentialsRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/credentials/verify/CRED-42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVerifyProxiesGateway(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"verified": true})
	}))
	defer gateway.Close()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client := NewClient(config.AirConfig{
		APIURL:    gateway.URL,
		PartnerID: "partner-123",
		IssuerDID: "did:air:issuer",
	}, "carbonchain-key-1", key, zap.NewNop())

	router := setupCredentialsRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/api/credentials/verify/CRED-42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":true`)
}

func TestVerifyGatewayRejection(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "unknown credential"})
	}))
	defer gateway.Close()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	client := NewClient(config.AirConfig{
		APIURL:    gateway.URL,
		PartnerID: "partner-123",
	}, "carbonchain-key-1", key, zap.NewNop())

	router := setupCredentialsRouter(t, client)

	req := httptest.NewRequest(http.MethodPost, "/api/credentials/verify/CRED-42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"verified":false`)
	assert.Contains(t, w.Body.String(), "unknown credential")
}
