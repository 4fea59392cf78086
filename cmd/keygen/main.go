package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/config"
)

// jwk is the public half of the signing key in RFC 7517 form.
type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		logger.Fatal("Failed to generate RSA key", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Keys.PrivateKeyPath), 0755); err != nil {
		logger.Fatal("Failed to create keys directory", zap.Error(err))
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		logger.Fatal("Failed to marshal private key", zap.Error(err))
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(cfg.Keys.PrivateKeyPath, privPEM, 0600); err != nil {
		logger.Fatal("Failed to write private key", zap.Error(err))
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		logger.Fatal("Failed to marshal public key", zap.Error(err))
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(cfg.Keys.PublicKeyPath, pubPEM, 0644); err != nil {
		logger.Fatal("Failed to write public key", zap.Error(err))
	}

	doc := jwks{Keys: []jwk{{
		Kty: "RSA",
		Use: "sig",
		Alg: "RS256",
		Kid: cfg.Keys.KeyID,
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}}
	jwksJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Fatal("Failed to marshal JWKS", zap.Error(err))
	}
	if err := os.WriteFile(cfg.Keys.JWKSPath, jwksJSON, 0644); err != nil {
		logger.Fatal("Failed to write JWKS", zap.Error(err))
	}

	logger.Info("Generated signing keys",
		zap.String("private", cfg.Keys.PrivateKeyPath),
		zap.String("public", cfg.Keys.PublicKeyPath),
		zap.String("jwks", cfg.Keys.JWKSPath),
		zap.String("kid", cfg.Keys.KeyID))
}
