package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `json:"server"`
	Keys    KeysConfig    `json:"keys"`
	Data    DataConfig    `json:"data"`
	Market  MarketConfig  `json:"market"`
	Air     AirConfig     `json:"air"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// KeysConfig holds the paths to the RSA signing key material
type KeysConfig struct {
	PrivateKeyPath string `json:"private_key_path"`
	PublicKeyPath  string `json:"public_key_path"`
	JWKSPath       string `json:"jwks_path"`
	KeyID          string `json:"key_id"`
}

// DataConfig holds the paths to the static catalog files
type DataConfig struct {
	ProjectsPath string `json:"projects_path"`
	CreditsPath  string `json:"credits_path"`
}

// MarketConfig configures the secondary market ledger
type MarketConfig struct {
	// FeeRate is the platform cut on every settlement.
	FeeRate float64 `json:"fee_rate"`
	// AllowForeignCancel reproduces the legacy behavior where any caller
	// could cancel any listing by id.
	AllowForeignCancel bool   `json:"allow_foreign_cancel"`
	SnapshotSchedule   string `json:"snapshot_schedule"`
}

// AirConfig configures the AIR Protocol credential gateway
type AirConfig struct {
	Enabled               bool          `json:"enabled"`
	APIURL                string        `json:"api_url"`
	PartnerID             string        `json:"partner_id"`
	IssuerDID             string        `json:"issuer_did"`
	SchemaID              string        `json:"schema_id"`
	IssuanceProgramID     string        `json:"issuance_program_id"`
	VerificationProgramID string        `json:"verification_program_id"`
	RequestTimeout        time.Duration `json:"request_timeout"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         7000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Keys: KeysConfig{
			PrivateKeyPath: "keys/private.key",
			PublicKeyPath:  "keys/public.key",
			JWKSPath:       "keys/jwks.json",
			KeyID:          "carbonchain-key-1",
		},
		Data: DataConfig{
			ProjectsPath: "data/projects.json",
			CreditsPath:  "data/credits.json",
		},
		Market: MarketConfig{
			FeeRate:          0.025,
			SnapshotSchedule: "@every 1m",
		},
		Air: AirConfig{
			APIURL:         "https://api.sandbox.air3.com",
			RequestTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if path := os.Getenv("PRIVATE_KEY_PATH"); path != "" {
		config.Keys.PrivateKeyPath = path
	}
	if path := os.Getenv("PUBLIC_KEY_PATH"); path != "" {
		config.Keys.PublicKeyPath = path
	}
	if path := os.Getenv("JWKS_PATH"); path != "" {
		config.Keys.JWKSPath = path
	}
	if path := os.Getenv("PROJECTS_DATA_PATH"); path != "" {
		config.Data.ProjectsPath = path
	}
	if path := os.Getenv("CREDITS_DATA_PATH"); path != "" {
		config.Data.CreditsPath = path
	}
	if rate := os.Getenv("MARKET_FEE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Market.FeeRate = r
		}
	}
	if enabled := os.Getenv("AIR_ENABLED"); enabled != "" {
		config.Air.Enabled = enabled == "true"
	}
	if url := os.Getenv("AIR_API_URL"); url != "" {
		config.Air.APIURL = url
	}
	if id := os.Getenv("AIR_PARTNER_ID"); id != "" {
		config.Air.PartnerID = id
	}
	if did := os.Getenv("AIR_ISSUER_DID"); did != "" {
		config.Air.IssuerDID = did
	}
	if id := os.Getenv("SCHEMA_ID"); id != "" {
		config.Air.SchemaID = id
	}
	if id := os.Getenv("ISSUANCE_PROGRAM_ID"); id != "" {
		config.Air.IssuanceProgramID = id
	}
	if id := os.Getenv("VERIFICATION_PROGRAM_ID"); id != "" {
		config.Air.VerificationProgramID = id
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
