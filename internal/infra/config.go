package infra

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBaseURL is the origin used when FOODDONATION_API_URL is unset.
const DefaultAPIBaseURL = "http://localhost:3000/"

// Config represents client configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	APIBaseURL     string
	CredentialsDir string
	CredentialsKey []byte
	HTTPTimeout    time.Duration
}

// LoadConfig loads client configuration from environment variables and
// applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "production"),
		APIBaseURL:     getEnv("FOODDONATION_API_URL", DefaultAPIBaseURL),
		CredentialsDir: os.Getenv("FOODDONATION_CREDENTIALS_DIR"),
		HTTPTimeout:    time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 0)),
	}
	if !strings.HasPrefix(cfg.APIBaseURL, "http://") && !strings.HasPrefix(cfg.APIBaseURL, "https://") {
		return nil, fmt.Errorf("FOODDONATION_API_URL must be an http(s) URL, got %q", cfg.APIBaseURL)
	}
	if cfg.CredentialsDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve credentials dir: %w", err)
		}
		cfg.CredentialsDir = filepath.Join(dir, "fooddonation")
	}
	if raw := strings.TrimSpace(os.Getenv("FOODDONATION_CREDENTIALS_KEY")); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("FOODDONATION_CREDENTIALS_KEY must be 64 hex characters")
		}
		cfg.CredentialsKey = key
	}
	return cfg, nil
}

// MockConfig configures the simulated backend server.
type MockConfig struct {
	AppEnv           string
	Port             string
	JWTSecret        string
	TokenTTL         time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadMockConfig loads the simulated backend configuration.
func LoadMockConfig() (*MockConfig, error) {
	cfg := &MockConfig{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "3000"),
		JWTSecret:        os.Getenv("MOCK_JWT_SECRET"),
		TokenTTL:         time.Hour * time.Duration(getEnvInt("MOCK_TOKEN_TTL_HOURS", 24)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}
	if cfg.JWTSecret == "" {
		if cfg.AppEnv != "development" {
			return nil, fmt.Errorf("MOCK_JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev-secret"
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
