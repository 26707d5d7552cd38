// Package config builds the client configuration from the process
// environment. The tink package itself never reads environment variables;
// config is resolved once at startup and passed in explicitly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	AppName     = "tink-finance"
	EnvFileName = "config.env"
)

// Config holds everything needed to construct a client.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string        // empty means the production API
	Timeout      time.Duration // zero means the client default
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory, then from a local .env file. Errors are ignored since
// neither file has to exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load()
}

// FromEnv reads the configuration from TINK_* environment variables.
// TINK_CLIENT_ID and TINK_CLIENT_SECRET are required; TINK_BASE_URL and
// TINK_TIMEOUT (seconds) are optional.
func FromEnv() (Config, error) {
	cfg := Config{
		ClientID:     os.Getenv("TINK_CLIENT_ID"),
		ClientSecret: os.Getenv("TINK_CLIENT_SECRET"),
		BaseURL:      os.Getenv("TINK_BASE_URL"),
	}

	if cfg.ClientID == "" {
		return Config{}, fmt.Errorf("TINK_CLIENT_ID is not set")
	}
	if cfg.ClientSecret == "" {
		return Config{}, fmt.Errorf("TINK_CLIENT_SECRET is not set")
	}

	if raw := os.Getenv("TINK_TIMEOUT"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TINK_TIMEOUT: %q", raw)
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}
