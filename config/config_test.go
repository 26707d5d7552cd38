package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Setenv("TINK_CLIENT_ID", "id")
	t.Setenv("TINK_CLIENT_SECRET", "secret")
	t.Setenv("TINK_BASE_URL", "http://localhost:1234")
	t.Setenv("TINK_TIMEOUT", "10")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "id", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.Equal(t, "http://localhost:1234", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TINK_CLIENT_ID", "id")
	t.Setenv("TINK_CLIENT_SECRET", "secret")
	t.Setenv("TINK_BASE_URL", "")
	t.Setenv("TINK_TIMEOUT", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Empty(t, cfg.BaseURL)
	assert.Zero(t, cfg.Timeout)
}

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("TINK_CLIENT_ID", "")
	t.Setenv("TINK_CLIENT_SECRET", "secret")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("TINK_CLIENT_ID", "id")
	t.Setenv("TINK_CLIENT_SECRET", "")

	_, err = FromEnv()
	assert.Error(t, err)
}

func TestFromEnvInvalidTimeout(t *testing.T) {
	t.Setenv("TINK_CLIENT_ID", "id")
	t.Setenv("TINK_CLIENT_SECRET", "secret")
	t.Setenv("TINK_TIMEOUT", "soon")

	_, err := FromEnv()
	assert.Error(t, err)
}
