package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "test.db")

	cfg := LoadConfig()
	assert.Equal(t, "unit-test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "test.db", cfg.DB.Path)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := LoadConfig()
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Error(t, cfg.Validate())
}
