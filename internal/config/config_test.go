package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "API_BASE_URL", "UPLOADS_URL", "APP_ID", "AVATAR_POLICY", "HTTP_TIMEOUT",
	"API_RATE_LIMIT", "MAPBOX_TOKEN", "MAPBOX_BASE_URL", "GEOCODING_RATE_LIMIT", "PORT",
	"DATABASE_URL", "SESSION_SECRET", "SESSION_TTL", "CORS_ORIGINS", "LOG_LEVEL",
}

// clearEnv blanks every key Load reads; empty values are ignored by Load.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, "https://media.mw.metropolia.fi/wbma/uploads/", cfg.UploadsURL)
	assert.Equal(t, DefaultAppID, cfg.AppID)
	assert.Equal(t, "required", cfg.AvatarPolicy)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "5050", cfg.Port)
	assert.False(t, cfg.GeocodingEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
api:
  base_url: https://file.example.com/api/
  app_id: fromfile
  timeout: 5s
  rate_limit: 4
geocoding:
  token: pk.file
gateway:
  session_ttl: 2h
  cors_origins:
    - https://file.example.com
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_ID", "fromenv")
	t.Setenv("AVATAR_POLICY", "OPTIONAL")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.com/api/", cfg.APIBaseURL)
	assert.Equal(t, "https://file.example.com/api/uploads/", cfg.UploadsURL)
	assert.Equal(t, "fromenv", cfg.AppID)
	assert.Equal(t, "optional", cfg.AvatarPolicy)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.InDelta(t, 4.0, cfg.APIRateLimit, 0.0001)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.GeocodingEnabled())
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing base url", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: ErrMissingAPIBaseURL},
		{name: "relative base url", mutate: func(c *Config) { c.APIBaseURL = "/wbma" }, wantErr: ErrInvalidAPIBaseURL},
		{name: "missing app id", mutate: func(c *Config) { c.AppID = "" }, wantErr: ErrMissingAppID},
		{name: "bad avatar policy", mutate: func(c *Config) { c.AvatarPolicy = "sometimes" }, wantErr: ErrUnknownAvatarPolicy},
		{name: "database without secret", mutate: func(c *Config) { c.DatabaseURL = "postgres://x" }, wantErr: ErrMissingSessionSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
