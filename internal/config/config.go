package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Common errors
var (
	ErrMissingAPIBaseURL    = errors.New("API_BASE_URL is required")
	ErrInvalidAPIBaseURL    = errors.New("API_BASE_URL must be an absolute http(s) URL")
	ErrMissingAppID         = errors.New("APP_ID is required")
	ErrUnknownAvatarPolicy  = errors.New("AVATAR_POLICY must be \"required\" or \"optional\"")
	ErrMissingSessionSecret = errors.New("SESSION_SECRET is required when DATABASE_URL is set")
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultAPIBaseURL         = "https://media.mw.metropolia.fi/wbma/"
	DefaultAppID              = "jobmarket"
	DefaultMapboxBaseURL      = "https://api.mapbox.com"
	DefaultAvatarPolicy       = "required"
	DefaultHTTPTimeout        = 30 * time.Second
	DefaultGeocodingRateLimit = 10
	DefaultPort               = "5050"
	DefaultSessionTTL         = 6 * time.Hour
	DefaultLogLevel           = "info"
)

// Config holds configuration for the API client layer, the gateway and the CLI tools.
type Config struct {
	// Media API
	APIBaseURL   string
	UploadsURL   string
	AppID        string
	AvatarPolicy string
	HTTPTimeout  time.Duration
	APIRateLimit float64 // requests per second, 0 disables limiting

	// Geocoding
	MapboxToken        string
	MapboxBaseURL      string
	GeocodingRateLimit float64

	// Gateway
	Port          string
	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	CORSOrigins   []string

	LogLevel string
}

// fileConfig is the YAML layout read from CONFIG_FILE. Durations are strings ("30s", "6h").
type fileConfig struct {
	API struct {
		BaseURL      string  `yaml:"base_url"`
		UploadsURL   string  `yaml:"uploads_url"`
		AppID        string  `yaml:"app_id"`
		AvatarPolicy string  `yaml:"avatar_policy"`
		Timeout      string  `yaml:"timeout"`
		RateLimit    float64 `yaml:"rate_limit"`
	} `yaml:"api"`
	Geocoding struct {
		Token     string  `yaml:"token"`
		BaseURL   string  `yaml:"base_url"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"geocoding"`
	Gateway struct {
		Port          string   `yaml:"port"`
		DatabaseURL   string   `yaml:"database_url"`
		SessionSecret string   `yaml:"session_secret"`
		SessionTTL    string   `yaml:"session_ttl"`
		CORSOrigins   []string `yaml:"cors_origins"`
	} `yaml:"gateway"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Defaults returns a Config populated with default values only.
func Defaults() Config {
	return Config{
		APIBaseURL:         DefaultAPIBaseURL,
		AppID:              DefaultAppID,
		AvatarPolicy:       DefaultAvatarPolicy,
		HTTPTimeout:        DefaultHTTPTimeout,
		MapboxBaseURL:      DefaultMapboxBaseURL,
		GeocodingRateLimit: DefaultGeocodingRateLimit,
		Port:               DefaultPort,
		SessionTTL:         DefaultSessionTTL,
		CORSOrigins:        []string{"http://localhost:8081", "http://localhost:19006"},
		LogLevel:           DefaultLogLevel,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
//
// Environment variables:
//   - API_BASE_URL, UPLOADS_URL, APP_ID, AVATAR_POLICY, HTTP_TIMEOUT, API_RATE_LIMIT
//   - MAPBOX_TOKEN, MAPBOX_BASE_URL, GEOCODING_RATE_LIMIT
//   - PORT, DATABASE_URL, SESSION_SECRET, SESSION_TTL, CORS_ORIGINS (comma separated)
//   - LOG_LEVEL
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.UploadsURL == "" {
		cfg.UploadsURL = strings.TrimSuffix(cfg.APIBaseURL, "/") + "/uploads/"
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.APIBaseURL, fc.API.BaseURL)
	setString(&c.UploadsURL, fc.API.UploadsURL)
	setString(&c.AppID, fc.API.AppID)
	setString(&c.AvatarPolicy, fc.API.AvatarPolicy)
	if fc.API.RateLimit > 0 {
		c.APIRateLimit = fc.API.RateLimit
	}
	if err := setDuration(&c.HTTPTimeout, fc.API.Timeout, "api.timeout"); err != nil {
		return err
	}

	setString(&c.MapboxToken, fc.Geocoding.Token)
	setString(&c.MapboxBaseURL, fc.Geocoding.BaseURL)
	if fc.Geocoding.RateLimit > 0 {
		c.GeocodingRateLimit = fc.Geocoding.RateLimit
	}

	setString(&c.Port, fc.Gateway.Port)
	setString(&c.DatabaseURL, fc.Gateway.DatabaseURL)
	setString(&c.SessionSecret, fc.Gateway.SessionSecret)
	if err := setDuration(&c.SessionTTL, fc.Gateway.SessionTTL, "gateway.session_ttl"); err != nil {
		return err
	}

	if len(fc.Gateway.CORSOrigins) > 0 {
		c.CORSOrigins = fc.Gateway.CORSOrigins
	}

	setString(&c.LogLevel, fc.Log.Level)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.APIBaseURL, os.Getenv("API_BASE_URL"))
	setString(&c.UploadsURL, os.Getenv("UPLOADS_URL"))
	setString(&c.AppID, os.Getenv("APP_ID"))
	setString(&c.AvatarPolicy, strings.ToLower(os.Getenv("AVATAR_POLICY")))
	setString(&c.MapboxToken, os.Getenv("MAPBOX_TOKEN"))
	setString(&c.MapboxBaseURL, os.Getenv("MAPBOX_BASE_URL"))
	setString(&c.Port, os.Getenv("PORT"))
	setString(&c.DatabaseURL, os.Getenv("DATABASE_URL"))
	setString(&c.SessionSecret, os.Getenv("SESSION_SECRET"))
	setString(&c.LogLevel, strings.ToLower(os.Getenv("LOG_LEVEL")))
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = splitList(v)
	}

	if err := setDuration(&c.HTTPTimeout, os.Getenv("HTTP_TIMEOUT"), "HTTP_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.SessionTTL, os.Getenv("SESSION_TTL"), "SESSION_TTL"); err != nil {
		return err
	}
	if err := setFloat(&c.APIRateLimit, os.Getenv("API_RATE_LIMIT"), "API_RATE_LIMIT"); err != nil {
		return err
	}
	if err := setFloat(&c.GeocodingRateLimit, os.Getenv("GEOCODING_RATE_LIMIT"), "GEOCODING_RATE_LIMIT"); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration can drive the client layer.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidAPIBaseURL
	}
	if c.AppID == "" {
		return ErrMissingAppID
	}
	switch c.AvatarPolicy {
	case "required", "optional":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAvatarPolicy, c.AvatarPolicy)
	}
	if c.DatabaseURL != "" && c.SessionSecret == "" {
		return ErrMissingSessionSecret
	}
	return nil
}

// GeocodingEnabled reports whether a Mapbox token is configured.
func (c Config) GeocodingEnabled() bool {
	return c.MapboxToken != ""
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, name string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func setFloat(dst *float64, v, name string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = f
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
