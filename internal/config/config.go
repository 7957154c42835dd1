package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the propscribe server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Geo      GeoConfig
	LLM      LLMConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type GeoConfig struct {
	PostcodesBaseURL string
	PlacesBaseURL    string
	PlacesAPIKey     string
	Timeout          time.Duration
}

type LLMConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AuthConfig struct {
	// ProjectID is the identity-provider project the service trusts. It is
	// both the expected audience of inter-service tokens and the domain of
	// the expected service-account email.
	ProjectID string
	// ComponentName is this deployment's service-account local part.
	ComponentName string
	// Resolver is the resolver the API routes authenticate with.
	Resolver string
	// ResolverOverride replaces Resolver for every request. Only honoured
	// outside production; boot fails otherwise.
	ResolverOverride string
	// IDEnvPrefix namespaces generated ids and user ids per environment
	// (e.g. "dev", "test"). Empty in production.
	IDEnvPrefix string
}

var validLLMProviders = map[string]bool{
	"openai": true,
	"mock":   true,
}

var validResolvers = map[string]bool{
	"user":           true,
	"apikey":         true,
	"user_or_apikey": true,
	"system":         true,
	"mock":           true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PROPSCRIBE_PORT", 8080),
			Env:  envString("PROPSCRIBE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Geo: GeoConfig{
			PostcodesBaseURL: envString("POSTCODES_BASE_URL", "https://api.postcodes.io"),
			PlacesBaseURL:    envString("PLACES_BASE_URL", "https://maps.googleapis.com"),
			PlacesAPIKey:     os.Getenv("PLACES_API_KEY"),
			Timeout:          envDuration("GEO_TIMEOUT", 10*time.Second),
		},
		LLM: LLMConfig{
			Provider:         os.Getenv("LLM_PROVIDER"),
			InferenceTimeout: envDurationSecs("LLM_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-3.5-turbo"),
			},
		},
		Auth: AuthConfig{
			ProjectID:        os.Getenv("AUTH_PROJECT_ID"),
			ComponentName:    envString("AUTH_COMPONENT_NAME", "propscribe"),
			Resolver:         envString("AUTH_RESOLVER", "user_or_apikey"),
			ResolverOverride: os.Getenv("AUTH_RESOLVER_OVERRIDE"),
			IDEnvPrefix:      os.Getenv("ID_ENV_PREFIX"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in hardened production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !strings.HasPrefix(c.Geo.PostcodesBaseURL, "http://") && !strings.HasPrefix(c.Geo.PostcodesBaseURL, "https://") {
		return fmt.Errorf("POSTCODES_BASE_URL must start with http:// or https://, got %q", c.Geo.PostcodesBaseURL)
	}
	if c.Geo.PlacesAPIKey == "" {
		return fmt.Errorf("PLACES_API_KEY is required")
	}

	if c.LLM.Provider == "" {
		return fmt.Errorf("LLM_PROVIDER is required")
	}
	if !validLLMProviders[c.LLM.Provider] {
		return fmt.Errorf("LLM_PROVIDER must be one of openai, mock; got %q", c.LLM.Provider)
	}
	if c.LLM.Provider == "openai" && c.LLM.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER is openai")
	}

	if c.Auth.ProjectID == "" {
		return fmt.Errorf("AUTH_PROJECT_ID is required")
	}
	if !validResolvers[c.Auth.Resolver] {
		return fmt.Errorf("AUTH_RESOLVER must be one of user, apikey, user_or_apikey, system, mock; got %q", c.Auth.Resolver)
	}
	if c.Auth.ResolverOverride != "" {
		if !validResolvers[c.Auth.ResolverOverride] {
			return fmt.Errorf("AUTH_RESOLVER_OVERRIDE must be one of user, apikey, user_or_apikey, system, mock; got %q", c.Auth.ResolverOverride)
		}
		if c.IsProduction() {
			return fmt.Errorf("AUTH_RESOLVER_OVERRIDE must not be set when PROPSCRIBE_ENV is production")
		}
	}
	if c.IsProduction() && (c.Auth.Resolver == "mock" || c.LLM.Provider == "mock") {
		return fmt.Errorf("mock resolver and mock LLM provider are not allowed when PROPSCRIBE_ENV is production")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
