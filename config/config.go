// Package config loads gateway configuration from the environment and an
// optional YAML providers file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aimux/aimux/services/providers"
)

// Config is the complete application configuration.
type Config struct {
	Environment     string
	Server          ServerConfig
	Database        DatabaseConfig
	Auth            AuthConfig
	Cache           CacheConfig
	RateLimit       RateLimitConfig
	DefaultProvider string
	Providers       map[string]providers.ProviderConfig
	AllowedOrigins  []string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the audit store settings. An empty URL selects the
// log-only audit fallback.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds caller authentication settings. An empty secret disables
// authentication.
type AuthConfig struct {
	JWTSecret string
}

// CacheConfig holds response cache settings. Caching is off by default.
type CacheConfig struct {
	Enabled    bool
	TTLMinutes int
	MaxEntries int
	Prefix     string
}

// RateLimitConfig holds per-caller throttling settings.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// New loads configuration from the environment (honoring a .env file when
// present) and the providers file named by AIMUX_PROVIDERS_FILE. Without a
// providers file, provider entries are built from the well-known
// OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY variables.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Cache: CacheConfig{
			Enabled:    getEnvAsBool("CACHE_ENABLED", false),
			TTLMinutes: getEnvAsInt("CACHE_TTL_MINUTES", 1440),
			MaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 1024),
			Prefix:     getEnv("CACHE_PREFIX", "llm_"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		DefaultProvider: getEnv("DEFAULT_PROVIDER", "openai"),
		AllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	if file := getEnv("AIMUX_PROVIDERS_FILE", ""); file != "" {
		if err := cfg.loadProvidersFile(file); err != nil {
			return nil, err
		}
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = providersFromEnv()
	}

	return cfg, nil
}

// providersFile is the YAML document shape.
type providersFile struct {
	DefaultProvider string                   `yaml:"default_provider"`
	Providers       map[string]providerEntry `yaml:"providers"`
}

// providerEntry is one provider in the YAML file. Timeouts are expressed in
// seconds.
type providerEntry struct {
	Adapter               string   `yaml:"adapter"`
	APIKey                string   `yaml:"api_key"`
	BaseURL               string   `yaml:"base_url"`
	Model                 string   `yaml:"model"`
	EmbeddingModel        string   `yaml:"embedding_model"`
	MaxTokens             int      `yaml:"max_tokens"`
	Temperature           *float64 `yaml:"temperature"`
	SystemPrompt          string   `yaml:"system_prompt"`
	Version               string   `yaml:"version"`
	Enabled               *bool    `yaml:"enabled"`
	TimeoutSeconds        int      `yaml:"timeout_seconds"`
	ConnectTimeoutSeconds int      `yaml:"connect_timeout_seconds"`
}

func (c *Config) loadProvidersFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read providers file: %w", err)
	}

	var doc providersFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse providers file: %w", err)
	}

	c.Providers = make(map[string]providers.ProviderConfig, len(doc.Providers))
	for name, entry := range doc.Providers {
		c.Providers[name] = providers.ProviderConfig{
			Name:           name,
			Adapter:        entry.Adapter,
			APIKey:         expandEnvRef(entry.APIKey),
			BaseURL:        entry.BaseURL,
			Model:          entry.Model,
			EmbeddingModel: entry.EmbeddingModel,
			MaxTokens:      entry.MaxTokens,
			Temperature:    entry.Temperature,
			SystemPrompt:   entry.SystemPrompt,
			Version:        entry.Version,
			Enabled:        entry.Enabled,
			Timeout:        time.Duration(entry.TimeoutSeconds) * time.Second,
			ConnectTimeout: time.Duration(entry.ConnectTimeoutSeconds) * time.Second,
		}
	}
	if doc.DefaultProvider != "" {
		c.DefaultProvider = doc.DefaultProvider
	}
	return nil
}

// providersFromEnv builds the built-in provider entries from the well-known
// API key variables; providers without a key are simply absent.
func providersFromEnv() map[string]providers.ProviderConfig {
	out := make(map[string]providers.ProviderConfig)
	for _, p := range []struct {
		name   string
		keyVar string
	}{
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"gemini", "GEMINI_API_KEY"},
	} {
		key := os.Getenv(p.keyVar)
		if key == "" {
			continue
		}
		out[p.name] = providers.ProviderConfig{
			Name:    p.name,
			Adapter: p.name,
			APIKey:  key,
		}
	}
	return out
}

// expandEnvRef resolves "${VAR}" values so providers files can avoid
// embedding credentials.
func expandEnvRef(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}"))
	}
	return v
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
