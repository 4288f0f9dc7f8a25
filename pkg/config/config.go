package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for feedback-console.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// CORSOrigin is the console front-end origin allowed to call the API.
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:"http://localhost:5173"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Document store configuration (PostgreSQL)
	DocStore DatabaseConfig `yaml:"docstore"`

	// Sports databases available for ad-hoc queries. The allow-list is
	// closed: only these two names are accepted by /api/query.
	MLB DatabaseConfig `yaml:"mlb"`
	NBA DatabaseConfig `yaml:"nba"`

	// Redis cache configuration (optional - caching is disabled when host
	// is empty)
	Redis RedisConfig `yaml:"redis"`

	// Cache bounds and behavior
	Cache CacheConfig `yaml:"cache"`

	// Embedding service configuration
	Embeddings EmbeddingsConfig `yaml:"embeddings"`

	// Query result transport cap for /api/query
	QueryMaxRows int `yaml:"query_max_rows" env:"QUERY_MAX_ROWS" env-default:"10000"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether bearer tokens are validated.
	// Set to false for local development without an auth layer.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"false"`

	// SigningKey is the shared HS256 key used to verify bearer tokens.
	SigningKey string `yaml:"-" env:"AUTH_SIGNING_KEY"` // Secret - not in YAML
}

// DatabaseConfig holds PostgreSQL connection configuration for one database.
type DatabaseConfig struct {
	Host           string `yaml:"host" env-default:"localhost"`
	Port           int    `yaml:"port" env-default:"5432"`
	User           string `yaml:"user" env-default:"postgres"`
	Password       string `yaml:"-"` // Secret - set via PasswordEnv below
	PasswordEnv    string `yaml:"password_env"`
	Database       string `yaml:"database"`
	MaxConnections int32  `yaml:"max_connections" env-default:"5"`
	SSLMode        string `yaml:"ssl_mode" env-default:"disable"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// CacheConfig bounds the document cache and its persisted snapshot.
type CacheConfig struct {
	// MaxContainers caps how many containers the persisted snapshot may hold.
	MaxContainers int `yaml:"max_containers" env:"CACHE_MAX_CONTAINERS" env-default:"8"`
	// MaxDocsPerContainer caps documents per container in the snapshot.
	MaxDocsPerContainer int `yaml:"max_docs_per_container" env:"CACHE_MAX_DOCS" env-default:"1000"`
	// SnapshotPath is where the cache snapshot is persisted across
	// restarts. Empty disables snapshot persistence.
	SnapshotPath string `yaml:"snapshot_path" env:"CACHE_SNAPSHOT_PATH" env-default:""`
}

// EmbeddingsConfig holds the external embedding service configuration.
type EmbeddingsConfig struct {
	BaseURL string `yaml:"base_url" env:"EMBEDDINGS_BASE_URL" env-default:""`
	Model   string `yaml:"model" env:"EMBEDDINGS_MODEL" env-default:"text-embedding-ada-002"`
	APIKey  string `yaml:"-" env:"EMBEDDINGS_API_KEY"` // Secret - not in YAML
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	cfg.resolvePasswords()

	if cfg.Auth.EnableVerification && cfg.Auth.SigningKey == "" {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is required when auth verification is enabled")
	}

	return cfg, nil
}

// resolvePasswords fills database passwords from the env var each database
// names in password_env. Keeps one secret per database without hardcoding
// env names for every deployment.
func (c *Config) resolvePasswords() {
	for _, db := range []*DatabaseConfig{&c.DocStore, &c.MLB, &c.NBA} {
		if db.PasswordEnv != "" {
			db.Password = os.Getenv(db.PasswordEnv)
		}
	}
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the Redis host:port address, empty when Redis is not
// configured.
func (c *RedisConfig) Addr() string {
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
