// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.draftwise/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Embedding: provider fallback order, models, target dimension, timeouts
//   - Chunking: token budget and overlap defaults
//   - Search: result count, similarity threshold, hybrid weights
//   - Storage: PostgreSQL connection (see storage.go)
//
// Sensitive data (passwords) are never logged; see MarshalJSON.
// Validation lives in validation.go and is applied fail-fast in Load.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates an unknown embedding provider name.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrNoProviders indicates the provider fallback order is empty.
	ErrNoProviders = errors.New("no embedding providers configured")

	// ErrInvalidDimension indicates the target vector dimension is out of range.
	ErrInvalidDimension = errors.New("invalid target dimension")

	// ErrInvalidChunking indicates chunk size or overlap values are unusable.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidSearchWeights indicates hybrid search weights are out of range.
	ErrInvalidSearchWeights = errors.New("invalid hybrid search weights")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Embedding provider identifiers used in Config.EmbeddingProviders.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

const (
	// DefaultGeminiEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality; our pgvector schema stores vector(768).
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultOpenAIEmbedderModel is the default OpenAI embedder model.
	// text-embedding-3-small natively outputs 1536 dimensions; vectors are
	// reconciled to the target dimension at the embedding boundary.
	DefaultOpenAIEmbedderModel = "text-embedding-3-small"

	// DefaultTargetDimension is the stored vector width. Every provider's
	// output is truncated or zero-padded to this length so all stored
	// vectors stay comparable under one cosine metric.
	DefaultTargetDimension = 768
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields, update MarshalJSON.
type Config struct {
	// Embedding provider configuration. EmbeddingProviders is the fallback
	// order: the first entry is the default, the rest are tried in sequence.
	EmbeddingProviders   []string `mapstructure:"embedding_providers" json:"embedding_providers"`
	GeminiEmbedderModel  string   `mapstructure:"gemini_embedder_model" json:"gemini_embedder_model"`
	OpenAIEmbedderModel  string   `mapstructure:"openai_embedder_model" json:"openai_embedder_model"`
	TargetDimension      int      `mapstructure:"target_dimension" json:"target_dimension"`
	EmbedTimeoutSec      int      `mapstructure:"embed_timeout_sec" json:"embed_timeout_sec"`
	EmbedBatchTimeoutSec int      `mapstructure:"embed_batch_timeout_sec" json:"embed_batch_timeout_sec"`

	// Chunking defaults (approximate tokens; 1 token ~ 4 characters)
	ChunkTokens        int `mapstructure:"chunk_tokens" json:"chunk_tokens"`
	ChunkOverlapTokens int `mapstructure:"chunk_overlap_tokens" json:"chunk_overlap_tokens"`

	// Search defaults
	SearchCount     int     `mapstructure:"search_count" json:"search_count"`
	SearchThreshold float64 `mapstructure:"search_threshold" json:"search_threshold"`
	FullTextWeight  float64 `mapstructure:"full_text_weight" json:"full_text_weight"`
	SemanticWeight  float64 `mapstructure:"semantic_weight" json:"semantic_weight"`

	// Storage configuration (see storage.go for DSN/URL builders)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".draftwise")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Embedding defaults
	viper.SetDefault("embedding_providers", []string{ProviderGemini, ProviderOpenAI})
	viper.SetDefault("gemini_embedder_model", DefaultGeminiEmbedderModel)
	viper.SetDefault("openai_embedder_model", DefaultOpenAIEmbedderModel)
	viper.SetDefault("target_dimension", DefaultTargetDimension)
	viper.SetDefault("embed_timeout_sec", 30)
	viper.SetDefault("embed_batch_timeout_sec", 60)

	// Chunking defaults
	viper.SetDefault("chunk_tokens", 800)
	viper.SetDefault("chunk_overlap_tokens", 50)

	// Search defaults
	viper.SetDefault("search_count", 5)
	viper.SetDefault("search_threshold", 0.35)
	viper.SetDefault("full_text_weight", 0.3)
	viper.SetDefault("semantic_weight", 0.7)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "draftwise")
	viper.SetDefault("postgres_password", "draftwise_dev_password")
	viper.SetDefault("postgres_db_name", "draftwise")
	viper.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment overrides explicitly.
//
// API keys are NOT bound here: GEMINI_API_KEY and OPENAI_API_KEY are read
// directly by the provider SDK clients. Presence is checked when providers
// are constructed in app.Setup.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("embedding_providers", "DRAFTWISE_EMBEDDING_PROVIDERS")
	mustBind("gemini_embedder_model", "DRAFTWISE_GEMINI_EMBEDDER_MODEL")
	mustBind("openai_embedder_model", "DRAFTWISE_OPENAI_EMBEDDER_MODEL")
	mustBind("target_dimension", "DRAFTWISE_TARGET_DIMENSION")
	mustBind("embed_timeout_sec", "DRAFTWISE_EMBED_TIMEOUT_SEC")
	mustBind("embed_batch_timeout_sec", "DRAFTWISE_EMBED_BATCH_TIMEOUT_SEC")

	mustBind("chunk_tokens", "DRAFTWISE_CHUNK_TOKENS")
	mustBind("chunk_overlap_tokens", "DRAFTWISE_CHUNK_OVERLAP_TOKENS")

	mustBind("search_count", "DRAFTWISE_SEARCH_COUNT")
	mustBind("search_threshold", "DRAFTWISE_SEARCH_THRESHOLD")
	mustBind("full_text_weight", "DRAFTWISE_FULL_TEXT_WEIGHT")
	mustBind("semantic_weight", "DRAFTWISE_SEMANTIC_WEIGHT")

	mustBind("postgres_host", "DRAFTWISE_POSTGRES_HOST")
	mustBind("postgres_port", "DRAFTWISE_POSTGRES_PORT")
	mustBind("postgres_user", "DRAFTWISE_POSTGRES_USER")
	mustBind("postgres_password", "DRAFTWISE_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "DRAFTWISE_POSTGRES_DB_NAME")
	mustBind("postgres_ssl_mode", "DRAFTWISE_POSTGRES_SSL_MODE")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked to prevent substring matching; longer secrets keep
// the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
