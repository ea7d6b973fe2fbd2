package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would fail at runtime.
// Called fail-fast from Load; all errors wrap a package sentinel so callers
// can distinguish categories with errors.Is.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	return c.validatePostgres()
}

func (c *Config) validateEmbedding() error {
	if len(c.EmbeddingProviders) == 0 {
		return ErrNoProviders
	}
	seen := make(map[string]bool, len(c.EmbeddingProviders))
	for _, p := range c.EmbeddingProviders {
		switch p {
		case ProviderGemini, ProviderOpenAI:
		default:
			return fmt.Errorf("%w: %q (must be one of: %s, %s)",
				ErrInvalidProvider, p, ProviderGemini, ProviderOpenAI)
		}
		if seen[p] {
			return fmt.Errorf("%w: %q listed twice in fallback order", ErrInvalidProvider, p)
		}
		seen[p] = true
	}

	// The schema column is vector(768); a mismatched target dimension would
	// make every insert fail, so reject it here.
	if c.TargetDimension != DefaultTargetDimension {
		return fmt.Errorf("%w: %d (schema stores vector(%d))",
			ErrInvalidDimension, c.TargetDimension, DefaultTargetDimension)
	}

	if c.EmbedTimeoutSec <= 0 || c.EmbedBatchTimeoutSec <= 0 {
		return fmt.Errorf("embed timeouts must be positive, got single=%ds batch=%ds",
			c.EmbedTimeoutSec, c.EmbedBatchTimeoutSec)
	}
	return nil
}

func (c *Config) validateChunking() error {
	if c.ChunkTokens < 50 || c.ChunkTokens > 8192 {
		return fmt.Errorf("%w: chunk_tokens %d outside [50, 8192]", ErrInvalidChunking, c.ChunkTokens)
	}
	if c.ChunkOverlapTokens < 0 || c.ChunkOverlapTokens >= c.ChunkTokens {
		return fmt.Errorf("%w: chunk_overlap_tokens %d must be in [0, chunk_tokens)", ErrInvalidChunking, c.ChunkOverlapTokens)
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.SearchCount < 1 || c.SearchCount > 100 {
		return fmt.Errorf("%w: search_count %d outside [1, 100]", ErrInvalidSearchWeights, c.SearchCount)
	}
	if c.SearchThreshold < 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("%w: search_threshold %g outside [0, 1]", ErrInvalidSearchWeights, c.SearchThreshold)
	}
	if c.FullTextWeight < 0 || c.SemanticWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidSearchWeights)
	}
	if c.FullTextWeight+c.SemanticWeight == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidSearchWeights)
	}
	return nil
}

func (c *Config) validatePostgres() error {
	if strings.TrimSpace(c.PostgresHost) == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return ErrInvalidPostgresDBName
	}
	switch c.PostgresSSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}
}
