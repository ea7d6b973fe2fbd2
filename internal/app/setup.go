package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/draftwise/draftwise/db"
	"github.com/draftwise/draftwise/internal/citation"
	"github.com/draftwise/draftwise/internal/config"
	"github.com/draftwise/draftwise/internal/document"
	"github.com/draftwise/draftwise/internal/embedding"
	"github.com/draftwise/draftwise/internal/extract"
	"github.com/draftwise/draftwise/internal/postgres"
	"github.com/draftwise/draftwise/internal/retriever"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	svc, err := provideEmbeddingService(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Embedding = svc

	queries := postgres.New(pool)
	a.Documents = document.New(queries, pool, svc, logger)
	a.Retriever = retriever.New(queries, svc, retriever.Defaults{
		Count:          cfg.SearchCount,
		Threshold:      cfg.SearchThreshold,
		FullTextWeight: cfg.FullTextWeight,
		SemanticWeight: cfg.SemanticWeight,
	}, logger)
	a.Citations = citation.New(queries, logger)
	a.Extractor = extract.Plaintext{}

	return a, nil
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
// pgvector types are registered on every new connection so vector columns
// scan natively.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}

// provideEmbeddingService builds the providers named in the configuration,
// in fallback order. A provider whose API key is absent from the environment
// is skipped with a warning; at least one must come up.
func provideEmbeddingService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*embedding.Service, error) {
	var providers []embedding.Provider
	for _, name := range cfg.EmbeddingProviders {
		switch name {
		case config.ProviderGemini:
			if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
				logger.Warn("skipping embedding provider, API key not set", "provider", name)
				continue
			}
			p, err := embedding.NewGeminiProvider(ctx, cfg.GeminiEmbedderModel)
			if err != nil {
				return nil, fmt.Errorf("initializing gemini provider: %w", err)
			}
			providers = append(providers, p)
		case config.ProviderOpenAI:
			if os.Getenv("OPENAI_API_KEY") == "" {
				logger.Warn("skipping embedding provider, API key not set", "provider", name)
				continue
			}
			providers = append(providers, embedding.NewOpenAIProvider(cfg.OpenAIEmbedderModel))
		default:
			return nil, fmt.Errorf("unknown embedding provider %q", name)
		}
	}

	svc, err := embedding.NewService(providers, embedding.ServiceConfig{
		TargetDimension: cfg.TargetDimension,
		Timeout:         time.Duration(cfg.EmbedTimeoutSec) * time.Second,
		BatchTimeout:    time.Duration(cfg.EmbedBatchTimeoutSec) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}
	return svc, nil
}
