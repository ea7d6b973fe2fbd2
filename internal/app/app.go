// Package app wires configuration, storage, embedding providers, and the
// knowledge-base components into one application container.
package app

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftwise/draftwise/internal/citation"
	"github.com/draftwise/draftwise/internal/config"
	"github.com/draftwise/draftwise/internal/document"
	"github.com/draftwise/draftwise/internal/embedding"
	"github.com/draftwise/draftwise/internal/extract"
	"github.com/draftwise/draftwise/internal/retriever"
)

// App holds the initialized components. Call Close to release resources.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	DBPool    *pgxpool.Pool
	Embedding *embedding.Service
	Documents *document.Store
	Retriever *retriever.Retriever
	Citations *citation.Ledger
	Extractor extract.Extractor

	dbCleanup func()
}

// Close releases everything Setup initialized. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.dbCleanup = nil
	}
	return nil
}
