// Package app wires adapters, the engine and background workers from config.
// Both the HTTP service and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/gemini"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/googlebooks"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/ollama"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/presets"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/spotify"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/sqlite"
	"github.com/ewilliams-labs/bookbeats/internal/config"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/core/services"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/worker"
)

// App holds the long-lived components of one process.
type App struct {
	Config       *config.Config
	Orchestrator *services.Orchestrator
	Store        *sqlite.Adapter

	pool   *worker.Pool
	cancel context.CancelFunc
}

// New builds the full generation stack. The preview worker, when enabled,
// runs until Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.RequireCatalogCredentials(); err != nil {
		return nil, err
	}

	analyzer, err := NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	tokens := spotify.NewTokenCache(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.TokenURL)
	catalog := spotify.NewClient(tokens, cfg.Spotify)

	svc := services.NewOrchestrator(analyzer, catalog, catalog, store, cfg.Engine)
	if cfg.BookLookup.Enabled {
		svc.WithBookLookup(googlebooks.NewClient(cfg.BookLookup.GoogleBooks))
	}

	a := &App{Config: cfg, Orchestrator: svc, Store: store}
	if cfg.Worker.Enabled {
		workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.pool = worker.NewPool(store, nil, cfg.Worker.Workers, cfg.Worker.QueueSize)
		a.pool.Start(workerCtx)
		a.cancel = cancel
		svc.WithPreviewQueue(a.pool)
	}

	log := logging.WithComponent("app")
	log.Info().
		Str("analyzer", cfg.Analyzer.Provider).
		Bool("book_lookup", cfg.BookLookup.Enabled).
		Bool("preview_worker", cfg.Worker.Enabled).
		Bool("audio_features", cfg.Spotify.AudioFeatures).
		Str("storage", cfg.Storage.Path).
		Msg("engine ready")

	return a, nil
}

// Close drains the preview worker and closes storage.
func (a *App) Close() error {
	if a.pool != nil {
		a.pool.Stop()
		a.cancel()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// NewAnalysisOnly builds an orchestrator that can resolve and analyze books
// but not search the catalog. It needs no catalog credentials.
func NewAnalysisOnly(cfg *config.Config) (*services.Orchestrator, error) {
	analyzer, err := NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, err
	}
	svc := services.NewOrchestrator(analyzer, nil, nil, nil, cfg.Engine)
	if cfg.BookLookup.Enabled {
		svc.WithBookLookup(googlebooks.NewClient(cfg.BookLookup.GoogleBooks))
	}
	return svc, nil
}

// OpenStore opens the playlist history database.
func OpenStore(cfg *config.Config) (*sqlite.Adapter, error) {
	store, err := sqlite.NewAdapter(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("app: open storage %s: %w", cfg.Storage.Path, err)
	}
	return store, nil
}

// NewAnalyzer returns the configured book-analysis provider.
func NewAnalyzer(cfg config.AnalyzerConfig) (ports.BookAnalyzer, error) {
	switch cfg.Provider {
	case config.ProviderOllama, "":
		return ollama.NewClient(cfg.Ollama), nil
	case config.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("app: %w", gemini.ErrMissingAPIKey)
		}
		return gemini.NewClient(cfg.Gemini), nil
	case config.ProviderPreset:
		p, err := presets.New()
		if err != nil {
			return nil, fmt.Errorf("app: load presets: %w", err)
		}
		return p, nil
	default:
		return nil, errors.New("app: unknown analyzer provider " + cfg.Provider)
	}
}
