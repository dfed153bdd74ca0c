// Package config loads layered configuration: struct defaults, then an
// optional YAML file, then environment variables.
//
// Environment keys use the BOOKBEATS_ prefix with "__" between levels:
//
//	BOOKBEATS_ENGINE__SCORING__MIN_SCORE=70 -> engine.scoring.min_score
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/gemini"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/googlebooks"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/ollama"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/rest"
	"github.com/ewilliams-labs/bookbeats/internal/adapters/spotify"
	"github.com/ewilliams-labs/bookbeats/internal/core/services"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

// Analyzer providers.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderPreset = "preset"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig          `koanf:"server"`
	Logging    logging.Config        `koanf:"logging"`
	Engine     services.EngineConfig `koanf:"engine"`
	Spotify    spotify.Options       `koanf:"spotify"`
	Analyzer   AnalyzerConfig        `koanf:"analyzer"`
	BookLookup BookLookupConfig      `koanf:"book_lookup"`
	Storage    StorageConfig         `koanf:"storage"`
	Worker     WorkerConfig          `koanf:"worker"`
	REST       rest.Options          `koanf:"rest"`
}

// ServerConfig configures the HTTP listener. WriteTimeout must cover a full
// generation, which makes several catalog round trips.
type ServerConfig struct {
	Addr              string        `koanf:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// AnalyzerConfig selects the book-analysis provider.
type AnalyzerConfig struct {
	Provider string         `koanf:"provider" validate:"oneof=ollama gemini preset"`
	Ollama   ollama.Options `koanf:"ollama"`
	Gemini   gemini.Options `koanf:"gemini"`
}

type BookLookupConfig struct {
	Enabled     bool                `koanf:"enabled"`
	GoogleBooks googlebooks.Options `koanf:"googlebooks"`
}

type StorageConfig struct {
	// Path of the SQLite history database. ":memory:" keeps history per process.
	Path string `koanf:"path" validate:"required"`
}

type WorkerConfig struct {
	Enabled   bool `koanf:"enabled"`
	Workers   int  `koanf:"workers" validate:"min=1,max=32"`
	QueueSize int  `koanf:"queue_size" validate:"min=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      90 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: logging.DefaultConfig(),
		Engine:  services.DefaultEngineConfig(),
		Spotify: spotify.DefaultOptions(),
		// Zero adapter options fall back to each client's own defaults.
		Analyzer: AnalyzerConfig{
			Provider: ProviderOllama,
			Gemini:   gemini.Options{BaseURL: gemini.DefaultBaseURL},
		},
		BookLookup: BookLookupConfig{
			Enabled:     true,
			GoogleBooks: googlebooks.Options{BaseURL: googlebooks.DefaultBaseURL},
		},
		Storage: StorageConfig{Path: "bookbeats.db"},
		Worker: WorkerConfig{
			Enabled:   true,
			Workers:   2,
			QueueSize: 100,
		},
		REST: rest.DefaultOptions(),
	}
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.Analyzer.Provider == ProviderGemini && c.Analyzer.Gemini.APIKey == "" {
		return fmt.Errorf("config: analyzer.gemini.api_key is required for the gemini provider: %w", gemini.ErrMissingAPIKey)
	}
	if c.REST.MaxTargetSize > 0 && c.Engine.TargetSize > c.REST.MaxTargetSize {
		return fmt.Errorf("config: engine.target_size %d exceeds rest.max_target_size %d", c.Engine.TargetSize, c.REST.MaxTargetSize)
	}
	return nil
}

// RequireCatalogCredentials reports missing Spotify client credentials.
func (c *Config) RequireCatalogCredentials() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return errors.New("config: spotify.client_id and spotify.client_secret are required (SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET)")
	}
	return nil
}
