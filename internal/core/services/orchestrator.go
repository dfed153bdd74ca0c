package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/metrics"
)

// EngineConfig carries the tuning of one orchestrator.
type EngineConfig struct {
	Scoring          domain.ScoringConfig `koanf:"scoring" json:"scoring"`
	Search           GeneratorConfig      `koanf:"search" json:"search"`
	FeatureBatchSize int                  `koanf:"feature_batch_size" json:"feature_batch_size" validate:"min=1,max=100"`
	TargetSize       int                  `koanf:"target_size" json:"target_size" validate:"min=1,max=100"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Scoring:          domain.DefaultScoringConfig(),
		Search:           DefaultGeneratorConfig(),
		FeatureBatchSize: DefaultFeatureBatchSize,
		TargetSize:       domain.DefaultTargetSize,
	}
}

// Orchestrator sequences analysis, candidate generation, filtering, scoring
// and selection for one playlist request.
type Orchestrator struct {
	analyzer  ports.BookAnalyzer
	lookup    ports.BookLookup
	generator *Generator
	enricher  *FeatureEnricher
	repo      ports.PlaylistRepository
	previews  ports.PreviewQueue
	cfg       EngineConfig

	newID func() string
	now   func() time.Time
}

// NewOrchestrator constructs an Orchestrator. features and repo may be nil.
func NewOrchestrator(analyzer ports.BookAnalyzer, searcher ports.TrackSearcher, features ports.FeatureProvider, repo ports.PlaylistRepository, cfg EngineConfig) *Orchestrator {
	return &Orchestrator{
		analyzer:  analyzer,
		generator: NewGenerator(searcher, cfg.Search),
		enricher:  NewFeatureEnricher(features, cfg.FeatureBatchSize, cfg.Search.Concurrency),
		repo:      repo,
		cfg:       cfg,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// WithBookLookup resolves free-text titles to book metadata before analysis.
func (o *Orchestrator) WithBookLookup(lookup ports.BookLookup) *Orchestrator {
	o.lookup = lookup
	return o
}

// WithPreviewQueue queues feature-less tracks of saved playlists for preview analysis.
func (o *Orchestrator) WithPreviewQueue(q ports.PreviewQueue) *Orchestrator {
	o.previews = q
	return o
}

// ResolveBook looks the query up, falling back to the raw query as title.
func (o *Orchestrator) ResolveBook(ctx context.Context, query string) domain.Book {
	fallback := domain.Book{Title: query}
	if o.lookup == nil {
		return fallback
	}
	book, err := o.lookup.LookupBook(ctx, query)
	if err != nil || book.Title == "" {
		logging.Component(ctx, "orchestrator").Warn().Err(err).Str("query", query).Msg("book lookup failed, using raw title")
		return fallback
	}
	return book
}

// Analyze returns the canonical analysis of a book. It never fails: an
// unavailable analyzer yields the default analysis.
func (o *Orchestrator) Analyze(ctx context.Context, book domain.Book) domain.BookAnalysis {
	if o.analyzer == nil {
		return domain.DefaultAnalysis()
	}
	a, err := o.analyzer.AnalyzeBook(ctx, book)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeAnalysisFailed).Inc()
		logging.Component(ctx, "orchestrator").Warn().Err(err).Str("book", book.Title).Msg("analysis failed, using defaults")
		return domain.DefaultAnalysis()
	}
	return a.Normalize()
}

// AnalyzeTitle resolves and analyzes a free-text title.
func (o *Orchestrator) AnalyzeTitle(ctx context.Context, title string) (domain.Book, domain.BookAnalysis) {
	book := o.ResolveBook(ctx, title)
	return book, o.Analyze(ctx, book)
}

// GenerateForTitle runs the full pipeline from a free-text title.
func (o *Orchestrator) GenerateForTitle(ctx context.Context, title string, prefs domain.UserPreferences, targetSize int) (domain.Playlist, error) {
	book, analysis := o.AnalyzeTitle(ctx, title)
	return o.Generate(ctx, book, analysis, prefs, targetSize)
}

// Generate turns an analysis into a ranked playlist. It fails with a
// *domain.GenerationError matching domain.ErrNoCandidates or
// domain.ErrNoQualifyingTracks, or with the context's error.
func (o *Orchestrator) Generate(ctx context.Context, book domain.Book, analysis domain.BookAnalysis, prefs domain.UserPreferences, targetSize int) (domain.Playlist, error) {
	log := logging.Component(ctx, "orchestrator")
	if targetSize <= 0 {
		targetSize = o.cfg.TargetSize
	}
	analysis = analysis.Normalize()
	blacklist := domain.BuildBlacklist(analysis)
	threshold := o.cfg.Scoring.Threshold(analysis)

	candidates, err := o.generator.Generate(ctx, analysis, prefs)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.Playlist{}, fmt.Errorf("service: candidate generation: %w", err)
	}
	if len(candidates) == 0 {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeNoCandidates).Inc()
		return domain.Playlist{}, &domain.GenerationError{Kind: domain.ErrNoCandidates, Book: book.Title}
	}

	kept, rejected := domain.FilterTracks(candidates, blacklist, o.cfg.Scoring)

	enriched, err := o.enricher.Enrich(ctx, kept)
	if err != nil {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return domain.Playlist{}, fmt.Errorf("service: feature enrichment: %w", err)
	}
	kept = enriched.Tracks

	scored := make([]domain.Track, 0, len(kept))
	for _, t := range kept {
		// With a features-capable catalog, a missing entry or a failed batch
		// leaves the hard gates unverifiable.
		if t.Features == nil && !enriched.Lexical {
			rejected[domain.RejectMissingFeatures]++
			continue
		}
		verdict := domain.Assess(t, prefs, analysis, o.cfg.Scoring)
		if verdict.Rejected() {
			rejected[domain.RejectHard]++
			continue
		}
		t.QualityScore = verdict.Score
		scored = append(scored, t)
	}
	qualifying := domain.AtOrAbove(scored, threshold)
	if below := len(scored) - len(qualifying); below > 0 {
		rejected[domain.RejectBelowThreshold] += below
	}
	metrics.RecordRejections(rejected)

	log.Info().
		Str("book", book.Title).
		Int("candidates", len(candidates)).
		Int("filtered", len(kept)).
		Int("qualifying", len(qualifying)).
		Int("threshold", threshold).
		Msg("scored candidates")

	if len(qualifying) == 0 {
		metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeNoQualifying).Inc()
		return domain.Playlist{}, &domain.GenerationError{
			Kind:       domain.ErrNoQualifyingTracks,
			Book:       book.Title,
			Candidates: len(candidates),
			Threshold:  threshold,
		}
	}

	pl, err := domain.NewPlaylist(o.newID(), book)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("service: %w", err)
	}
	for _, t := range domain.SelectTracks(qualifying, targetSize) {
		if err := pl.AddTrack(t); err != nil {
			return domain.Playlist{}, fmt.Errorf("service: domain rule violation: %w", err)
		}
	}
	pl.Analysis = analysis
	pl.Preferences = prefs
	pl.Threshold = threshold
	pl.CreatedAt = o.now().UTC()

	o.persist(ctx, *pl)
	metrics.GenerationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return *pl, nil
}

// persist stores the playlist in history. Failures are logged only.
func (o *Orchestrator) persist(ctx context.Context, pl domain.Playlist) {
	if o.repo == nil {
		return
	}
	log := logging.Component(ctx, "orchestrator")
	if err := o.repo.Save(ctx, pl); err != nil {
		log.Warn().Err(err).Str("playlist_id", pl.ID).Msg("failed to save playlist history")
		return
	}
	if o.previews == nil {
		return
	}
	for _, t := range pl.Tracks {
		if t.Features == nil && t.PreviewURL != "" {
			o.previews.Enqueue(t.ID, t.PreviewURL)
		}
	}
}

// GetPlaylist loads a stored playlist.
func (o *Orchestrator) GetPlaylist(ctx context.Context, id string) (domain.Playlist, error) {
	if o.repo == nil {
		return domain.Playlist{}, domain.ErrNotFound
	}
	pl, err := o.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Playlist{}, err
		}
		return domain.Playlist{}, fmt.Errorf("service: failed to load playlist: %w", err)
	}
	return pl, nil
}
