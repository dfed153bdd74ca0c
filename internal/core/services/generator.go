package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
	"github.com/ewilliams-labs/bookbeats/internal/metrics"
)

// Search strategies, in priority order.
const (
	StrategyArtist         = "artist"
	StrategyGeographic     = "geographic"
	StrategyMoodInstrument = "mood_instrument"
	StrategyGenre          = "genre"
	StrategyAtmospheric    = "atmospheric"
	StrategyTimePeriod     = "time_period"
)

const (
	artistLimit      = 15
	geographicLimit  = 20
	moodLimit        = 12
	genreLimit       = 15
	atmosphericLimit = 10
	timePeriodLimit  = 15

	instrumentalQualifier = "instrumental"
)

var (
	fallbackInstruments = []string{"piano", "strings", "ambient"}
	fallbackDescriptors = []string{"atmospheric", "cinematic", "ambient"}

	geographicTemplates = []string{
		"%s traditional music",
		"%s folk music",
		"%s instrumental",
		"%s classical music",
	}
	timePeriodTemplates = []string{
		"%s instrumental",
		"%s classical",
		"%s soundtrack",
	}

	// culturalGenres is consulted by setting substring when the analysis suggests no genres.
	culturalGenres = []struct {
		setting string
		genres  []string
	}{
		{"turkey", []string{"turkish classical", "turkish folk", "ottoman classical"}},
		{"romania", []string{"romanian folk", "romanian classical"}},
		{"japan", []string{"japanese traditional", "gagaku", "shamisen"}},
		{"india", []string{"indian classical", "raga", "sitar"}},
		{"middle east", []string{"arabic classical", "oud", "qanun"}},
		{"russia", []string{"russian classical", "russian folk"}},
		{"ireland", []string{"irish traditional", "celtic"}},
		{"spain", []string{"flamenco", "spanish classical"}},
		{"brazil", []string{"bossa nova", "brazilian jazz"}},
		{"africa", []string{"african traditional", "kora", "mbira"}},
	}
	noSettingGenres = []string{"ambient", "classical", "instrumental"}
	unmappedGenres  = []string{"world music", "ethnic", "traditional"}
)

// GeneratorConfig bounds the fan-out of the candidate generator.
type GeneratorConfig struct {
	Concurrency     int `koanf:"concurrency" json:"concurrency" validate:"min=1,max=16"`
	ArtistCap       int `koanf:"artist_cap" json:"artist_cap" validate:"min=0"`
	MoodCap         int `koanf:"mood_cap" json:"mood_cap" validate:"min=0"`
	InstrumentCap   int `koanf:"instrument_cap" json:"instrument_cap" validate:"min=0"`
	GenreCap        int `koanf:"genre_cap" json:"genre_cap" validate:"min=0"`
	DescriptorCap   int `koanf:"descriptor_cap" json:"descriptor_cap" validate:"min=0"`
	ArtistBoost     int `koanf:"artist_boost" json:"artist_boost"`
	GeographicBoost int `koanf:"geographic_boost" json:"geographic_boost"`
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Concurrency:     4,
		ArtistCap:       6,
		MoodCap:         2,
		InstrumentCap:   3,
		GenreCap:        4,
		DescriptorCap:   3,
		ArtistBoost:     25,
		GeographicBoost: 15,
	}
}

// SubQuery is one catalog search issued by a strategy.
type SubQuery struct {
	Strategy string
	Query    string
	Limit    int
	Boost    int
	Artist   string // set for artist searches; the boost requires a fuzzy artist match
}

// Generator runs the search strategies against a catalog.
type Generator struct {
	searcher ports.TrackSearcher
	cfg      GeneratorConfig
}

func NewGenerator(searcher ports.TrackSearcher, cfg GeneratorConfig) *Generator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Generator{searcher: searcher, cfg: cfg}
}

// Plan lists the sub-queries for an analysis in strategy priority order.
func (g *Generator) Plan(a domain.BookAnalysis, prefs domain.UserPreferences) []SubQuery {
	var plan []SubQuery
	add := func(strategy, query string, limit, boost int, artist string) {
		plan = append(plan, SubQuery{
			Strategy: strategy,
			Query:    qualify(query, prefs),
			Limit:    limit,
			Boost:    boost,
			Artist:   artist,
		})
	}

	for _, artist := range head(a.SuggestedArtists, g.cfg.ArtistCap) {
		add(StrategyArtist, fmt.Sprintf("artist:%q", artist), artistLimit, g.cfg.ArtistBoost, artist)
	}

	if prefs.ForeignLyricsOk && a.GeographicSetting != "" {
		for _, tmpl := range geographicTemplates {
			add(StrategyGeographic, fmt.Sprintf(tmpl, a.GeographicSetting), geographicLimit, g.cfg.GeographicBoost, "")
		}
	}

	moods := head(a.Mood, g.cfg.MoodCap)
	instruments := head(a.InstrumentPalette, g.cfg.InstrumentCap)
	if len(instruments) == 0 {
		instruments = fallbackInstruments
	}
	for _, mood := range moods {
		for _, instrument := range instruments {
			add(StrategyMoodInstrument, instrument+" "+mood, moodLimit, 0, "")
		}
	}

	genres := head(a.GenreSuggestions, g.cfg.GenreCap)
	if len(genres) == 0 {
		genres = settingGenres(a.GeographicSetting)
	}
	for _, genre := range genres {
		add(StrategyGenre, fmt.Sprintf("genre:%q", genre), genreLimit, 0, "")
	}

	descriptors := head(a.AtmosphericDescriptors, g.cfg.DescriptorCap)
	if len(descriptors) == 0 {
		descriptors = fallbackDescriptors
	}
	for _, mood := range moods {
		for _, descriptor := range descriptors {
			add(StrategyAtmospheric, mood+" "+descriptor, atmosphericLimit, 0, "")
		}
	}

	if a.TimePeriod != "" {
		for _, tmpl := range timePeriodTemplates {
			add(StrategyTimePeriod, fmt.Sprintf(tmpl, a.TimePeriod), timePeriodLimit, 0, "")
		}
	}

	return plan
}

// Generate runs every planned sub-query with bounded concurrency and returns the
// tagged candidates in plan order. A failed sub-query is logged and contributes
// nothing. The only error is the caller's context ending.
func (g *Generator) Generate(ctx context.Context, a domain.BookAnalysis, prefs domain.UserPreferences) ([]domain.Track, error) {
	plan := g.Plan(a, prefs)
	results := make([][]domain.Track, len(plan))
	log := logging.Component(ctx, "generator")

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for i, q := range plan {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			tracks, err := g.searcher.SearchTracks(egCtx, q.Query, q.Limit)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				metrics.SubQueryFailures.WithLabelValues(q.Strategy).Inc()
				log.Warn().Err(err).Str("strategy", q.Strategy).Str("query", q.Query).Msg("sub-query failed")
				return nil
			}
			results[i] = tag(tracks, q)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	var candidates []domain.Track
	perStrategy := make(map[string]int)
	for _, r := range results {
		for _, t := range r {
			perStrategy[t.Strategy]++
		}
		candidates = append(candidates, r...)
	}
	for strategy, n := range perStrategy {
		metrics.CandidatesTotal.WithLabelValues(strategy).Add(float64(n))
	}
	log.Debug().Int("sub_queries", len(plan)).Int("candidates", len(candidates)).Msg("candidate generation finished")

	return candidates, nil
}

func tag(tracks []domain.Track, q SubQuery) []domain.Track {
	out := make([]domain.Track, 0, len(tracks))
	for _, t := range tracks {
		t.Strategy = q.Strategy
		t.PriorityBoost = q.Boost
		if q.Artist != "" && !domain.ArtistMatches(q.Artist, append([]string{t.Artist}, t.Artists...)...) {
			t.PriorityBoost = 0
		}
		out = append(out, t)
	}
	return out
}

func qualify(query string, prefs domain.UserPreferences) string {
	if !prefs.InstrumentalOnly || strings.Contains(strings.ToLower(query), instrumentalQualifier) {
		return query
	}
	return query + " " + instrumentalQualifier
}

func settingGenres(setting string) []string {
	if setting == "" {
		return noSettingGenres
	}
	s := strings.ToLower(setting)
	for _, c := range culturalGenres {
		if strings.Contains(s, c.setting) {
			return c.genres
		}
	}
	return unmappedGenres
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
