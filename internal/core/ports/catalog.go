package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

// ErrFeaturesUnavailable signals a feature-reduced catalog deployment. Callers
// fall back to the lexical scoring heuristic.
var ErrFeaturesUnavailable = errors.New("audio features unavailable")

// ErrCircuitOpen is returned while the catalog circuit breaker rejects calls.
var ErrCircuitOpen = errors.New("catalog circuit open")

// TrackSearcher runs one free-text catalog search.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error)
}

// FeatureProvider fetches audio features for one batch of track ids.
// Tracks without usable features are absent from the result.
type FeatureProvider interface {
	GetAudioFeatures(ctx context.Context, ids []string) (map[string]domain.AudioFeatures, error)
}

// TokenSource yields a bearer token and its expiry.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, time.Time, error)
}
