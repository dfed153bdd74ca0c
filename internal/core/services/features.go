package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

// DefaultFeatureBatchSize stays under the catalog's per-request id ceiling.
const DefaultFeatureBatchSize = 50

// FeatureEnricher attaches audio features to candidates in fixed-size batches.
// A nil provider leaves every track on the lexical heuristic.
type FeatureEnricher struct {
	provider    ports.FeatureProvider
	batchSize   int
	concurrency int
}

func NewFeatureEnricher(provider ports.FeatureProvider, batchSize, concurrency int) *FeatureEnricher {
	if batchSize < 1 {
		batchSize = DefaultFeatureBatchSize
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &FeatureEnricher{provider: provider, batchSize: batchSize, concurrency: concurrency}
}

// Enrichment is the result of one Enrich call.
type Enrichment struct {
	Tracks []domain.Track
	// Lexical is set when the catalog serves no audio features at all. Only
	// then may a track without features be scored from lexical cues.
	Lexical bool
}

// Enrich returns tracks with Features set wherever the catalog supplied them.
// A failed batch leaves its tracks without features; only cancellation is returned.
func (e *FeatureEnricher) Enrich(ctx context.Context, tracks []domain.Track) (Enrichment, error) {
	if e == nil || e.provider == nil {
		return Enrichment{Tracks: tracks, Lexical: true}, nil
	}
	if len(tracks) == 0 {
		return Enrichment{Tracks: tracks}, nil
	}

	ids := make([]string, 0, len(tracks))
	seen := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		if t.Features != nil {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		ids = append(ids, t.ID)
	}

	log := logging.Component(ctx, "features")
	var (
		mu          sync.Mutex
		features    = make(map[string]domain.AudioFeatures, len(ids))
		unavailable bool
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for start := 0; start < len(ids); start += e.batchSize {
		batch := ids[start:min(start+e.batchSize, len(ids))]
		eg.Go(func() error {
			got, err := e.provider.GetAudioFeatures(egCtx, batch)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if errors.Is(err, ports.ErrFeaturesUnavailable) {
					mu.Lock()
					unavailable = true
					mu.Unlock()
					log.Debug().Int("batch", len(batch)).Msg("audio features unavailable, using lexical scoring")
				} else {
					log.Warn().Err(err).Int("batch", len(batch)).Msg("audio feature batch failed, its tracks will be rejected")
				}
				return nil
			}
			mu.Lock()
			for id, f := range got {
				features[id] = f
			}
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Enrichment{}, fmt.Errorf("features: %w", err)
	}

	out := make([]domain.Track, len(tracks))
	for i, t := range tracks {
		if f, ok := features[t.ID]; ok && t.Features == nil {
			t.Features = &f
		}
		out[i] = t
	}
	return Enrichment{Tracks: out, Lexical: unavailable}, nil
}
