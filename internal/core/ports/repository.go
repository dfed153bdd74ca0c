package ports

import (
	"context"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

type PlaylistRepository interface {
	GetByID(ctx context.Context, id string) (domain.Playlist, error)
	Save(ctx context.Context, p domain.Playlist) error
	UpdatePreviewEnergy(ctx context.Context, trackID string, energy float64) error
}

// PreviewQueue accepts background preview-analysis jobs without blocking.
type PreviewQueue interface {
	Enqueue(trackID, previewURL string) bool
}
