package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
)

const maxFeatureIDs = 100

// GetAudioFeatures fetches features for up to 100 track IDs. Tracks without
// analysis are absent from the result. Catalogs that no longer expose the
// endpoint report ports.ErrFeaturesUnavailable.
func (c *Client) GetAudioFeatures(ctx context.Context, ids []string) (map[string]domain.AudioFeatures, error) {
	if !c.features {
		return nil, ports.ErrFeaturesUnavailable
	}
	if len(ids) == 0 {
		return map[string]domain.AudioFeatures{}, nil
	}
	if len(ids) > maxFeatureIDs {
		return nil, fmt.Errorf("spotify adapter: %d ids exceeds the batch limit of %d", len(ids), maxFeatureIDs)
	}

	featuresURL, err := url.Parse(c.baseURL + "/audio-features")
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid audio-features url: %w", err)
	}
	q := featuresURL.Query()
	q.Set("ids", strings.Join(ids, ","))
	featuresURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, featuresURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: failed to create audio-features request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req, "audio_features")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return nil, fmt.Errorf("spotify adapter: audio-features status %d: %w", resp.StatusCode, ports.ErrFeaturesUnavailable)
	default:
		return nil, fmt.Errorf("spotify adapter: audio-features status %d", resp.StatusCode)
	}

	var body audioFeaturesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: audio-features decode error: %w", err)
	}

	out := make(map[string]domain.AudioFeatures, len(body.AudioFeatures))
	for _, f := range body.AudioFeatures {
		if usableFeatures(f) {
			out[f.ID] = mapFeaturesToDomain(*f)
		}
	}
	return out, nil
}
