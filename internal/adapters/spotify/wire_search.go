package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

const maxSearchLimit = 50

// SearchTracks runs a catalog track search restricted to the configured market.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	limit = min(max(limit, 1), maxSearchLimit)

	searchURL, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid search url: %w", err)
	}
	q := searchURL.Query()
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(limit))
	if c.market != "" {
		q.Set("market", c.market)
	}
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: failed to create search request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req, "search")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: search decode error: %w", err)
	}

	tracks := make([]domain.Track, 0, len(body.Tracks.Items))
	for _, item := range body.Tracks.Items {
		if t, ok := mapTrackToDomain(item); ok {
			tracks = append(tracks, t)
		}
	}

	logging.Component(ctx, "spotify").Debug().
		Str("query", query).
		Int("returned", len(body.Tracks.Items)).
		Int("kept", len(tracks)).
		Msg("search complete")
	return tracks, nil
}
