package domain

import "strings"

// AudioFeatures holds the catalog-provided per-track descriptors, each in [0,1]
// except Tempo (BPM).
type AudioFeatures struct {
	Valence          float64 `json:"valence"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Speechiness      float64 `json:"speechiness"`
	Danceability     float64 `json:"danceability"`
	Acousticness     float64 `json:"acousticness"`
	Tempo            float64 `json:"tempo"`
}

// Track represents a candidate track in the domain layer.
// Identity is the catalog ID.
type Track struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Artist     string         `json:"artist"` // primary artist
	Artists    []string       `json:"artists,omitempty"`
	Album      string         `json:"album"`
	DurationMs int            `json:"duration_ms"`
	Popularity int            `json:"popularity"`
	ISRC       string         `json:"isrc,omitempty"`
	CoverURL   string         `json:"cover_url,omitempty"`
	PreviewURL string         `json:"preview_url,omitempty"`
	Features   *AudioFeatures `json:"features,omitempty"` // nil when the catalog does not expose features

	// PreviewEnergy is the loudness estimate from the preview clip, filled in
	// after persistence for tracks without catalog features.
	PreviewEnergy *float64 `json:"preview_energy,omitempty"`

	// Engine-attached fields.
	Strategy      string `json:"strategy,omitempty"`
	PriorityBoost int    `json:"priority_boost"`
	QualityScore  int    `json:"quality_score"`
}

// SearchText is the case-folded text the blacklist and lexical heuristics match against.
func (t Track) SearchText() string {
	return strings.ToLower(t.Title + " " + t.Artist + " " + t.Album)
}

// DurationMinutes returns the track length in minutes.
func (t Track) DurationMinutes() float64 {
	return float64(t.DurationMs) / 60000.0
}
