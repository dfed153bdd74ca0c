package spotify

// spotifyTrack is the full track object returned by /search.
type spotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DurationMs  int             `json:"duration_ms"`
	Popularity  int             `json:"popularity"`
	PreviewURL  *string         `json:"preview_url"`
	Artists     []spotifyArtist `json:"artists"`
	Album       *spotifyAlbum   `json:"album"`
	ExternalIDs struct {
		ISRC string `json:"isrc"`
	} `json:"external_ids"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name      string `json:"name"`
	AlbumType string `json:"album_type"`
	Images    []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type searchResponse struct {
	Tracks struct {
		Items []*spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// spotifyAudioFeatures is one entry of /audio-features. Entries are null for
// tracks the catalog has no analysis for.
type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Instrumentalness float64 `json:"instrumentalness"`
	Acousticness     float64 `json:"acousticness"`
	Speechiness      float64 `json:"speechiness"`
}

type audioFeaturesResponse struct {
	AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
}
