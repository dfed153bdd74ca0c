package spotify

import (
	"strings"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

const albumTypeCompilation = "compilation"

// mapTrackToDomain converts a catalog track. Compilations and tracks without an
// album or ID are dropped.
func mapTrackToDomain(st *spotifyTrack) (domain.Track, bool) {
	if st == nil || st.ID == "" || st.Album == nil {
		return domain.Track{}, false
	}
	if strings.EqualFold(st.Album.AlbumType, albumTypeCompilation) {
		return domain.Track{}, false
	}

	artists := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	dt := domain.Track{
		ID:         st.ID,
		Title:      st.Name,
		Artists:    artists,
		Album:      st.Album.Name,
		DurationMs: st.DurationMs,
		Popularity: st.Popularity,
		ISRC:       st.ExternalIDs.ISRC,
	}
	if len(artists) > 0 {
		dt.Artist = artists[0]
	}
	if len(st.Album.Images) > 0 {
		dt.CoverURL = st.Album.Images[0].URL
	}
	if st.PreviewURL != nil {
		dt.PreviewURL = *st.PreviewURL
	}
	return dt, true
}

func mapFeaturesToDomain(f spotifyAudioFeatures) domain.AudioFeatures {
	return domain.AudioFeatures{
		Valence:          f.Valence,
		Energy:           f.Energy,
		Instrumentalness: f.Instrumentalness,
		Speechiness:      f.Speechiness,
		Danceability:     f.Danceability,
		Acousticness:     f.Acousticness,
		Tempo:            f.Tempo,
	}
}
