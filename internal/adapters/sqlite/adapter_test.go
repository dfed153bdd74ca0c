package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(":memory:")
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func samplePlaylist(id string) domain.Playlist {
	return domain.Playlist{
		ID:   id,
		Book: domain.Book{Title: "Snow", Author: "Orhan Pamuk"},
		Analysis: domain.BookAnalysis{
			Mood:              []string{"melancholic"},
			SensitiveTopics:   []string{"suicide"},
			GeographicSetting: "Kars, Turkey",
		}.Normalize(),
		Preferences: domain.UserPreferences{InstrumentalOnly: true},
		Threshold:   80,
		CreatedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Tracks: []domain.Track{
			{
				ID:            "t1",
				Title:         "Song One",
				Artist:        "Artist A",
				Artists:       []string{"Artist A", "Artist B"},
				Album:         "Album A",
				DurationMs:    123000,
				Popularity:    20,
				ISRC:          "ISRC-1",
				CoverURL:      "https://img.test/1.jpg",
				Strategy:      "artist",
				PriorityBoost: 25,
				QualityScore:  100,
				Features: &domain.AudioFeatures{
					Valence:          0.2,
					Energy:           0.4,
					Instrumentalness: 0.9,
					Speechiness:      0.05,
					Tempo:            100,
				},
			},
			{
				ID:           "t2",
				Title:        "Song Two",
				Artist:       "Artist C",
				Album:        "Album C",
				PreviewURL:   "https://p.test/2.mp3",
				Strategy:     "genre",
				QualityScore: 85,
			},
		},
	}
}

func TestAdapter_GetByID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, a *Adapter) string
		wantErr    error
		wantTitle  string
		wantTracks []string
	}{
		{
			name: "not found",
			setup: func(t *testing.T, a *Adapter) string {
				return "missing"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "returns playlist with ordered tracks",
			setup: func(t *testing.T, a *Adapter) string {
				p := samplePlaylist("pl-1")
				if err := a.Save(context.Background(), p); err != nil {
					t.Fatalf("save playlist: %v", err)
				}
				return p.ID
			},
			wantTitle:  "Snow",
			wantTracks: []string{"t1", "t2"},
		},
		{
			name: "re-save replaces track order",
			setup: func(t *testing.T, a *Adapter) string {
				p := samplePlaylist("pl-2")
				if err := a.Save(context.Background(), p); err != nil {
					t.Fatalf("save playlist: %v", err)
				}
				p.Tracks = []domain.Track{p.Tracks[1], p.Tracks[0]}
				if err := a.Save(context.Background(), p); err != nil {
					t.Fatalf("re-save playlist: %v", err)
				}
				return p.ID
			},
			wantTitle:  "Snow",
			wantTracks: []string{"t2", "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t)

			playlistID := tt.setup(t, a)
			got, err := a.GetByID(context.Background(), playlistID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Book.Title != tt.wantTitle {
				t.Fatalf("title: got %q, want %q", got.Book.Title, tt.wantTitle)
			}
			if len(got.Tracks) != len(tt.wantTracks) {
				t.Fatalf("tracks: got %d, want %d", len(got.Tracks), len(tt.wantTracks))
			}
			for i, id := range tt.wantTracks {
				if got.Tracks[i].ID != id {
					t.Fatalf("track %d: got %s, want %s", i, got.Tracks[i].ID, id)
				}
			}
		})
	}
}

func TestAdapter_RoundTrip(t *testing.T) {
	a := newTestAdapter(t)
	want := samplePlaylist("pl-rt")
	if err := a.Save(context.Background(), want); err != nil {
		t.Fatalf("save playlist: %v", err)
	}

	got, err := a.GetByID(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Threshold != 80 || !got.Preferences.InstrumentalOnly || got.Preferences.ForeignLyricsOk {
		t.Fatalf("metadata not preserved: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Fatalf("created_at: got %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.Analysis.GeographicSetting != "Kars, Turkey" || !got.Analysis.IsSensitive() {
		t.Fatalf("analysis not preserved: %+v", got.Analysis)
	}

	first := got.Tracks[0]
	if first.Features == nil || first.Features.Speechiness != 0.05 {
		t.Fatalf("features not preserved: %+v", first.Features)
	}
	if len(first.Artists) != 2 || first.Artists[1] != "Artist B" {
		t.Fatalf("artists not preserved: %v", first.Artists)
	}
	if first.Strategy != "artist" || first.PriorityBoost != 25 || first.QualityScore != 100 {
		t.Fatalf("engine fields not preserved: %+v", first)
	}
	if got.Tracks[1].Features != nil {
		t.Fatalf("track without features must load with nil features")
	}
}

func TestAdapter_UpdatePreviewEnergy(t *testing.T) {
	a := newTestAdapter(t)
	p := samplePlaylist("pl-pe")
	if err := a.Save(context.Background(), p); err != nil {
		t.Fatalf("save playlist: %v", err)
	}

	if err := a.UpdatePreviewEnergy(context.Background(), "t2", 0.42); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := a.UpdatePreviewEnergy(context.Background(), "nope", 0.1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A later save of the same track keeps the worker's estimate.
	if err := a.Save(context.Background(), p); err != nil {
		t.Fatalf("re-save playlist: %v", err)
	}

	got, err := a.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tracks[1].PreviewEnergy == nil || *got.Tracks[1].PreviewEnergy != 0.42 {
		t.Fatalf("preview energy: got %v", got.Tracks[1].PreviewEnergy)
	}
	if got.Tracks[0].PreviewEnergy != nil {
		t.Fatalf("unexpected preview energy on t1")
	}
}

func TestAdapter_FeatureSummary(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, a *Adapter) string
		wantErr  error
		wantN    int
		expected domain.AudioFeatures
	}{
		{
			name: "not found",
			setup: func(t *testing.T, a *Adapter) string {
				return "missing"
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "averages only tracks with features",
			setup: func(t *testing.T, a *Adapter) string {
				p := samplePlaylist("pl-avg")
				p.Tracks = append(p.Tracks, domain.Track{
					ID:     "t3",
					Title:  "Song Three",
					Artist: "Artist D",
					Features: &domain.AudioFeatures{
						Valence:          0.6,
						Energy:           0.2,
						Instrumentalness: 0.5,
						Speechiness:      0.15,
						Tempo:            120,
					},
				})
				if err := a.Save(context.Background(), p); err != nil {
					t.Fatalf("save playlist: %v", err)
				}
				return p.ID
			},
			wantN: 2,
			expected: domain.AudioFeatures{
				Valence:          0.4,
				Energy:           0.3,
				Instrumentalness: 0.7,
				Speechiness:      0.1,
				Tempo:            110,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t)

			playlistID := tt.setup(t, a)
			got, n, err := a.FeatureSummary(context.Background(), playlistID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tt.wantN {
				t.Fatalf("n: got %d, want %d", n, tt.wantN)
			}
			if !featuresEqual(got, tt.expected, 1e-9) {
				t.Fatalf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestAdapter_ListRecent(t *testing.T) {
	a := newTestAdapter(t)

	older := samplePlaylist("old")
	newer := samplePlaylist("new")
	newer.Book.Title = "Giovanni's Room"
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	for _, p := range []domain.Playlist{older, newer} {
		if err := a.Save(context.Background(), p); err != nil {
			t.Fatalf("save playlist: %v", err)
		}
	}

	got, err := a.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].TrackCount != 2 || got[0].Book.Title != "Giovanni's Room" {
		t.Fatalf("unexpected summary: %+v", got[0])
	}
}

func featuresEqual(a, b domain.AudioFeatures, tol float64) bool {
	return floatEquals(a.Danceability, b.Danceability, tol) &&
		floatEquals(a.Energy, b.Energy, tol) &&
		floatEquals(a.Valence, b.Valence, tol) &&
		floatEquals(a.Tempo, b.Tempo, tol) &&
		floatEquals(a.Instrumentalness, b.Instrumentalness, tol) &&
		floatEquals(a.Speechiness, b.Speechiness, tol) &&
		floatEquals(a.Acousticness, b.Acousticness, tol)
}

func floatEquals(a, b, tol float64) bool {
	if a == b {
		return true
	}
	if a > b {
		return a-b <= tol
	}
	return b-a <= tol
}
