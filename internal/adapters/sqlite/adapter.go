// Package sqlite provides a SQLite-backed implementation of the playlist history port.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/bookbeats/internal/core/domain"
	"github.com/ewilliams-labs/bookbeats/internal/core/ports"
)

// Adapter implements the repository port for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.PlaylistRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Playlist, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, title, author, description, analysis_json,
			instrumental_only, foreign_lyrics_ok, threshold, created_at
		FROM playlists WHERE id = ?`, id)

	var (
		p            domain.Playlist
		author, desc sql.NullString
		analysisJSON string
		createdAt    string
	)
	if err := row.Scan(
		&p.ID,
		&p.Book.Title,
		&author,
		&desc,
		&analysisJSON,
		&p.Preferences.InstrumentalOnly,
		&p.Preferences.ForeignLyricsOk,
		&p.Threshold,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Playlist{}, domain.ErrNotFound
		}
		return domain.Playlist{}, fmt.Errorf("failed to load playlist: %w", err)
	}
	p.Book.Author = author.String
	p.Book.Description = desc.String

	if err := json.Unmarshal([]byte(analysisJSON), &p.Analysis); err != nil {
		return domain.Playlist{}, fmt.Errorf("failed to decode playlist analysis: %w", err)
	}
	p.Analysis = p.Analysis.Normalize()

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("failed to parse playlist timestamp: %w", err)
	}
	p.CreatedAt = created

	tracks, err := a.loadTracks(ctx, p.ID)
	if err != nil {
		return domain.Playlist{}, err
	}
	p.Tracks = tracks

	return p, nil
}

func (a *Adapter) loadTracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.artist, t.artists, t.album, t.duration_ms, t.popularity,
			t.isrc, t.cover_url, t.preview_url,
			t.has_features, IFNULL(t.valence, 0), IFNULL(t.energy, 0), IFNULL(t.instrumentalness, 0),
			IFNULL(t.speechiness, 0), IFNULL(t.danceability, 0), IFNULL(t.acousticness, 0), IFNULL(t.tempo, 0),
			t.preview_energy,
			pt.strategy, pt.priority_boost, pt.quality_score
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist tracks: %w", err)
	}
	defer rows.Close()

	tracks := []domain.Track{}
	for rows.Next() {
		var (
			track         domain.Track
			artists       string
			album         sql.NullString
			isrc          sql.NullString
			coverURL      sql.NullString
			previewURL    sql.NullString
			hasFeatures   bool
			f             domain.AudioFeatures
			previewEnergy sql.NullFloat64
			strategy      sql.NullString
		)
		if err := rows.Scan(
			&track.ID,
			&track.Title,
			&track.Artist,
			&artists,
			&album,
			&track.DurationMs,
			&track.Popularity,
			&isrc,
			&coverURL,
			&previewURL,
			&hasFeatures,
			&f.Valence,
			&f.Energy,
			&f.Instrumentalness,
			&f.Speechiness,
			&f.Danceability,
			&f.Acousticness,
			&f.Tempo,
			&previewEnergy,
			&strategy,
			&track.PriorityBoost,
			&track.QualityScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		if artists != "" {
			track.Artists = strings.Split(artists, artistSeparator)
		}
		track.Album = album.String
		track.ISRC = isrc.String
		track.CoverURL = coverURL.String
		track.PreviewURL = previewURL.String
		track.Strategy = strategy.String
		if hasFeatures {
			track.Features = &f
		}
		if previewEnergy.Valid {
			e := previewEnergy.Float64
			track.PreviewEnergy = &e
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlist tracks: %w", err)
	}
	return tracks, nil
}

// Summary is a history row without its tracks.
type Summary struct {
	ID         string      `json:"id"`
	Book       domain.Book `json:"book"`
	Threshold  int         `json:"threshold"`
	TrackCount int         `json:"track_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

// ListRecent returns the newest playlists first.
func (a *Adapter) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.author, p.threshold, p.created_at, COUNT(pt.track_id)
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON pt.playlist_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			p         Summary
			author    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Book.Title, &author, &p.Threshold, &createdAt, &p.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		p.Book.Author = author.String
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			p.CreatedAt = t
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}
	return out, nil
}

// FeatureSummary averages the catalog features of a stored playlist's tracks.
// Tracks without features are excluded; n is the number averaged.
func (a *Adapter) FeatureSummary(ctx context.Context, playlistID string) (domain.AudioFeatures, int, error) {
	var id string
	if err := a.db.QueryRowContext(ctx, "SELECT id FROM playlists WHERE id = ?", playlistID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AudioFeatures{}, 0, domain.ErrNotFound
		}
		return domain.AudioFeatures{}, 0, fmt.Errorf("failed to load playlist: %w", err)
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(AVG(t.valence), 0),
			COALESCE(AVG(t.energy), 0),
			COALESCE(AVG(t.instrumentalness), 0),
			COALESCE(AVG(t.speechiness), 0),
			COALESCE(AVG(t.danceability), 0),
			COALESCE(AVG(t.acousticness), 0),
			COALESCE(AVG(t.tempo), 0)
		FROM tracks t
		JOIN playlist_tracks pt ON pt.track_id = t.id
		WHERE pt.playlist_id = ? AND t.has_features = 1
	`

	var (
		n        int
		features domain.AudioFeatures
	)
	if err := a.db.QueryRowContext(ctx, query, playlistID).Scan(
		&n,
		&features.Valence,
		&features.Energy,
		&features.Instrumentalness,
		&features.Speechiness,
		&features.Danceability,
		&features.Acousticness,
		&features.Tempo,
	); err != nil {
		return domain.AudioFeatures{}, 0, fmt.Errorf("failed to load playlist audio features: %w", err)
	}

	return features, n, nil
}

// UpdatePreviewEnergy records the preview loudness estimate for a track.
func (a *Adapter) UpdatePreviewEnergy(ctx context.Context, trackID string, energy float64) error {
	res, err := a.db.ExecContext(ctx, "UPDATE tracks SET preview_energy = ? WHERE id = ?", energy, trackID)
	if err != nil {
		return fmt.Errorf("failed to update preview energy: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (a *Adapter) Save(ctx context.Context, p domain.Playlist) error {
	analysisJSON, err := json.Marshal(p.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode playlist analysis: %w", err)
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO playlists (id, title, author, description, analysis_json,
			instrumental_only, foreign_lyrics_ok, threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			author=excluded.author,
			description=excluded.description,
			analysis_json=excluded.analysis_json,
			instrumental_only=excluded.instrumental_only,
			foreign_lyrics_ok=excluded.foreign_lyrics_ok,
			threshold=excluded.threshold;
	`,
		p.ID,
		p.Book.Title,
		p.Book.Author,
		p.Book.Description,
		string(analysisJSON),
		p.Preferences.InstrumentalOnly,
		p.Preferences.ForeignLyricsOk,
		p.Threshold,
		createdAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to save playlist metadata: %w", err)
	}

	// Re-saving replaces the track order; the tracks themselves are shared.
	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE playlist_id = ?", p.ID); err != nil {
		return fmt.Errorf("failed to clear old tracks: %w", err)
	}

	// preview_energy is owned by the worker and survives re-saves.
	stmtTrack, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (
			id, title, artist, artists, album, duration_ms, popularity, isrc, cover_url, preview_url,
			has_features, valence, energy, instrumentalness, speechiness, danceability, acousticness, tempo
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			artist=excluded.artist,
			artists=excluded.artists,
			album=excluded.album,
			duration_ms=excluded.duration_ms,
			popularity=excluded.popularity,
			isrc=excluded.isrc,
			cover_url=excluded.cover_url,
			preview_url=excluded.preview_url,
			has_features=excluded.has_features,
			valence=excluded.valence,
			energy=excluded.energy,
			instrumentalness=excluded.instrumentalness,
			speechiness=excluded.speechiness,
			danceability=excluded.danceability,
			acousticness=excluded.acousticness,
			tempo=excluded.tempo;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track upsert: %w", err)
	}
	defer stmtTrack.Close()

	stmtLink, err := tx.PrepareContext(ctx, `
		INSERT INTO playlist_tracks (playlist_id, track_id, position, strategy, priority_boost, quality_score)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare track link: %w", err)
	}
	defer stmtLink.Close()

	for i, t := range p.Tracks {
		var (
			hasFeatures bool
			f           domain.AudioFeatures
		)
		if t.Features != nil {
			hasFeatures = true
			f = *t.Features
		}
		if _, err := stmtTrack.ExecContext(
			ctx,
			t.ID,
			t.Title,
			t.Artist,
			strings.Join(t.Artists, artistSeparator),
			t.Album,
			t.DurationMs,
			t.Popularity,
			t.ISRC,
			t.CoverURL,
			t.PreviewURL,
			hasFeatures,
			nullIfMissing(hasFeatures, f.Valence),
			nullIfMissing(hasFeatures, f.Energy),
			nullIfMissing(hasFeatures, f.Instrumentalness),
			nullIfMissing(hasFeatures, f.Speechiness),
			nullIfMissing(hasFeatures, f.Danceability),
			nullIfMissing(hasFeatures, f.Acousticness),
			nullIfMissing(hasFeatures, f.Tempo),
		); err != nil {
			return fmt.Errorf("failed to save track %s: %w", t.ID, err)
		}
		if _, err := stmtLink.ExecContext(ctx, p.ID, t.ID, i, t.Strategy, t.PriorityBoost, t.QualityScore); err != nil {
			return fmt.Errorf("failed to link track %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}

	return nil
}

const artistSeparator = "\x1f"

func nullIfMissing(ok bool, v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}
