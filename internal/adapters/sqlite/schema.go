package sqlite

import "strings"

const schema = `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		artists TEXT NOT NULL DEFAULT '',
		album TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		popularity INTEGER NOT NULL DEFAULT 0,
		isrc TEXT,
		cover_url TEXT,
		preview_url TEXT,
		has_features INTEGER NOT NULL DEFAULT 0,
		valence REAL,
		energy REAL,
		instrumentalness REAL,
		danceability REAL,
		acousticness REAL,
		tempo REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS playlists (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT,
		description TEXT,
		analysis_json TEXT NOT NULL,
		instrumental_only INTEGER NOT NULL DEFAULT 0,
		foreign_lyrics_ok INTEGER NOT NULL DEFAULT 0,
		threshold INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id TEXT NOT NULL,
		track_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		strategy TEXT,
		priority_boost INTEGER NOT NULL DEFAULT 0,
		quality_score INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (playlist_id, position),
		FOREIGN KEY(playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY(track_id) REFERENCES tracks(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_playlists_created_at ON playlists(created_at);
`

// addedColumns were introduced after the first schema and are added to older
// databases in place.
var addedColumns = []string{
	"ALTER TABLE tracks ADD COLUMN speechiness REAL",
	"ALTER TABLE tracks ADD COLUMN preview_energy REAL",
}

func (a *Adapter) migrate() error {
	if _, err := a.db.Exec(schema); err != nil {
		return err
	}
	for _, stmt := range addedColumns {
		if _, err := a.db.Exec(stmt); err != nil && !isDuplicateColumnError(err) {
			return err
		}
	}
	return nil
}

func isDuplicateColumnError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists"))
}
