package store

import (
	"database/sql"
)

const currentSchemaVersion = 1

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS library_info (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			source_path TEXT NOT NULL,
			parsed_at INTEGER,
			file_size INTEGER NOT NULL,
			version TEXT NOT NULL,
			major_version INTEGER NOT NULL,
			minor_version INTEGER NOT NULL,
			library_id TEXT NOT NULL,
			header_tracks INTEGER NOT NULL,
			header_playlists INTEGER NOT NULL,
			header_albums INTEGER NOT NULL,
			header_artists INTEGER NOT NULL,
			sections INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			aborted TEXT
		);

		CREATE TABLE IF NOT EXISTS tracks (
			persistent_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT NOT NULL,
			album_artist TEXT NOT NULL,
			composer TEXT NOT NULL,
			genre TEXT NOT NULL,
			kind TEXT NOT NULL,
			comment TEXT NOT NULL,
			grouping TEXT NOT NULL,
			sort_title TEXT NOT NULL,
			sort_album TEXT NOT NULL,
			sort_artist TEXT NOT NULL,
			sort_album_artist TEXT NOT NULL,
			sort_composer TEXT NOT NULL,
			work_name TEXT NOT NULL,
			movement_name TEXT NOT NULL,
			movement_number INTEGER,
			movement_count INTEGER,
			year INTEGER,
			track_number INTEGER,
			rating INTEGER,
			like_status INTEGER NOT NULL,
			duration_ms INTEGER,
			bit_rate INTEGER,
			sample_rate INTEGER,
			file_size INTEGER,
			play_count INTEGER NOT NULL,
			last_played INTEGER,
			date_added INTEGER,
			date_modified INTEGER,
			file_path TEXT NOT NULL,
			file_url TEXT NOT NULL,
			album_ref TEXT,
			artist_ref TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_tracks_artist_album ON tracks(artist, album);
		CREATE INDEX IF NOT EXISTS idx_tracks_album_ref ON tracks(album_ref);

		CREATE TABLE IF NOT EXISTS albums (
			persistent_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album_artist TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS artists (
			persistent_id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			persistent_id TEXT NOT NULL,
			section_offset INTEGER NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			parent_id TEXT,
			distinguished_kind INTEGER NOT NULL,
			smart INTEGER NOT NULL,
			track_count INTEGER NOT NULL,
			created_at INTEGER,
			modified_at INTEGER,
			UNIQUE(persistent_id, section_offset)
		);

		CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_rowid INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			PRIMARY KEY (playlist_rowid, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_tracks_track ON playlist_tracks(track_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS tracks_fts USING fts5(
			search_text,
			persistent_id UNINDEXED,
			title UNINDEXED,
			artist UNINDEXED,
			album UNINDEXED,
			tokenize='trigram'
		);
	`)
	if err != nil {
		return err
	}

	// Set initial version if not exists
	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
