// Package store writes decoded library snapshots to SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pitetb/AppMusicLibParser/internal/db"
	"github.com/pitetb/AppMusicLibParser/internal/library"
)

type Store struct {
	db *sql.DB
}

// Open opens or creates the export database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory database alive and serializes writes.
	sqlDB.SetMaxOpenConns(1)

	if err := initSchema(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &Store{db: sqlDB}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// FormatID renders a persistent id the way the application displays it.
func FormatID(id uint64) string {
	return fmt.Sprintf("%016X", id)
}

// ParseID parses a persistent id written by FormatID.
func ParseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}

// Export replaces the database contents with lib in one transaction.
func (s *Store) Export(lib *library.Library) error {
	return db.WithTx(s.db, func(tx *sql.Tx) error {
		if err := db.ClearTables(tx, "playlist_tracks", "playlists", "tracks_fts", "tracks", "albums", "artists", "library_info"); err != nil {
			return err
		}
		if err := insertInfo(tx, lib); err != nil {
			return fmt.Errorf("library info: %w", err)
		}
		if err := insertTracks(tx, lib.Tracks); err != nil {
			return fmt.Errorf("tracks: %w", err)
		}
		if err := insertAlbums(tx, lib.Albums); err != nil {
			return fmt.Errorf("albums: %w", err)
		}
		if err := insertArtists(tx, lib.Artists); err != nil {
			return fmt.Errorf("artists: %w", err)
		}
		if err := insertPlaylists(tx, lib.Playlists); err != nil {
			return fmt.Errorf("playlists: %w", err)
		}
		return nil
	})
}

func insertInfo(tx *sql.Tx, lib *library.Library) error {
	h := lib.Header
	var aborted any
	if lib.Diagnostics.Aborted != nil {
		aborted = lib.Diagnostics.Aborted.Error()
	}
	_, err := tx.Exec(`
		INSERT INTO library_info (id, source_path, parsed_at, file_size, version, major_version, minor_version,
			library_id, header_tracks, header_playlists, header_albums, header_artists, sections, skipped, aborted)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lib.Path, unixOrNull(lib.ParsedAt), lib.ActualFileSize, h.Version, h.MajorVersion, h.MinorVersion,
		FormatID(h.LibraryID), h.TrackCount, h.PlaylistCount, h.AlbumCount, h.ArtistCount,
		lib.Diagnostics.SectionsProcessed, len(lib.Diagnostics.Skipped), aborted)
	return err
}

func insertTracks(tx *sql.Tx, tracks []library.Track) error {
	stmt, err := tx.Prepare(`
		INSERT INTO tracks (persistent_id, title, artist, album, album_artist, composer, genre, kind, comment, grouping,
			sort_title, sort_album, sort_artist, sort_album_artist, sort_composer,
			work_name, movement_name, movement_number, movement_count,
			year, track_number, rating, like_status, duration_ms, bit_rate, sample_rate, file_size,
			play_count, last_played, date_added, date_modified, file_path, file_url, album_ref, artist_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	fts, err := tx.Prepare(`
		INSERT INTO tracks_fts (search_text, persistent_id, title, artist, album)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer fts.Close()

	for i := range tracks {
		t := &tracks[i]
		id := FormatID(t.ID)
		_, err := stmt.Exec(id, t.Title, t.Artist, t.Album, t.AlbumArtist, t.Composer, t.Genre, t.Kind, t.Comment, t.Grouping,
			t.SortTitle, t.SortAlbum, t.SortArtist, t.SortAlbumArtist, t.SortComposer,
			t.WorkName, t.MovementName, intOrNull(t.MovementNumber), intOrNull(t.MovementCount),
			intOrNull(t.Year), intOrNull(t.TrackNumber), intOrNull(t.Rating), int(t.LikeStatus),
			intOrNull(int(t.Duration.Milliseconds())), intOrNull(t.BitRate), intOrNull(t.SampleRate), intOrNull(int(t.FileSize)),
			t.PlayCount, unixOrNull(t.LastPlayed), unixOrNull(t.DateAdded), unixOrNull(t.DateModified),
			t.FilePath, t.FileURL, refOrNull(t.AlbumRef), refOrNull(t.ArtistRef))
		if err != nil {
			return fmt.Errorf("track %s: %w", id, err)
		}
		if _, err := fts.Exec(searchText(t), id, t.Title, t.Artist, t.Album); err != nil {
			return fmt.Errorf("index track %s: %w", id, err)
		}
	}
	return nil
}

func insertAlbums(tx *sql.Tx, albums []library.Album) error {
	stmt, err := tx.Prepare(`INSERT INTO albums (persistent_id, title, artist, album_artist) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range albums {
		if _, err := stmt.Exec(FormatID(a.ID), a.Title, a.Artist, a.AlbumArtist); err != nil {
			return err
		}
	}
	return nil
}

func insertArtists(tx *sql.Tx, artists []library.Artist) error {
	stmt, err := tx.Prepare(`INSERT INTO artists (persistent_id, name) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range artists {
		if _, err := stmt.Exec(FormatID(a.ID), a.Name); err != nil {
			return err
		}
	}
	return nil
}

func insertPlaylists(tx *sql.Tx, playlists []library.Playlist) error {
	stmt, err := tx.Prepare(`
		INSERT INTO playlists (persistent_id, section_offset, name, type, parent_id, distinguished_kind, smart,
			track_count, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	items, err := tx.Prepare(`INSERT INTO playlist_tracks (playlist_rowid, position, track_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer items.Close()

	for _, p := range playlists {
		res, err := stmt.Exec(FormatID(p.ID), p.Offset, p.Name, p.Type.String(), refOrNull(p.ParentID),
			p.DistinguishedKind, p.HasSmartCriteria, p.TrackCount, unixOrNull(p.CreatedAt), unixOrNull(p.ModifiedAt))
		if err != nil {
			return fmt.Errorf("playlist %s at %d: %w", FormatID(p.ID), p.Offset, err)
		}
		rowID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		// Track ids are kept even when they do not resolve.
		for pos, trackID := range p.TrackIDs {
			if _, err := items.Exec(rowID, pos, FormatID(trackID)); err != nil {
				return err
			}
		}
	}
	return nil
}

func searchText(t *library.Track) string {
	parts := []string{t.Title, t.Artist, t.Album}
	if t.AlbumArtist != "" && t.AlbumArtist != t.Artist {
		parts = append(parts, t.AlbumArtist)
	}
	return strings.Join(parts, " ")
}

func intOrNull(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func refOrNull(id uint64) any {
	if id == 0 {
		return nil
	}
	return FormatID(id)
}

func unixOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}
