package store

import (
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/pitetb/AppMusicLibParser/internal/db"
)

// TrackHit is a track matched by SearchTracks.
type TrackHit struct {
	ID     uint64
	Title  string
	Artist string
	Album  string
}

// minTrigram is the shortest term the trigram tokenizer can match.
const minTrigram = 3

// SearchTracks searches exported tracks by title, artist and album.
// Terms shorter than three characters fall back to a substring scan.
func (s *Store) SearchTracks(query string, limit int) ([]TrackHit, error) {
	if limit <= 0 {
		limit = -1
	}

	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case strings.TrimSpace(query) == "":
		rows, err = s.db.Query(`
			SELECT persistent_id, title, artist, album
			FROM tracks_fts
			ORDER BY title COLLATE NOCASE
			LIMIT ?
		`, limit)
	case hasShortTerm(query):
		rows, err = s.db.Query(`
			SELECT persistent_id, title, artist, album
			FROM tracks_fts
			WHERE search_text LIKE ? ESCAPE '\'
			ORDER BY title COLLATE NOCASE
			LIMIT ?
		`, likePattern(query), limit)
	default:
		rows, err = s.db.Query(`
			SELECT persistent_id, title, artist, album
			FROM tracks_fts
			WHERE search_text MATCH ?
			ORDER BY rank
			LIMIT ?
		`, escapeFTSQuery(query), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []TrackHit
	for rows.Next() {
		var h TrackHit
		var id string
		if err := rows.Scan(&id, &h.Title, &h.Artist, &h.Album); err != nil {
			return nil, err
		}
		if h.ID, err = ParseID(id); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func hasShortTerm(query string) bool {
	for _, w := range strings.Fields(query) {
		if utf8.RuneCountInString(w) < minTrigram {
			return true
		}
	}
	return false
}

// likePattern matches the whole query as a substring.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}

// escapeFTSQuery escapes a query string for FTS5 trigram search.
// Each word is wrapped in quotes for substring matching, with implicit AND between words.
func escapeFTSQuery(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return `""`
	}

	quoted := make([]string, len(words))
	for i, word := range words {
		escaped := strings.ReplaceAll(word, `"`, `""`)
		quoted[i] = `"` + escaped + `"`
	}

	// Join with space (implicit AND in FTS5)
	return strings.Join(quoted, " ")
}

// Info describes the most recent export.
type Info struct {
	SourcePath string
	ParsedAt   int64
	Version    string
	LibraryID  string
	Sections   int64
	Skipped    int64
	Aborted    string
}

// Info returns the exported library header, or sql.ErrNoRows before the
// first export.
func (s *Store) Info() (Info, error) {
	var info Info
	var parsedAt sql.NullInt64
	var aborted sql.NullString
	err := s.db.QueryRow(`
		SELECT source_path, parsed_at, version, library_id, sections, skipped, aborted
		FROM library_info WHERE id = 1
	`).Scan(&info.SourcePath, &parsedAt, &info.Version, &info.LibraryID, &info.Sections, &info.Skipped, &aborted)
	if err != nil {
		return Info{}, err
	}
	info.ParsedAt = db.NullInt64Value(parsedAt)
	info.Aborted = db.NullStringValue(aborted)
	return info, nil
}

// Counts returns the number of rows per exported table.
func (s *Store) Counts() (map[string]int, error) {
	out := make(map[string]int)
	for _, table := range []string{"tracks", "albums", "artists", "playlists", "playlist_tracks"} {
		var n int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			return nil, err
		}
		out[table] = n
	}
	return out, nil
}
