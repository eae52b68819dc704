// Package search does in-memory fuzzy matching over a decoded library.
package search

import (
	"github.com/pitetb/AppMusicLibParser/internal/library"
)

// Result is a matched item with its score.
type Result[T Item] struct {
	Item  T
	Score float64
}

// Tracks fuzzy-matches query against every track's title, artist and album.
// limit <= 0 returns all matches.
func Tracks(lib *library.Library, query string, limit int) []Result[TrackItem] {
	items := make([]TrackItem, len(lib.Tracks))
	for i := range lib.Tracks {
		items[i] = TrackItem{Track: &lib.Tracks[i]}
	}
	return run(items, query, limit)
}

// Playlists fuzzy-matches query against playlist names.
func Playlists(lib *library.Library, query string, limit int) []Result[PlaylistItem] {
	items := make([]PlaylistItem, len(lib.Playlists))
	for i := range lib.Playlists {
		items[i] = PlaylistItem{Playlist: &lib.Playlists[i]}
	}
	return run(items, query, limit)
}

func run[T Item](items []T, query string, limit int) []Result[T] {
	generic := make([]Item, len(items))
	for i, it := range items {
		generic[i] = it
	}

	matches := NewTrigramMatcher(generic).Search(query)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Result[T], len(matches))
	for i, m := range matches {
		out[i] = Result[T]{Item: items[m.Index], Score: m.Score}
	}
	return out
}
