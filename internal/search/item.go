package search

import (
	"strings"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

// Item is something the matcher can search.
type Item interface {
	// FilterValue returns the string to match against.
	FilterValue() string
	// DisplayText returns the string to display in results.
	DisplayText() string
}

// TrackItem adapts a library track for searching by title, artist and album.
type TrackItem struct {
	Track *library.Track
}

func (t TrackItem) FilterValue() string {
	return strings.Join([]string{t.Track.Title, t.Track.Artist, t.Track.Album}, " ")
}

func (t TrackItem) DisplayText() string {
	if t.Track.Artist == "" {
		return t.Track.Title
	}
	return t.Track.Artist + " - " + t.Track.Title
}

// PlaylistItem adapts a playlist for searching by name.
type PlaylistItem struct {
	Playlist *library.Playlist
}

func (p PlaylistItem) FilterValue() string { return p.Playlist.Name }

func (p PlaylistItem) DisplayText() string { return p.Playlist.Name }
