package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/search"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

// SearchResults renders one property table per matched track.
func SearchResults(query string, tracks []library.Track) string {
	s := styles.T().S()
	if len(tracks) == 0 {
		return s.Warning.Render(fmt.Sprintf("No track title contains %q", query)) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(s.Success.Render(fmt.Sprintf("✓ %s track(s) found", count(len(tracks)))))
	sb.WriteString("\n\n")
	for i := range tracks {
		sb.WriteString(trackDetails(&tracks[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

func trackDetails(tr *library.Track) string {
	s := styles.T().S()
	t := newTable("Field", "Value")
	t.Row("ID", formatID(tr.ID))
	t.Row("Title", text(tr.Title, "n/a"))
	t.Row("Artist", text(tr.Artist, "n/a"))
	t.Row("Album", text(tr.Album, "n/a"))
	if tr.AlbumArtist != "" && tr.AlbumArtist != tr.Artist {
		t.Row("Album artist", text(tr.AlbumArtist, ""))
	}
	if tr.Genre != "" {
		t.Row("Genre", text(tr.Genre, ""))
	}
	if tr.Year > 0 {
		t.Row("Year", strconv.Itoa(tr.Year))
	}
	t.Row("Like status", fmt.Sprintf("%s %s", tr.LikeStatus, s.Muted.Render(fmt.Sprintf("(%d)", tr.LikeStatus))))
	if tr.Rating > 0 {
		t.Row("Rating", fmt.Sprintf("%s %s", stars(min(tr.Rating/20, 5)), s.Muted.Render(fmt.Sprintf("(%d/100)", tr.Rating))))
	}
	t.Row("Play count", count(tr.PlayCount))
	if tr.Duration > 0 {
		t.Row("Duration", formatDuration(tr.Duration))
	}
	if tr.FileURL != "" || tr.FilePath != "" {
		t.Row("Location", text(firstNonEmpty(tr.FileURL, tr.FilePath), ""))
	}
	return t.Render() + "\n"
}

// Hits renders a plain list of matched tracks.
func Hits(query string, tracks []library.Track) string {
	s := styles.T().S()
	if len(tracks) == 0 {
		return s.Warning.Render(fmt.Sprintf("No track matches %q", query)) + "\n"
	}
	return s.Success.Render(fmt.Sprintf("✓ %s track(s) found", count(len(tracks)))) + "\n\n" + trackTable(tracks)
}

// FuzzyResults renders ranked fuzzy matches.
func FuzzyResults(query string, results []search.Result[search.TrackItem]) string {
	s := styles.T().S()
	if len(results) == 0 {
		return s.Warning.Render(fmt.Sprintf("No track matches %q", query)) + "\n"
	}

	t := newTable("#", "Title", "Artist", "Album", "Score")
	for i, r := range results {
		tr := r.Item.Track
		t.Row(strconv.Itoa(i+1), text(tr.Title, "Untitled"), text(tr.Artist, "Unknown"), text(tr.Album, "Unknown"),
			s.Muted.Render(strconv.FormatFloat(r.Score, 'f', 2, 64)))
	}
	return s.Success.Render(fmt.Sprintf("✓ %s match(es)", count(len(results)))) + "\n\n" + t.Render() + "\n"
}

// PlaylistMatches renders ranked fuzzy matches on playlist names.
func PlaylistMatches(query string, results []search.Result[search.PlaylistItem]) string {
	s := styles.T().S()
	if len(results) == 0 {
		return s.Warning.Render(fmt.Sprintf("No playlist matches %q", query)) + "\n"
	}

	t := newTable("#", "Playlist", "Type", "Tracks", "Score")
	for i, r := range results {
		p := r.Item.Playlist
		t.Row(strconv.Itoa(i+1), text(p.Name, "Untitled"), p.Type.String(), count(p.TrackCount),
			s.Muted.Render(strconv.FormatFloat(r.Score, 'f', 2, 64)))
	}
	return s.Success.Render(fmt.Sprintf("✓ %s match(es)", count(len(results)))) + "\n\n" + t.Render() + "\n"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	sec := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
