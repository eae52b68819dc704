package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

// barWidth is the length of the longest rating bar.
const barWidth = 40

// Stats renders totals, play statistics and the top most played tracks.
func Stats(lib *library.Library, top int) string {
	st := lib.Plays(top)
	s := styles.T().S()

	var sb strings.Builder
	t := newTable("Category", "Value")
	t.Row("Tracks", count(len(lib.Tracks)))
	t.Row("Albums", count(len(lib.Albums)))
	t.Row("Artists", count(len(lib.Artists)))
	t.Row("Playlists", count(len(lib.Playlists)))
	t.Row("Tracks played", s.Value.Render(count(st.TracksPlayed)))
	t.Row("Total plays", s.Value.Render(count(st.TotalPlays)))
	if st.TracksPlayed > 0 {
		t.Row("Average plays per track", s.Value.Render(strconv.FormatFloat(st.Average, 'f', 1, 64)))
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	if len(st.MostPlayed) > 0 {
		sb.WriteString(heading(fmt.Sprintf("Top %d most played", top)))
		mp := newTable("#", "Title", "Artist", "Album", "Plays")
		for i, tr := range st.MostPlayed {
			mp.Row(strconv.Itoa(i+1), text(tr.Title, "Untitled"), text(tr.Artist, "Unknown"),
				text(tr.Album, "Unknown"), s.Success.Render(count(tr.PlayCount)))
		}
		sb.WriteString(mp.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Ratings renders the star distribution and up to n examples per level,
// sorted by artist, album and title.
func Ratings(lib *library.Library, n int) string {
	r := lib.Ratings()

	maxCount, levelTotal := 0, 0
	for stars := 1; stars <= 5; stars++ {
		maxCount = max(maxCount, r.Count(stars))
		levelTotal += r.Count(stars)
	}

	var sb strings.Builder
	sb.WriteString(heading("Rating distribution"))
	t := newTable("Rating", "Tracks", "Share", "")
	for level := 5; level >= 1; level-- {
		c := r.Count(level)
		filled := 0
		if maxCount > 0 {
			filled = (c*barWidth + maxCount/2) / maxCount
		}
		t.Row(stars(level), count(c), percent(c, levelTotal), styles.Bar(filled, barWidth))
	}
	t.Row(styles.T().S().Title.Render("Rated"), count(r.Rated), percent(r.Rated, len(lib.Tracks)), "")
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	for level := 5; level >= 1; level-- {
		tracks := append([]library.Track(nil), r.ByStars[level]...)
		library.SortByArtistAlbumTitle(tracks)
		sb.WriteString(examples(stars(level), tracks, n))
	}
	return sb.String()
}

// likeRows is the display order of like statuses.
var likeRows = []struct {
	status library.LikeStatus
	label  string
}{
	{library.Liked, "Liked"},
	{library.DislikedTransient, "Unliked"},
	{library.DislikedExplicit, "Disliked"},
	{library.Neutral, "Neutral"},
}

// Likes renders like-status totals and up to n examples per non-neutral status.
func Likes(lib *library.Library, n int) string {
	s := styles.T().S()
	byStatus := lib.Likes()
	total := len(lib.Tracks)

	rowStyle := map[library.LikeStatus]lipgloss.Style{
		library.Liked:             s.Success,
		library.DislikedTransient: s.Warning,
		library.DislikedExplicit:  s.Error,
		library.Neutral:           s.Muted,
	}

	var sb strings.Builder
	sb.WriteString(heading("Likes"))
	t := newTable("Status", "Tracks", "Share")
	for _, row := range likeRows {
		c := len(byStatus[row.status])
		st := rowStyle[row.status]
		t.Row(st.Render(row.label), st.Render(count(c)), st.Render(percent(c, total)))
	}
	t.Row(s.Title.Render("Total"), count(total), percent(total, total))
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	for _, row := range likeRows {
		if row.status == library.Neutral {
			continue
		}
		sb.WriteString(examples(row.label, byStatus[row.status], n))
	}
	return sb.String()
}
