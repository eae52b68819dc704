package report

import (
	"fmt"
	"strings"

	"github.com/pitetb/AppMusicLibParser/internal/ui/render"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
	"github.com/pitetb/AppMusicLibParser/internal/verify"
)

const pathWidth = 60

var verifyKinds = []verify.Kind{
	verify.Missing,
	verify.Unreadable,
	verify.TitleMismatch,
	verify.ArtistMismatch,
	verify.AlbumMismatch,
	verify.YearMismatch,
	verify.DurationMismatch,
}

// Verify renders the outcome of checking track locations against the disk.
func Verify(res verify.Result) string {
	s := styles.T().S()
	var sb strings.Builder

	sb.WriteString(heading("Verification"))
	t := newTable("Result", "Tracks")
	t.Row("Checked", count(res.Checked))
	t.Row(s.Success.Render("OK"), s.Success.Render(count(res.OK)))
	t.Row(s.Muted.Render("No location"), s.Muted.Render(count(res.NoLocation)))
	for _, k := range verifyKinds {
		if n := res.Count(k); n > 0 {
			st := s.Warning
			if k == verify.Missing || k == verify.Unreadable {
				st = s.Error
			}
			t.Row(st.Render(k.String()), st.Render(count(n)))
		}
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	if len(res.Findings) == 0 {
		return sb.String()
	}

	sb.WriteString(heading("Findings"))
	ft := newTable("Problem", "Track", "Library", "File", "Path")
	for _, f := range res.Findings {
		got := f.Got
		if f.Err != nil {
			got = f.Err.Error()
		}
		ft.Row(f.Kind.String(), text(f.Title, formatID(f.TrackID)), text(f.Want, ""), text(got, ""),
			render.Truncate(f.Path, pathWidth))
	}
	sb.WriteString(ft.Render())
	sb.WriteString("\n")
	return sb.String()
}

// Exported renders a one-line export summary.
func Exported(path string, counts map[string]int) string {
	s := styles.T().S()
	return fmt.Sprintf("%s exported %s tracks, %s albums, %s artists, %s playlists to %s\n",
		s.Success.Render("✓"), count(counts["tracks"]), count(counts["albums"]), count(counts["artists"]),
		count(counts["playlists"]), path)
}
