package report

import (
	"fmt"
	"strings"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/musicdb"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

const (
	topUnknown  = 20
	maxSkipRows = 50
)

// Diagnostics renders how the scan went: sections, unknown subtypes and
// skipped attributes.
func Diagnostics(lib *library.Library) string {
	s := styles.T().S()
	d := lib.Diagnostics

	var sb strings.Builder
	sb.WriteString(heading("Scan"))
	fmt.Fprintf(&sb, "%s %s\n", s.Title.Render("Sections processed:"), count(d.SectionsProcessed))
	fmt.Fprintf(&sb, "%s %s\n", s.Title.Render("Skipped attributes:"), count(len(d.Skipped)))
	if d.Aborted != nil {
		fmt.Fprintf(&sb, "%s %s\n", s.Error.Render("Stopped early:"), d.Aborted)
	} else {
		sb.WriteString(s.Success.Render("Reached the end of the buffer"))
		sb.WriteString("\n")
	}
	sb.WriteString(countCheck("Tracks", len(lib.Tracks), int(lib.Header.TrackCount)))
	sb.WriteString(countCheck("Playlists", len(lib.Playlists), int(lib.Header.PlaylistCount)))
	sb.WriteString("\n")

	if len(d.UnknownSubtypes) > 0 {
		sb.WriteString(heading("Unknown attribute subtypes"))
		t := newTable("Subtype", "Hex", "Count")
		for _, u := range musicdb.TopUnknown(d.UnknownSubtypes, topUnknown) {
			t.Row(fmt.Sprint(u.Subtype), fmt.Sprintf("0x%X", u.Subtype), count(u.Count))
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n\n")
	}

	if len(d.Skipped) > 0 {
		sb.WriteString(heading(fmt.Sprintf("Skipped (first %d)", min(len(d.Skipped), maxSkipRows))))
		t := newTable("Offset", "Tag", "Subtype", "Reason")
		for _, sk := range d.Skipped[:min(len(d.Skipped), maxSkipRows)] {
			sub := ""
			if sk.Subtype != 0 {
				sub = fmt.Sprintf("0x%X", sk.Subtype)
			}
			t.Row(fmt.Sprintf("0x%08X", sk.Offset), sk.Tag, sub, text(sk.Reason, ""))
		}
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// countCheck compares a decoded count with the one the header announces.
func countCheck(label string, got, want int) string {
	s := styles.T().S()
	line := fmt.Sprintf("%s: %s decoded, %s in header", label, count(got), count(want))
	if got == want {
		return s.Muted.Render(line) + "\n"
	}
	return s.Warning.Render(line) + "\n"
}
