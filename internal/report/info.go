package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dustin/go-humanize"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/ui/render"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

// labelWidth aligns the totals in the summary panel.
const labelWidth = len("Playlists: ")

// Info renders the envelope header, snapshot totals and the playlist tree.
func Info(lib *library.Library) string {
	var sb strings.Builder
	sb.WriteString(heading("Library header"))
	sb.WriteString(headerTable(lib.Header))
	sb.WriteString("\n")
	sb.WriteString(summary(lib))
	sb.WriteString("\n")
	if len(lib.Playlists) > 0 {
		sb.WriteString(heading("Playlists"))
		sb.WriteString(PlaylistTree(lib))
		sb.WriteString("\n")
	}
	return sb.String()
}

func headerTable(h library.Header) string {
	s := styles.T().S()
	t := newTable("Field", "Value")
	t.Row("Library ID", formatID(h.LibraryID))
	t.Row("Version", fmt.Sprintf("%s %s", text(h.Version, "?"), s.Muted.Render(fmt.Sprintf("(format %d.%d)", h.MajorVersion, h.MinorVersion))))
	t.Row("File type", fmt.Sprint(h.FileType))
	t.Row("Envelope length", humanize.Comma(int64(h.EnvelopeLength))+" bytes")
	t.Row("File size (header)", humanize.Comma(int64(h.FileSize))+" bytes")
	t.Row("Max crypt size", humanize.Comma(int64(h.MaxCryptSize))+" bytes")
	t.Row("Tracks (header)", humanize.Comma(int64(h.TrackCount)))
	t.Row("Albums (header)", humanize.Comma(int64(h.AlbumCount)))
	t.Row("Artists (header)", humanize.Comma(int64(h.ArtistCount)))
	t.Row("Playlists (header)", humanize.Comma(int64(h.PlaylistCount)))
	return t.Render() + "\n"
}

func summary(lib *library.Library) string {
	s := styles.T().S()
	pc := lib.CountPlaylists()

	lines := []string{
		s.Title.Render("File: ") + text(lib.Path, "(memory)"),
	}
	if lib.ActualFileSize > 0 {
		lines = append(lines, s.Title.Render("Size: ")+
			fmt.Sprintf("%s bytes (%s)", humanize.Comma(lib.ActualFileSize), humanize.IBytes(uint64(lib.ActualFileSize))))
	}
	if !lib.ParsedAt.IsZero() {
		lines = append(lines, s.Title.Render("Parsed: ")+lib.ParsedAt.Format("2006-01-02 15:04:05"))
	}
	lines = append(lines,
		"",
		s.Heading.Render(render.Pad("Tracks:", labelWidth))+s.Value.Render(count(len(lib.Tracks))),
		s.Heading.Render(render.Pad("Albums:", labelWidth))+s.Value.Render(count(len(lib.Albums))),
		s.Heading.Render(render.Pad("Artists:", labelWidth))+s.Value.Render(count(len(lib.Artists))),
		s.Heading.Render(render.Pad("Playlists:", labelWidth))+s.Value.Render(count(len(lib.Playlists))),
		s.Muted.Render(fmt.Sprintf("  ├─ smart: %d", pc.Smart)),
		s.Muted.Render(fmt.Sprintf("  ├─ manual: %d", pc.Manual)),
		s.Muted.Render(fmt.Sprintf("  ├─ folders: %d", pc.Folder)),
		s.Muted.Render(fmt.Sprintf("  ├─ system: %d", pc.System)),
		s.Muted.Render(fmt.Sprintf("  └─ root: %d", pc.Root)),
	)
	return styles.PanelStyle().Render(strings.Join(lines, "\n")) + "\n"
}

// PlaylistTree renders playlists nested under their folders.
func PlaylistTree(lib *library.Library) string {
	s := styles.T().S()
	root := tree.Root(s.Title.Render("Playlists")).
		EnumeratorStyle(s.Subtle).
		Enumerator(tree.RoundedEnumerator)
	for _, n := range lib.PlaylistTree() {
		root.Child(playlistNode(n))
	}
	return root.String() + "\n"
}

func playlistNode(n *library.PlaylistNode) any {
	label := playlistLabel(n.Playlist)
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label)
	for _, c := range n.Children {
		t.Child(playlistNode(c))
	}
	return t
}

func playlistLabel(p library.Playlist) string {
	s := styles.T().S()
	var b strings.Builder
	b.WriteString(text(p.Name, "Untitled"))
	if p.HasSmartCriteria {
		b.WriteString(s.Value.Render(" ★"))
	}
	switch p.Type {
	case library.Smart:
		b.WriteString(s.Muted.Render(" (smart)"))
	case library.Folder:
		b.WriteString(s.Warning.Render(" (folder)"))
	case library.System:
		b.WriteString(s.Subtle.Render(" (system)"))
	}
	if p.Type != library.Folder {
		b.WriteString(s.Muted.Render(fmt.Sprintf(" (%d tracks)", p.TrackCount)))
	}
	return b.String()
}
