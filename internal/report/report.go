// Package report renders decoded libraries for the terminal.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/ui/render"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

// cellWidth bounds free-text columns so long titles do not wrap tables.
const cellWidth = 40

// heading renders a section title followed by a rule.
func heading(title string) string {
	s := styles.T().S()
	return styles.HeadingGradient(title) + "\n" + s.Subtle.Render(render.Separator(lipgloss.Width(title))) + "\n"
}

func newTable(headers ...string) *table.Table {
	s := styles.T().S()
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorderStyle()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Title.Padding(0, 1)
			}
			return s.Base.Padding(0, 1)
		})
}

// text sanitizes and bounds a metadata string, with a placeholder when empty.
func text(v, placeholder string) string {
	v = render.Sanitize(v)
	if v == "" {
		return placeholder
	}
	return render.TruncateEllipsis(v, cellWidth)
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func percent(n, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 1, 64) + "%"
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// trackTable lists tracks with their position.
func trackTable(tracks []library.Track) string {
	t := newTable("#", "Title", "Artist", "Album")
	for i, tr := range tracks {
		t.Row(strconv.Itoa(i+1), text(tr.Title, "Untitled"), text(tr.Artist, "Unknown"), text(tr.Album, "Unknown"))
	}
	return t.Render() + "\n"
}

// examples renders a "label - examples (shown/total)" section.
func examples(label string, tracks []library.Track, n int) string {
	if len(tracks) == 0 || n == 0 {
		return ""
	}
	shown := tracks
	if n > 0 && len(shown) > n {
		shown = shown[:n]
	}
	return heading(fmt.Sprintf("%s - examples (%d/%d)", label, len(shown), len(tracks))) + trackTable(shown)
}

func formatID(id uint64) string {
	return fmt.Sprintf("%016X", id)
}
