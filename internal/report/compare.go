package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pitetb/AppMusicLibParser/internal/inspect"
	"github.com/pitetb/AppMusicLibParser/internal/ui/styles"
)

const (
	maxDiffRows      = 100
	diffContext      = 16
	maxRuns          = 20
	maxIsolatedShown = 20
	// isolatedLimit hides isolated changes when there are too many to be useful.
	isolatedLimit = 50
)

// Compare renders a byte diff of two decoded buffers.
func Compare(a, b []byte, d inspect.DiffResult) string {
	s := styles.T().S()
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s file 1: %s bytes decoded\n", s.Success.Render("✓"), humanize.Comma(int64(d.LenA)))
	fmt.Fprintf(&sb, "%s file 2: %s bytes decoded\n\n", s.Success.Render("✓"), humanize.Comma(int64(d.LenB)))
	fmt.Fprintf(&sb, "%s %s\n", s.Heading.Render("Differing bytes:"), humanize.Comma(int64(len(d.Differences))))
	if d.SizeDelta() != 0 {
		fmt.Fprintf(&sb, "%s %s bytes\n", s.Warning.Render("Size difference:"), humanize.Comma(int64(d.SizeDelta())))
	}
	if d.Identical() {
		sb.WriteString(s.Success.Render("Buffers are identical"))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("\n")
	sb.WriteString(heading(fmt.Sprintf("Differences (first %d)", maxDiffRows)))
	t := newTable("Offset", "File 1", "File 2", "Context 1", "Context 2")
	for _, diff := range d.Differences[:min(len(d.Differences), maxDiffRows)] {
		t.Row(
			fmt.Sprintf("0x%08X", diff.Offset),
			fmt.Sprintf("0x%02X (%d)", diff.A, diff.A),
			fmt.Sprintf("0x%02X (%d)", diff.B, diff.B),
			inspect.Context(a, diff.Offset, diffContext),
			inspect.Context(b, diff.Offset, diffContext),
		)
	}
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	sb.WriteString(heading("Patterns"))
	if len(d.Runs) > 0 {
		fmt.Fprintf(&sb, "%s\n", s.Heading.Render(fmt.Sprintf("Runs of %d+ consecutive differing bytes:", inspect.MinRunLength)))
		for _, r := range d.Runs[:min(len(d.Runs), maxRuns)] {
			fmt.Fprintf(&sb, "  0x%08X - 0x%08X (%d bytes)\n", r.Start, r.End, r.Len())
		}
	}
	if n := len(d.Isolated); n > 0 && n < isolatedLimit {
		fmt.Fprintf(&sb, "\n%s\n", s.Heading.Render(fmt.Sprintf("Isolated byte changes (%d):", n)))
		for _, diff := range d.Isolated[:min(n, maxIsolatedShown)] {
			fmt.Fprintf(&sb, "  0x%08X: 0x%02X → 0x%02X (decimal: %d → %d)\n", diff.Offset, diff.A, diff.B, diff.A, diff.B)
		}
	}
	return sb.String()
}
