// Package inspect has debugging helpers for decoded library buffers.
package inspect

import (
	"fmt"
	"strings"
)

// MinRunLength is the shortest stretch of consecutive differing bytes
// reported as a run.
const MinRunLength = 5

// Difference is one byte that differs between two buffers.
type Difference struct {
	Offset int
	A, B   byte
}

// Run is a stretch of consecutive differing bytes, End inclusive.
type Run struct {
	Start, End int
}

func (r Run) Len() int { return r.End - r.Start + 1 }

// DiffResult compares two buffers over their common length.
type DiffResult struct {
	LenA, LenB  int
	Differences []Difference
	Runs        []Run
	// Isolated lists changes whose neighbours are equal in both buffers.
	Isolated []Difference
}

// SizeDelta is the absolute length difference.
func (d DiffResult) SizeDelta() int {
	if d.LenA > d.LenB {
		return d.LenA - d.LenB
	}
	return d.LenB - d.LenA
}

// Identical reports whether the buffers match over their common length.
func (d DiffResult) Identical() bool {
	return len(d.Differences) == 0
}

// Diff compares a and b byte by byte.
func Diff(a, b []byte) DiffResult {
	res := DiffResult{LenA: len(a), LenB: len(b)}
	n := min(len(a), len(b))

	for i := range n {
		if a[i] != b[i] {
			res.Differences = append(res.Differences, Difference{Offset: i, A: a[i], B: b[i]})
		}
	}

	res.Runs = runs(res.Differences)

	for _, d := range res.Differences {
		prevSame := d.Offset == 0 || a[d.Offset-1] == b[d.Offset-1]
		nextSame := d.Offset == n-1 || a[d.Offset+1] == b[d.Offset+1]
		if prevSame && nextSame {
			res.Isolated = append(res.Isolated, d)
		}
	}
	return res
}

func runs(diffs []Difference) []Run {
	var out []Run
	flush := func(r Run) {
		if r.Len() >= MinRunLength {
			out = append(out, r)
		}
	}

	if len(diffs) == 0 {
		return nil
	}
	cur := Run{Start: diffs[0].Offset, End: diffs[0].Offset}
	for _, d := range diffs[1:] {
		if d.Offset == cur.End+1 {
			cur.End = d.Offset
			continue
		}
		flush(cur)
		cur = Run{Start: d.Offset, End: d.Offset}
	}
	flush(cur)
	return out
}

// Context renders the bytes within radius of offset as hex, with the
// byte at offset bracketed.
func Context(data []byte, offset, radius int) string {
	start := max(0, offset-radius)
	end := min(len(data), offset+radius+1)

	var sb strings.Builder
	for i := start; i < end; i++ {
		if i == offset {
			fmt.Fprintf(&sb, "[%02X]", data[i])
		} else {
			fmt.Fprintf(&sb, "%02X ", data[i])
		}
	}
	return strings.TrimSpace(sb.String())
}
