package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	bytesPerRow = 16
	// DefaultRadius is how many bytes Dump shows on each side of the target.
	DefaultRadius = 64
	hexColumn     = bytesPerRow*3 + 1
)

// ParseOffset parses a hexadecimal offset with or without a 0x prefix.
func ParseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", s, err)
	}
	return int(n), nil
}

// Dump writes a hex and ASCII view of data within radius bytes of offset.
// Rows are 16 bytes, the row holding offset is marked with ">>>" and the
// target byte is bracketed.
func Dump(w io.Writer, data []byte, offset, radius int) error {
	if offset < 0 || offset >= len(data) {
		return fmt.Errorf("offset 0x%X outside buffer of %d bytes", offset, len(data))
	}
	start := max(0, offset-radius)
	end := min(len(data), offset+radius)
	if end <= offset {
		end = offset + 1
	}

	if _, err := fmt.Fprintf(w, "Offset 0x%X, context [0x%X-0x%X]\n\n", offset, start, end); err != nil {
		return err
	}

	for i := start; i < end; i += bytesPerRow {
		row := data[i:min(i+bytesPerRow, end)]

		tokens := make([]string, len(row))
		for j, b := range row {
			if i+j == offset {
				tokens[j] = fmt.Sprintf("[%02X]", b)
			} else {
				tokens[j] = fmt.Sprintf("%02X", b)
			}
		}

		marker := "   "
		if i <= offset && offset < i+len(row) {
			marker = ">>>"
		}
		cols := runewidth.FillRight(strings.Join(tokens, " "), hexColumn)
		if _, err := fmt.Fprintf(w, "%s %04X: %s %s\n", marker, i, cols, printable(row)); err != nil {
			return err
		}
	}
	return nil
}

// printable renders bytes as ASCII, with · for anything outside 0x20-0x7E.
func printable(row []byte) string {
	var sb strings.Builder
	for _, b := range row {
		if b >= 0x20 && b < 0x7F {
			sb.WriteByte(b)
		} else {
			sb.WriteRune('·')
		}
	}
	return sb.String()
}
