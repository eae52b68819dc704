package musicdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

var errSignature = errors.New("signature mismatch")

// attributeDecoder applies one boma record to the current entities.
type attributeDecoder func(st scanState, owner entityKind, sec section) error

var attributeDecoders = func() map[uint32]attributeDecoder {
	m := map[uint32]attributeDecoder{
		subNumeric:       decodeNumeric,
		subFileURL:       decodeFileURL,
		subPlayStats:     decodePlayStats,
		subSmartCriteria: decodeSmartCriteria,
		subPlaylistItem:  decodePlaylistItem,
	}
	for _, code := range bookmarkSubtypes {
		m[code] = decodeBookmark
	}
	for _, code := range stringCodes {
		m[code] = decodeString
	}
	return m
}()

func decodeNumeric(st scanState, _ entityKind, sec section) error {
	t := st.track
	if t == nil {
		return nil
	}
	l := numericLayout
	bitRate, err := l.bitRate.int(sec)
	if err != nil {
		return err
	}
	added, err := l.dateAdded.read(sec)
	if err != nil {
		return err
	}
	modified, err := l.dateModified.read(sec)
	if err != nil {
		return err
	}
	ms, err := l.durationMs.read(sec)
	if err != nil {
		return err
	}

	if bitRate != 0 {
		t.BitRate = bitRate
	}
	if added != 0 {
		t.DateAdded = AppleTime(uint32(added)) //nolint:gosec // 32-bit field
	}
	if modified != 0 {
		t.DateModified = AppleTime(uint32(modified)) //nolint:gosec // 32-bit field
	}
	if ms != 0 {
		t.Duration = time.Duration(ms) * time.Millisecond //nolint:gosec // 32-bit field
	}

	size, err := l.fileSize.read(sec)
	if err != nil {
		return err
	}
	if size != 0 {
		t.FileSize = int64(size) //nolint:gosec // 32-bit field
	}
	return nil
}

func decodeSmartCriteria(st scanState, _ entityKind, _ section) error {
	if st.playlist == nil {
		return nil
	}
	st.playlist.HasSmartCriteria = true
	st.playlist.Type = library.Smart
	return nil
}

func decodePlaylistItem(st scanState, _ entityKind, sec section) error {
	if st.playlist == nil {
		return nil
	}
	if err := expectSignature(sec, playlistItemLayout.signature, sigPlaylistItem); err != nil {
		return err
	}
	id, err := playlistItemLayout.trackID.read(sec)
	if err != nil {
		return err
	}
	st.playlist.TrackIDs = append(st.playlist.TrackIDs, id)
	return nil
}

func decodePlayStats(st scanState, _ entityKind, sec section) error {
	t := st.track
	if t == nil {
		return nil
	}
	count, err := playStatsLayout.playCount.int(sec)
	if err != nil {
		return err
	}
	t.PlayCount = count
	played, err := playStatsLayout.lastPlayed.read(sec)
	if err != nil {
		return err
	}
	if played != 0 {
		t.LastPlayed = AppleTime(uint32(played)) //nolint:gosec // 32-bit field
	}
	return nil
}

func decodeFileURL(st scanState, _ entityKind, sec section) error {
	t := st.track
	if t == nil {
		return nil
	}
	n, err := fileURLLayout.byteLength.int(sec)
	if err != nil {
		return err
	}
	b, err := sliceAt(sec, fileURLLayout.data, n)
	if err != nil {
		return err
	}
	raw := strings.TrimRight(string(b), "\x00")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t.FileURL = localPath(raw)
	return nil
}

// localPath percent-decodes a location and turns a file URL into an
// absolute path.
func localPath(raw string) string {
	v := unescape(raw)
	if rest, ok := strings.CutPrefix(v, "file:///"); ok {
		v = "/" + rest
	}
	return v
}

// unescape decodes every valid %XX escape in s. Malformed escapes are kept
// as written, and so are decoded runs that do not form valid UTF-8.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '%' {
			b.WriteByte(s[i])
			i++
			continue
		}
		// a run of consecutive escapes, decoded together so multi-byte
		// UTF-8 sequences survive
		start := i
		var run []byte
		for i+2 < len(s) && s[i] == '%' && isHex(s[i+1]) && isHex(s[i+2]) {
			run = append(run, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 3
		}
		switch {
		case len(run) == 0:
			b.WriteByte('%')
			i++
		case utf8.Valid(run):
			b.Write(run)
		default:
			b.WriteString(s[start:i])
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

func decodeBookmark(st scanState, _ entityKind, sec section) error {
	t := st.track
	if t == nil {
		return nil
	}
	if err := expectSignature(sec, bookmarkLayout.signature, sigBookmark); err != nil {
		return err
	}
	if p := bookmarkPath(sec); p != "" {
		t.FilePath = p
	}
	return nil
}

// bookmarkPath collects the path components of a bookmark record.
// Bytes that do not start a path fragment are stepped over a word at a time.
func bookmarkPath(sec section) string {
	l := bookmarkLayout
	limit := min(sec.length, len(sec.data))
	var parts []string
	pos := l.fragments
	for pos < limit-l.fragmentHeader {
		n := binary.LittleEndian.Uint32(sec.data[pos:])
		marker := binary.LittleEndian.Uint32(sec.data[pos+4:])
		if n == 0 || n >= l.maxFragment || marker != l.pathMarker {
			pos += 4
			continue
		}
		start := pos + l.fragmentHeader
		end := start + int(n)
		if end > limit {
			break
		}
		if part := strings.TrimRight(string(sec.data[start:end]), "\x00"); isPathComponent(part) {
			parts = append(parts, part)
		}
		pos = end + pad4(int(n))
	}
	return strings.Join(parts, "/")
}

// isPathComponent drops volume names, identifiers and URL scheme fragments.
func isPathComponent(p string) bool {
	switch {
	case strings.TrimSpace(p) == "":
		return false
	case len(p) == 36 && strings.Count(p, "-") == 4:
		return false
	case strings.HasPrefix(p, "file:///"):
		return false
	case strings.Contains(p, "Macintosh"), strings.Contains(p, "HD"):
		return false
	case p == "/":
		return false
	}
	return true
}

func pad4(n int) int {
	return (4 - n%4) % 4
}

func expectSignature(sec section, off int, sig string) error {
	end := off + len(sig)
	if end > len(sec.data) || end > sec.length {
		return fmt.Errorf("%w: no room for %q at +%d", errTruncated, sig, off)
	}
	if got := string(sec.data[off:end]); got != sig {
		return fmt.Errorf("%w: want %q at +%d, got %q", errSignature, sig, off, got)
	}
	return nil
}
