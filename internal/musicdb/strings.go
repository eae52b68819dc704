package musicdb

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// entityKind names the entity an attribute is attached to.
type entityKind int

const (
	kindTrack entityKind = iota
	kindAlbum
	kindArtist
	kindPlaylist
)

func (k entityKind) String() string {
	switch k {
	case kindTrack:
		return "track"
	case kindAlbum:
		return "album"
	case kindArtist:
		return "artist"
	case kindPlaylist:
		return "playlist"
	default:
		return "unknown"
	}
}

type stringKey struct {
	kind entityKind
	code uint32
}

type stringSetter func(st scanState, v string)

// stringFields routes a wide string attribute to an entity field. The same
// code means different things depending on the owning entity.
var stringFields = map[stringKey]stringSetter{
	{kindTrack, 0x0002}: func(st scanState, v string) { st.track.Title = v },
	{kindTrack, 0x0003}: func(st scanState, v string) { st.track.Album = v },
	{kindTrack, 0x0004}: func(st scanState, v string) { st.track.Artist = v },
	{kindTrack, 0x0005}: func(st scanState, v string) { st.track.Genre = v },
	{kindTrack, 0x0006}: func(st scanState, v string) { st.track.Kind = v },
	{kindTrack, 0x0008}: func(st scanState, v string) { st.track.Comment = v },
	{kindTrack, 0x000C}: func(st scanState, v string) { st.track.Composer = v },
	{kindTrack, 0x000E}: func(st scanState, v string) { st.track.Grouping = v },
	{kindTrack, 0x001B}: func(st scanState, v string) { st.track.AlbumArtist = v },
	{kindTrack, 0x001E}: func(st scanState, v string) { st.track.SortTitle = v },
	{kindTrack, 0x001F}: func(st scanState, v string) { st.track.SortAlbum = v },
	{kindTrack, 0x0020}: func(st scanState, v string) { st.track.SortArtist = v },
	{kindTrack, 0x0021}: func(st scanState, v string) { st.track.SortAlbumArtist = v },
	{kindTrack, 0x0022}: func(st scanState, v string) { st.track.SortComposer = v },
	{kindTrack, 0x003F}: func(st scanState, v string) { st.track.WorkName = v },
	{kindTrack, 0x0040}: func(st scanState, v string) { st.track.MovementName = v },

	{kindAlbum, 0x012C}: func(st scanState, v string) { st.album.Title = v },
	{kindAlbum, 0x012D}: func(st scanState, v string) { st.album.AlbumArtist = v },
	{kindAlbum, 0x012E}: func(st scanState, v string) { st.album.Artist = v },

	{kindArtist, 0x0004}: func(st scanState, v string) { st.artist.Name = v },

	{kindPlaylist, 0x00C8}: func(st scanState, v string) { st.playlist.Name = v },
}

// stringCodes lists every subtype carrying a wide string.
var stringCodes = []uint32{
	0x0002, 0x0003, 0x0004, 0x0005, 0x0006, 0x0008, 0x000C, 0x000E,
	0x001B, 0x001E, 0x001F, 0x0020, 0x0021, 0x0022, 0x003F, 0x0040,
	0x012C, 0x012D, 0x012E, 0x00C8,
}

// decodeString reads a UTF-16LE string attribute and stores it on the owner.
// Codes that mean nothing for the owner are ignored.
func decodeString(st scanState, owner entityKind, sec section) error {
	set, ok := stringFields[stringKey{owner, sec.subtype}]
	if !ok {
		return nil
	}
	n, err := wideStringLayout.byteLength.int(sec)
	if err != nil {
		return err
	}
	v, err := sliceAt(sec, wideStringLayout.data, n)
	if err != nil {
		return err
	}
	s, err := decodeUTF16(v)
	if err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	set(st, s)
	return nil
}

// sliceAt returns n bytes at off, which must lie inside the section.
func sliceAt(sec section, off, n int) ([]byte, error) {
	end := off + n
	if end > sec.length || end > len(sec.data) {
		return nil, fmt.Errorf("%w: %d bytes at +%d in a %d byte section", errTruncated, n, off, sec.length)
	}
	return sec.data[off:end], nil
}

// decodeUTF16 decodes little-endian UTF-16 and drops trailing NULs.
// An odd trailing byte is ignored.
func decodeUTF16(b []byte) (string, error) {
	b = b[:len(b)&^1]
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode utf-16: %w", err)
	}
	return strings.TrimRight(string(out), "\x00"), nil
}
