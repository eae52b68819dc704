package musicdb

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// The library format is reverse engineered. Every fixed offset the decoder
// relies on lives in this file as data, relative to the start of the
// section (or envelope) that contains it.

// Section tags.
const (
	tagAlbumList    = "lama"
	tagAlbum        = "iama"
	tagArtistList   = "lAma"
	tagArtist       = "iAma"
	tagPlaylistList = "lPma"
	tagPlaylist     = "lpma"
	tagTrackList    = "ltma"
	tagTrack        = "itma"
	tagAttribute    = "boma"

	sigPlaylistItem = "ipfa"
	sigBookmark     = "book"
	sigEnvelope     = "hfma"
)

const (
	sectionHeaderSize   = 8  // tag + length
	attributeHeaderSize = 12 // tag + marker + length
	attributeLengthAt   = 8
	attributeSubtypeAt  = 12
	attributePayloadAt  = 16

	minSectionLength = 8
)

var (
	// errAbsent means the declared section length does not cover the field.
	errAbsent = errors.New("field not present")
	// errImplausible means the stored value is outside the field's valid range.
	errImplausible = errors.New("implausible value")
	// errTruncated means the declared length covers the field but the
	// decoded buffer ends first.
	errTruncated = errors.New("truncated")
)

// field describes one fixed-offset little-endian integer.
type field struct {
	name    string
	offset  int
	width   int  // 1, 2, 4 or 8 bytes
	signed  bool // two's complement, width 4 only
	minLen  int  // declared section length required; 0 means offset+width
	lo, hi  int64
	checked bool // lo..hi is enforced
	nonZero bool // zero is treated as absent
}

// need is the declared section length required before f is read. A field
// is never read past its own end, whatever minLen says.
func (f field) need() int {
	return max(f.minLen, f.offset+f.width)
}

// read returns the raw value of f in sec.
func (f field) read(sec section) (uint64, error) {
	if sec.length < f.need() {
		return 0, errAbsent
	}
	end := f.offset + f.width
	if end > len(sec.data) {
		return 0, fmt.Errorf("%w: %s at +%d", errTruncated, f.name, f.offset)
	}
	b := sec.data[f.offset:end]

	var v uint64
	switch f.width {
	case 1:
		v = uint64(b[0])
	case 2:
		v = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		v = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		v = binary.LittleEndian.Uint64(b)
	default:
		return 0, fmt.Errorf("field %s: unsupported width %d", f.name, f.width)
	}

	if f.nonZero && v == 0 {
		return 0, errImplausible
	}
	if f.checked {
		n := int64(v) //nolint:gosec // widths above 4 are never range checked
		if f.signed {
			n = int64(int32(uint32(v))) //nolint:gosec // reinterpreting the stored bits
		}
		if n < f.lo || n > f.hi {
			return 0, errImplausible
		}
	}
	return v, nil
}

// int reads f as a signed or unsigned integer.
func (f field) int(sec section) (int, error) {
	v, err := f.read(sec)
	if err != nil {
		return 0, err
	}
	if f.signed {
		return int(int32(uint32(v))), nil //nolint:gosec // reinterpreting the stored bits
	}
	return int(v), nil //nolint:gosec // values are at most 32 bits wide
}

func u8(name string, offset int) field  { return field{name: name, offset: offset, width: 1} }
func u16(name string, offset int) field { return field{name: name, offset: offset, width: 2} }
func u32(name string, offset int) field { return field{name: name, offset: offset, width: 4} }
func u64(name string, offset int) field { return field{name: name, offset: offset, width: 8} }

func (f field) within(lo, hi int64) field {
	f.lo, f.hi, f.checked = lo, hi, true
	return f
}

func (f field) nonzero() field {
	f.nonZero = true
	return f
}

func (f field) requires(n int) field {
	f.minLen = n
	return f
}

func (f field) asSigned() field {
	f.signed = true
	return f
}

// Envelope header, 160 bytes.
var envelope = struct {
	headerSize     int
	versionLen     int
	magic          int
	length         field
	fileSize       field
	major, minor   field
	version        int
	libraryID      field
	fileType       field
	trackCount     field
	playlistCount  field
	albumCount     field
	artistCount    field
	maxCryptSize   field
	payloadAligned int
}{
	headerSize:     160,
	versionLen:     32,
	magic:          0,
	length:         u32("envelope length", 4),
	fileSize:       u32("file size", 8),
	major:          u16("major version", 12),
	minor:          u16("minor version", 14),
	version:        16,
	libraryID:      u64("library id", 48),
	fileType:       u32("file type", 56),
	trackCount:     u32("track count", 68), // 8 reserved bytes at 60
	playlistCount:  u32("playlist count", 72),
	albumCount:     u32("album count", 76),
	artistCount:    u32("artist count", 80),
	maxCryptSize:   u32("max crypt size", 84),
	payloadAligned: 16,
}

// Track list master (ltma).
var trackListLayout = struct {
	trackCount field
}{
	trackCount: u32("track count", 8),
}

// Album (iama) and artist (iAma) sections share a layout.
type itemLayout struct {
	associatedLength field
	attributeCount   field
	id               field
}

var albumLayout = itemLayout{
	associatedLength: u32("associated length", 8),
	attributeCount:   u32("attribute count", 12),
	id:               u64("album id", 16),
}

var artistLayout = itemLayout{
	associatedLength: u32("associated length", 8),
	attributeCount:   u32("attribute count", 12),
	id:               u64("artist id", 16),
}

// Playlist (lpma). A section shorter than 38 bytes has no id and is
// skipped; every kept playlist therefore also carries its track count.
var playlistLayout = struct {
	attributeCount   field
	trackCount       field
	createdAt        field
	id               field
	parentID         field
	rootKind         field // distinguished kind when the playlist has no parent
	childKind        field // distinguished kind when it has one
	modifiedAt       field
}{
	attributeCount: u32("attribute count", 12),
	trackCount:     u32("track count", 16).asSigned(),
	createdAt:      u32("created at", 22),
	id:             u64("playlist id", 30),
	parentID:       u64("parent id", 50),
	rootKind:       u8("distinguished kind", 79).requires(82),
	childKind:      u8("distinguished kind", 80).requires(82),
	modifiedAt:     u32("modified at", 138),
}

// Track (itma). Like status and rating are read from any section that
// covers them; the rest only from sections of at least 172 bytes.
var trackLayout = struct {
	attributeCount field
	id             field
	likeStatus     field
	rating         field
	movementCount  field
	movementNumber field
	trackNumber    field
	year           field
	albumRef       field
	artistRef      field
}{
	attributeCount: u32("attribute count", 12),
	id:             u64("track id", 16),
	likeStatus:     u8("like status", 62).within(0, 3),
	rating:         u8("rating", 65).within(1, 100),
	movementCount:  u16("movement count", 86).within(1, 999).requires(trackExtrasLen),
	movementNumber: u16("movement number", 88).within(1, 999).requires(trackExtrasLen),
	trackNumber:    u16("track number", 160).within(1, 9999).requires(trackExtrasLen),
	year:           u32("year", 168).asSigned().within(1901, 2099).requires(trackExtrasLen), // 6 unknown bytes after the track number
	albumRef:       u64("album ref", 172).nonzero().requires(trackExtrasLen),
	artistRef:      u64("artist ref", 180).nonzero().requires(trackExtrasLen),
}

const trackExtrasLen = 172

// Attribute (boma) subtypes.
const (
	subNumeric       uint32 = 0x0001
	subFileURL       uint32 = 0x000B
	subPlayStats     uint32 = 0x0017
	subSmartCriteria uint32 = 0x00C9
	subPlaylistItem  uint32 = 0x00CE
)

var bookmarkSubtypes = []uint32{0x0042, 0x01FC, 0x01FD, 0x0200}

var attributeLayout = struct {
	length  field
	subtype field
}{
	length:  u32("length", attributeLengthAt),
	subtype: u32("subtype", attributeSubtypeAt),
}

// Numeric block (0x0001). The group is only read when the section is at
// least 180 bytes long.
var numericLayout = struct {
	bitRate      field
	dateAdded    field
	dateModified field
	durationMs   field
	fileSize     field
}{
	bitRate:      u32("bit rate", 108).requires(180),
	dateAdded:    u32("date added", 112).requires(180),
	dateModified: u32("date modified", 148).requires(180),
	durationMs:   u32("duration", 176).requires(180),
	fileSize:     u32("file size", 316).requires(320),
}

// UTF-16LE string record: 8 unknown bytes, length, 8 unknown bytes, data.
var wideStringLayout = struct {
	byteLength field
	data       int
}{
	byteLength: u32("string length", 24).within(1, 9999),
	data:       36,
}

// File URL (0x000B): two unknown words, length, two unknown words, UTF-8 data.
var fileURLLayout = struct {
	byteLength field
	data       int
}{
	byteLength: u32("url length", 24).within(1, 999),
	data:       36,
}

// Play statistics (0x0017).
var playStatsLayout = struct {
	persistentID field
	lastPlayed   field
	playCount    field
}{
	persistentID: u64("persistent id", 20),
	lastPlayed:   u32("play date", 28),
	playCount:    u32("play count", 32),
}

// Playlist membership (0x00CE).
var playlistItemLayout = struct {
	signature int
	trackID   field
}{
	signature: 20,
	trackID:   u64("track id", 40).nonzero(),
}

// Bookmark path (book): fragments of [length][marker][bytes][pad to 4].
var bookmarkLayout = struct {
	signature      int
	fragments      int
	fragmentHeader int
	pathMarker     uint32
	maxFragment    uint32
}{
	signature:      20,
	fragments:      24,
	fragmentHeader: 8,
	pathMarker:     0x0101,
	maxFragment:    1000,
}
