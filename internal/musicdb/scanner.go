package musicdb

import (
	"cmp"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

const (
	progressEvery     = 5000
	unknownReportSize = 20
)

// section is one tagged record of the decoded buffer.
type section struct {
	tag     string
	start   int    // offset in the decoded buffer
	length  int    // declared span, header included
	data    []byte // the span, cut short at the end of the buffer
	subtype uint32 // boma only
}

// scanState holds the entities that attribute records attach to.
// Handlers take the state and return the next one.
type scanState struct {
	track    *library.Track
	album    *library.Album
	artist   *library.Artist
	playlist *library.Playlist
}

// owner picks the entity an attribute belongs to.
func (st scanState) owner() (entityKind, bool) {
	switch {
	case st.track != nil:
		return kindTrack, true
	case st.album != nil:
		return kindAlbum, true
	case st.artist != nil:
		return kindArtist, true
	case st.playlist != nil:
		return kindPlaylist, true
	}
	return 0, false
}

// ScanResult holds the entities found in a decoded buffer, in the order
// they first appeared.
type ScanResult struct {
	Tracks      []library.Track
	Albums      []library.Album
	Artists     []library.Artist
	Playlists   []library.Playlist
	Diagnostics library.Diagnostics
}

type scanner struct {
	buf       []byte
	libraryID uint64
	log       *slog.Logger
	trace     bool

	tracks    ordered[uint64, library.Track]
	albums    ordered[uint64, library.Album]
	artists   ordered[uint64, library.Artist]
	playlists ordered[playlistKey, library.Playlist]

	diag library.Diagnostics
}

// Scan walks a decoded buffer and rebuilds its entities. It never fails:
// damaged records are skipped and reported in the diagnostics, and a
// structural fault stops the walk but keeps what was found before it.
// libraryID is the envelope's library id, which marks root playlists.
func Scan(buf []byte, libraryID uint64, log *slog.Logger) ScanResult {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &scanner{
		buf:       buf,
		libraryID: libraryID,
		log:       log,
		trace:     log.Enabled(context.Background(), slog.LevelDebug),
		tracks:    newOrdered[uint64, library.Track](),
		albums:    newOrdered[uint64, library.Album](),
		artists:   newOrdered[uint64, library.Artist](),
		playlists: newOrdered[playlistKey, library.Playlist](),
		diag:      library.Diagnostics{UnknownSubtypes: make(map[uint32]int)},
	}
	s.run()
	s.summarize()

	return ScanResult{
		Tracks:      s.tracks.values(),
		Albums:      s.albums.values(),
		Artists:     s.artists.values(),
		Playlists:   s.playlists.values(),
		Diagnostics: s.diag,
	}
}

func (s *scanner) run() {
	var st scanState
	pos := 0
	for pos < len(s.buf)-sectionHeaderSize {
		if isZero(s.buf[pos : pos+4]) {
			if s.trace {
				s.log.Debug("end marker", "offset", pos)
			}
			return
		}
		sec, err := s.next(pos)
		if err != nil {
			s.abort(pos, err)
			return
		}
		s.diag.SectionsProcessed++
		st = s.dispatch(st, sec)

		if s.trace && s.diag.SectionsProcessed%progressEvery == 0 {
			s.log.Debug("scan progress",
				"sections", s.diag.SectionsProcessed,
				"offset", pos,
				"tracks", s.tracks.len(),
				"playlists", s.playlists.len())
		}

		end := sec.start + sec.length
		if end > len(s.buf) {
			s.abort(pos, fmt.Errorf("%w: %q section of %d bytes at %d, %d bytes left",
				errTruncated, sec.tag, sec.length, pos, len(s.buf)-pos))
			return
		}
		pos = end
	}
}

// next reads the section header at pos.
func (s *scanner) next(pos int) (section, error) {
	tag := string(s.buf[pos : pos+4])
	lengthAt, headerSize := 4, sectionHeaderSize
	if tag == tagAttribute {
		lengthAt, headerSize = attributeLengthAt, attributeHeaderSize
	}
	if pos+headerSize > len(s.buf) {
		return section{}, fmt.Errorf("%w: %q header at %d", errTruncated, tag, pos)
	}
	length := int(binary.LittleEndian.Uint32(s.buf[pos+lengthAt:]))
	if length < minSectionLength {
		return section{}, fmt.Errorf("%q section at %d declares length %d", tag, pos, length)
	}
	end := min(pos+length, len(s.buf))
	return section{tag: tag, start: pos, length: length, data: s.buf[pos:end]}, nil
}

func (s *scanner) dispatch(st scanState, sec section) scanState {
	switch sec.tag {
	case tagAlbumList:
		st.album = nil
	case tagArtistList:
		st.artist = nil
	case tagPlaylistList:
		st.playlist = nil
	case tagTrackList:
		st.track = nil
		if n, err := trackListLayout.trackCount.int(sec); err == nil && s.trace {
			s.log.Debug("track list", "offset", sec.start, "tracks", n)
		}
	case tagAlbum:
		st.track, st.artist = nil, nil
		st.album = s.openAlbum(sec)
	case tagArtist:
		st.track, st.album = nil, nil
		st.artist = s.openArtist(sec)
	case tagPlaylist:
		st.track, st.album, st.artist = nil, nil, nil
		st.playlist = s.openPlaylist(sec)
	case tagTrack:
		st.track = s.openTrack(sec)
	case tagAttribute:
		s.attribute(st, sec)
	}
	return st
}

func (s *scanner) openAlbum(sec section) *library.Album {
	id, err := albumLayout.id.read(sec)
	if err != nil {
		s.skip(sec, err)
		return nil
	}
	s.traceItem("album", sec, albumLayout, id)
	return s.albums.getOrCreate(id, func() library.Album { return library.Album{ID: id} })
}

func (s *scanner) openArtist(sec section) *library.Artist {
	id, err := artistLayout.id.read(sec)
	if err != nil {
		s.skip(sec, err)
		return nil
	}
	s.traceItem("artist", sec, artistLayout, id)
	return s.artists.getOrCreate(id, func() library.Artist { return library.Artist{ID: id} })
}

func (s *scanner) traceItem(kind string, sec section, l itemLayout, id uint64) {
	if !s.trace {
		return
	}
	assoc, _ := l.associatedLength.int(sec)
	n, _ := l.attributeCount.int(sec)
	s.log.Debug(kind, "offset", sec.start, "id", id, "associated", assoc, "attributes", n)
}

func (s *scanner) openPlaylist(sec section) *library.Playlist {
	l := playlistLayout
	id, err := l.id.read(sec)
	if err != nil {
		s.skip(sec, err)
		return nil
	}
	trackCount, err := l.trackCount.int(sec)
	s.fault(sec, err)

	var parent uint64
	if v, err := l.parentID.read(sec); err == nil {
		if v != s.libraryID {
			parent = v
		}
	} else {
		s.fault(sec, err)
	}

	kindField := l.rootKind
	if parent != 0 {
		kindField = l.childKind
	}
	kind, err := kindField.int(sec)
	s.fault(sec, err)

	p := s.playlists.getOrCreate(playlistKey{id: id, offset: sec.start}, func() library.Playlist {
		return library.Playlist{ID: id, Offset: sec.start}
	})
	p.TrackCount = trackCount
	p.ParentID = parent
	p.DistinguishedKind = kind
	switch {
	case trackCount == 0 && kind == 0:
		p.Type = library.Folder
	case kind != 0:
		p.Type = library.System
	default:
		p.Type = library.Manual
	}
	s.setTime(sec, l.createdAt, &p.CreatedAt)
	s.setTime(sec, l.modifiedAt, &p.ModifiedAt)

	if s.trace {
		n, _ := l.attributeCount.int(sec)
		s.log.Debug("playlist", "offset", sec.start, "id", id, "parent", parent,
			"kind", kind, "tracks", trackCount, "attributes", n)
	}
	return p
}

func (s *scanner) openTrack(sec section) *library.Track {
	l := trackLayout
	id, err := l.id.read(sec)
	if err != nil {
		s.skip(sec, err)
		return nil
	}
	t := s.tracks.getOrCreate(id, func() library.Track { return library.Track{ID: id} })

	s.setInt(sec, l.likeStatus, func(n int) { t.LikeStatus = library.LikeStatus(n) }) //nolint:gosec // checked range
	s.setInt(sec, l.rating, func(n int) { t.Rating = n })
	s.setInt(sec, l.movementCount, func(n int) { t.MovementCount = n })
	s.setInt(sec, l.movementNumber, func(n int) { t.MovementNumber = n })
	s.setInt(sec, l.trackNumber, func(n int) { t.TrackNumber = n })
	s.setInt(sec, l.year, func(n int) { t.Year = n })
	s.setID(sec, l.albumRef, func(v uint64) { t.AlbumRef = v })
	s.setID(sec, l.artistRef, func(v uint64) { t.ArtistRef = v })
	return t
}

func (s *scanner) attribute(st scanState, sec section) {
	sub, err := attributeLayout.subtype.read(sec)
	if err != nil {
		s.skip(sec, err)
		return
	}
	sec.subtype = uint32(sub) //nolint:gosec // 32-bit field

	owner, ok := st.owner()
	if !ok {
		return
	}
	decode, known := attributeDecoders[sec.subtype]
	if !known {
		s.diag.UnknownSubtypes[sec.subtype]++
		return
	}
	s.fault(sec, decode(st, owner, sec))
}

func (s *scanner) setInt(sec section, f field, set func(int)) {
	n, err := f.int(sec)
	if err != nil {
		s.fault(sec, err)
		return
	}
	set(n)
}

func (s *scanner) setID(sec section, f field, set func(uint64)) {
	v, err := f.read(sec)
	if err != nil {
		s.fault(sec, err)
		return
	}
	set(v)
}

func (s *scanner) setTime(sec section, f field, dst *time.Time) {
	v, err := f.read(sec)
	if err != nil {
		s.fault(sec, err)
		return
	}
	if v != 0 {
		*dst = AppleTime(uint32(v)) //nolint:gosec // 32-bit field
	}
}

// fault records err unless it only says a value is missing or implausible.
func (s *scanner) fault(sec section, err error) {
	if err == nil || errors.Is(err, errAbsent) || errors.Is(err, errImplausible) {
		return
	}
	s.skip(sec, err)
}

func (s *scanner) skip(sec section, err error) {
	s.diag.Skipped = append(s.diag.Skipped, library.Skip{
		Offset:  sec.start,
		Tag:     sec.tag,
		Subtype: sec.subtype,
		Reason:  err.Error(),
	})
	if s.trace {
		s.log.Debug("skipped record", "offset", sec.start, "tag", sec.tag,
			"subtype", fmt.Sprintf("0x%04X", sec.subtype), "error", err)
	}
}

func (s *scanner) abort(pos int, err error) {
	s.diag.Aborted = err
	s.log.Warn("scan stopped early", "offset", pos, "sections", s.diag.SectionsProcessed, "error", err)
}

func (s *scanner) summarize() {
	s.log.Debug("scan complete",
		"sections", s.diag.SectionsProcessed,
		"tracks", s.tracks.len(),
		"albums", s.albums.len(),
		"artists", s.artists.len(),
		"playlists", s.playlists.len(),
		"skipped", len(s.diag.Skipped))
	if !s.trace || len(s.diag.UnknownSubtypes) == 0 {
		return
	}
	for _, u := range TopUnknown(s.diag.UnknownSubtypes, unknownReportSize) {
		s.log.Debug("unknown attribute", "subtype", fmt.Sprintf("0x%04X", u.Subtype), "count", u.Count)
	}
}

// SubtypeCount is an attribute subtype and how often it was seen.
type SubtypeCount struct {
	Subtype uint32
	Count   int
}

// TopUnknown returns the n most frequent subtypes, most frequent first.
func TopUnknown(counts map[uint32]int, n int) []SubtypeCount {
	out := make([]SubtypeCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, SubtypeCount{Subtype: k, Count: v})
	}
	slices.SortFunc(out, func(a, b SubtypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Subtype, b.Subtype)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
