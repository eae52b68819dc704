package library

import (
	"time"
)

// LikeStatus is the love/dislike flag stored on a track.
type LikeStatus uint8

const (
	Neutral           LikeStatus = 0
	DislikedTransient LikeStatus = 1 // set after a like is removed
	Liked             LikeStatus = 2
	DislikedExplicit  LikeStatus = 3
)

func (s LikeStatus) String() string {
	switch s {
	case Neutral:
		return "neutral"
	case DislikedTransient:
		return "disliked (transient)"
	case Liked:
		return "liked"
	case DislikedExplicit:
		return "disliked"
	default:
		return "unknown"
	}
}

// PlaylistType classifies a playlist.
type PlaylistType int

const (
	Manual PlaylistType = iota
	Smart
	System
	Folder
)

func (t PlaylistType) String() string {
	switch t {
	case Manual:
		return "manual"
	case Smart:
		return "smart"
	case System:
		return "system"
	case Folder:
		return "folder"
	default:
		return "unknown"
	}
}

// Track is a single library item. Zero values mean the field was never seen.
type Track struct {
	ID uint64

	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Kind        string
	Comment     string
	Grouping    string

	SortTitle       string
	SortAlbum       string
	SortArtist      string
	SortAlbumArtist string
	SortComposer    string

	// Classical music fields
	WorkName       string
	MovementName   string
	MovementNumber int
	MovementCount  int

	Year        int
	TrackNumber int
	Rating      int // 0-100, 0 = unrated
	LikeStatus  LikeStatus

	Duration   time.Duration
	BitRate    int
	SampleRate int
	FileSize   int64

	PlayCount  int
	LastPlayed time.Time

	DateAdded    time.Time
	DateModified time.Time

	FilePath string // assembled from the bookmark record, no leading slash
	FileURL  string // decoded location, absolute

	// Weak references, resolved with Library lookups only.
	AlbumRef  uint64
	ArtistRef uint64
}

// Album is an album record.
type Album struct {
	ID          uint64
	Title       string
	Artist      string
	AlbumArtist string
}

// Artist is an artist record.
type Artist struct {
	ID   uint64
	Name string
}

// Playlist is a playlist, folder or system list.
type Playlist struct {
	ID                uint64
	Offset            int // offset of the defining section in the decoded buffer
	Name              string
	TrackCount        int
	Type              PlaylistType
	ParentID          uint64 // 0 = root
	DistinguishedKind int
	HasSmartCriteria  bool
	CreatedAt         time.Time
	ModifiedAt        time.Time
	TrackIDs          []uint64
}

// Header holds the envelope fields of a library file.
type Header struct {
	EnvelopeLength uint32
	FileSize       uint32 // as recorded in the header
	MajorVersion   uint16
	MinorVersion   uint16
	Version        string
	LibraryID      uint64
	FileType       uint32
	TrackCount     uint32
	PlaylistCount  uint32
	AlbumCount     uint32
	ArtistCount    uint32
	MaxCryptSize   uint32
}

// Skip records an attribute or section that could not be decoded.
type Skip struct {
	Offset  int
	Tag     string
	Subtype uint32
	Reason  string
}

// Diagnostics describes how a scan went.
type Diagnostics struct {
	SectionsProcessed int
	UnknownSubtypes   map[uint32]int
	Skipped           []Skip
	Aborted           error // nil when the scan reached the end marker or buffer end
}

// Library is a decoded snapshot. It is not modified after decoding.
type Library struct {
	Path           string
	ParsedAt       time.Time
	ActualFileSize int64

	Header Header

	Tracks    []Track
	Albums    []Album
	Artists   []Artist
	Playlists []Playlist

	Diagnostics Diagnostics

	trackIdx  map[uint64]int
	albumIdx  map[uint64]int
	artistIdx map[uint64]int
}

// New assembles a snapshot and indexes it for id lookups.
func New(h Header, tracks []Track, albums []Album, artists []Artist, playlists []Playlist, diag Diagnostics) *Library {
	l := &Library{
		Header:      h,
		Tracks:      tracks,
		Albums:      albums,
		Artists:     artists,
		Playlists:   playlists,
		Diagnostics: diag,
	}
	l.trackIdx = make(map[uint64]int, len(tracks))
	for i := range tracks {
		l.trackIdx[tracks[i].ID] = i
	}
	l.albumIdx = make(map[uint64]int, len(albums))
	for i := range albums {
		l.albumIdx[albums[i].ID] = i
	}
	l.artistIdx = make(map[uint64]int, len(artists))
	for i := range artists {
		l.artistIdx[artists[i].ID] = i
	}
	return l
}

// TrackByID looks up a track by persistent id.
func (l *Library) TrackByID(id uint64) (*Track, bool) {
	if l.trackIdx == nil {
		for i := range l.Tracks {
			if l.Tracks[i].ID == id {
				return &l.Tracks[i], true
			}
		}
		return nil, false
	}
	i, ok := l.trackIdx[id]
	if !ok {
		return nil, false
	}
	return &l.Tracks[i], true
}

// AlbumByID resolves a track's AlbumRef. References may dangle.
func (l *Library) AlbumByID(id uint64) (*Album, bool) {
	if l.albumIdx == nil {
		for i := range l.Albums {
			if l.Albums[i].ID == id {
				return &l.Albums[i], true
			}
		}
		return nil, false
	}
	i, ok := l.albumIdx[id]
	if !ok {
		return nil, false
	}
	return &l.Albums[i], true
}

// ArtistByID resolves a track's ArtistRef. References may dangle.
func (l *Library) ArtistByID(id uint64) (*Artist, bool) {
	if l.artistIdx == nil {
		for i := range l.Artists {
			if l.Artists[i].ID == id {
				return &l.Artists[i], true
			}
		}
		return nil, false
	}
	i, ok := l.artistIdx[id]
	if !ok {
		return nil, false
	}
	return &l.Artists[i], true
}

// PlaylistsByParent returns playlists whose parent is parentID.
func (l *Library) PlaylistsByParent(parentID uint64) []Playlist {
	var out []Playlist
	for _, p := range l.Playlists {
		if p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out
}
