package musicdb

import (
	"bytes"
	"fmt"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

// ReadHeader validates the envelope at the start of data and returns its
// fields. The payload starts at Header.EnvelopeLength.
func ReadHeader(data []byte) (library.Header, error) {
	var h library.Header
	if len(data) < 4 || string(data[:4]) != sigEnvelope {
		got := data
		if len(got) > 4 {
			got = got[:4]
		}
		return h, fmt.Errorf("%w: bad signature % x, want %q", ErrFormat, got, sigEnvelope)
	}
	if len(data) < envelope.headerSize {
		return h, fmt.Errorf("%w: envelope is %d bytes, need %d", ErrFormat, len(data), envelope.headerSize)
	}

	env := section{tag: sigEnvelope, length: envelope.headerSize, data: data[:envelope.headerSize]}
	read := func(f field) uint64 {
		v, _ := f.read(env) // the slice covers every envelope field
		return v
	}

	h.EnvelopeLength = uint32(read(envelope.length))   //nolint:gosec // 32-bit field
	h.FileSize = uint32(read(envelope.fileSize))       //nolint:gosec // 32-bit field
	h.MajorVersion = uint16(read(envelope.major))      //nolint:gosec // 16-bit field
	h.MinorVersion = uint16(read(envelope.minor))      //nolint:gosec // 16-bit field
	h.Version = cString(data[envelope.version : envelope.version+envelope.versionLen])
	h.LibraryID = read(envelope.libraryID)
	h.FileType = uint32(read(envelope.fileType))           //nolint:gosec // 32-bit field
	h.TrackCount = uint32(read(envelope.trackCount))       //nolint:gosec // 32-bit field
	h.PlaylistCount = uint32(read(envelope.playlistCount)) //nolint:gosec // 32-bit field
	h.AlbumCount = uint32(read(envelope.albumCount))       //nolint:gosec // 32-bit field
	h.ArtistCount = uint32(read(envelope.artistCount))     //nolint:gosec // 32-bit field
	h.MaxCryptSize = uint32(read(envelope.maxCryptSize))   //nolint:gosec // 32-bit field

	if int(h.EnvelopeLength) > len(data) {
		return h, fmt.Errorf("%w: envelope length %d exceeds file size %d", ErrFormat, h.EnvelopeLength, len(data))
	}
	return h, nil
}

// cString returns b up to the first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
