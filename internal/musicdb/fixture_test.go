package musicdb

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef")

const testLibraryID uint64 = 0xA1B2C3D4E5F60718

// rec builds one section of the decoded buffer.
func rec(tag string, size int) []byte {
	b := make([]byte, size)
	copy(b, tag)
	binary.LittleEndian.PutUint32(b[4:], uint32(size))
	return b
}

// attr builds a boma record of the given subtype.
func attr(subtype uint32, size int) []byte {
	b := make([]byte, size)
	copy(b, tagAttribute)
	binary.LittleEndian.PutUint32(b[attributeLengthAt:], uint32(size))
	binary.LittleEndian.PutUint32(b[attributeSubtypeAt:], subtype)
	return b
}

func put16(b []byte, off int, v uint16) { binary.LittleEndian.PutUint16(b[off:], v) }
func put32(b []byte, off int, v uint32) { binary.LittleEndian.PutUint32(b[off:], v) }
func put64(b []byte, off int, v uint64) { binary.LittleEndian.PutUint64(b[off:], v) }

func trackRec(id uint64) []byte {
	b := rec(tagTrack, 188)
	put64(b, 16, id)
	return b
}

func albumRec(id uint64) []byte {
	b := rec(tagAlbum, 24)
	put64(b, 16, id)
	return b
}

func artistRec(id uint64) []byte {
	b := rec(tagArtist, 24)
	put64(b, 16, id)
	return b
}

func playlistRec(id, parent uint64, trackCount int32, kind byte) []byte {
	b := rec(tagPlaylist, 142)
	put32(b, 16, uint32(trackCount))
	put64(b, 30, id)
	put64(b, 50, parent)
	if parent == 0 || parent == testLibraryID {
		b[79] = kind
	} else {
		b[80] = kind
	}
	return b
}

func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2*i:], u)
	}
	return out
}

func wideAttr(code uint32, s string) []byte {
	data := utf16le(s)
	b := attr(code, wideStringLayout.data+len(data))
	put32(b, 24, uint32(len(data)))
	copy(b[wideStringLayout.data:], data)
	return b
}

func urlAttr(s string) []byte {
	b := attr(subFileURL, fileURLLayout.data+len(s))
	put32(b, 24, uint32(len(s)))
	copy(b[fileURLLayout.data:], s)
	return b
}

func playStatsAttr(count, date uint32) []byte {
	b := attr(subPlayStats, 36)
	put32(b, 28, date)
	put32(b, 32, count)
	return b
}

func playlistItemAttr(trackID uint64) []byte {
	b := attr(subPlaylistItem, 48)
	copy(b[20:], sigPlaylistItem)
	put64(b, 40, trackID)
	return b
}

func bookAttr(subtype uint32, parts ...string) []byte {
	var body bytes.Buffer
	body.Write(make([]byte, 24))
	for _, p := range parts {
		var hdr [8]byte
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(p)))
		binary.LittleEndian.PutUint32(hdr[4:], bookmarkLayout.pathMarker)
		body.Write(hdr[:])
		body.WriteString(p)
		body.Write(make([]byte, pad4(len(p))))
	}
	body.Write(make([]byte, 16))
	b := body.Bytes()
	copy(b, tagAttribute)
	binary.LittleEndian.PutUint32(b[attributeLengthAt:], uint32(len(b)))
	binary.LittleEndian.PutUint32(b[attributeSubtypeAt:], subtype)
	copy(b[20:], sigBookmark)
	return b
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// terminated appends the all-zero end marker and some slack.
func terminated(parts ...[]byte) []byte {
	return append(join(parts...), make([]byte, 16)...)
}

func encryptECB(t *testing.T, key, src []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	require.Zero(t, len(src)%block.BlockSize())
	out := make([]byte, len(src))
	for i := 0; i < len(src); i += block.BlockSize() {
		block.Encrypt(out[i:i+block.BlockSize()], src[i:i+block.BlockSize()])
	}
	return out
}

func zlibBytes(t *testing.T, b []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	_, err := zw.Write(b)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return out.Bytes()
}

type envelopeOpts struct {
	maxCrypt uint32
	version  string
}

func envelopeHeader(payloadLen int, o envelopeOpts) []byte {
	h := make([]byte, envelope.headerSize)
	copy(h, sigEnvelope)
	put32(h, 4, uint32(envelope.headerSize))
	put32(h, 8, uint32(envelope.headerSize+payloadLen))
	put16(h, 12, 20)
	put16(h, 14, 1)
	copy(h[16:48], o.version)
	put64(h, 48, testLibraryID)
	put32(h, 56, 1)
	put32(h, 68, 3)
	put32(h, 72, 2)
	put32(h, 76, 1)
	put32(h, 80, 1)
	put32(h, 84, o.maxCrypt)
	return h
}

// container wraps a decoded buffer the way the application stores it:
// compressed, then the leading cryptSize bytes encrypted.
func container(t *testing.T, decoded []byte, o envelopeOpts) []byte {
	t.Helper()
	payload := zlibBytes(t, decoded)
	n := cryptSize(o.maxCrypt, len(payload))
	enc := encryptECB(t, testKey, payload[:n])
	return join(envelopeHeader(len(payload), o), enc, payload[n:])
}
