package musicdb

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
)

// cryptSize returns how many leading payload bytes are encrypted.
// Bytes past it are stored as plaintext compressed data.
func cryptSize(maxCrypt uint32, payloadLen int) int {
	if maxCrypt > 0 && int(maxCrypt) < payloadLen {
		return int(maxCrypt)
	}
	return payloadLen / envelope.payloadAligned * envelope.payloadAligned
}

// decodePayload decrypts and inflates the bytes that follow the envelope.
// data is the whole file; its length is taken as the real file size.
func decodePayload(c *Cipher, envLen uint32, maxCrypt uint32, data []byte) ([]byte, error) {
	if int(envLen) > len(data) {
		return nil, fmt.Errorf("%w: envelope length %d exceeds file size %d", ErrFormat, envLen, len(data))
	}
	payload := data[envLen:]
	n := cryptSize(maxCrypt, len(payload))

	plain, err := c.Decrypt(payload[:n])
	if err != nil {
		return nil, err
	}
	stream := io.MultiReader(bytes.NewReader(plain), bytes.NewReader(payload[n:]))
	return inflate(stream, len(payload))
}

// inflate decompresses a zlib stream, falling back to raw deflate when the
// stream has no zlib header.
func inflate(r io.Reader, sizeHint int) ([]byte, error) {
	br := bufio.NewReader(r)
	if isZlib(br) {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
		}
		defer zr.Close()
		return readAll(zr, sizeHint)
	}
	fr := flate.NewReader(br)
	defer fr.Close()
	return readAll(fr, sizeHint)
}

// isZlib reports whether the next two bytes form a deflate zlib header.
func isZlib(br *bufio.Reader) bool {
	b, err := br.Peek(2)
	if err != nil {
		return false
	}
	cmf, flg := uint16(b[0]), uint16(b[1])
	return cmf&0x0f == 8 && (cmf<<8|flg)%31 == 0
}

// maxInitialInflate caps the buffer reserved before inflating; larger
// outputs grow as they are read.
const maxInitialInflate = 64 << 20

// initialInflate is the buffer reserved for a payload of sizeHint bytes.
// Library payloads inflate to several times their compressed size.
func initialInflate(sizeHint int) int {
	return min(max(sizeHint, 0)*4, maxInitialInflate)
}

func readAll(r io.Reader, sizeHint int) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(initialInflate(sizeHint))
	if _, err := io.Copy(&out, r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return out.Bytes(), nil
}
