package musicdb

import "errors"

// Structural failures. They are fatal for a decode and are never retried:
// the same input and key always fail the same way.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFormat        = errors.New("format error")
	ErrCrypto        = errors.New("crypto error")
	ErrDecompression = errors.New("decompression error")
	ErrIO            = errors.New("io error")
)
