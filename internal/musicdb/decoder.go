package musicdb

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

// Decoder turns library files into snapshots. A Decoder keeps no state
// between calls and may be shared by goroutines.
type Decoder struct {
	cipher *Cipher
	log    *slog.Logger
	now    func() time.Time
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger used for scan progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDecoder returns a decoder that decrypts payloads with c.
func NewDecoder(c *Cipher, opts ...Option) *Decoder {
	d := &Decoder{
		cipher: c,
		log:    slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodeFile reads and decodes the library file at path.
func (d *Decoder) DecodeFile(path string) (*library.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	lib, err := d.Decode(data)
	if err != nil {
		return nil, err
	}
	lib.Path = path
	return lib, nil
}

// Decode decodes a whole library file held in memory.
func (d *Decoder) Decode(data []byte) (*library.Library, error) {
	h, buf, err := d.DecodePayload(data)
	if err != nil {
		return nil, err
	}
	d.log.Debug("payload decoded",
		"version", h.Version,
		"envelope", h.EnvelopeLength,
		"file_size", len(data),
		"decoded_size", len(buf))

	lib := assemble(h, Scan(buf, h.LibraryID, d.log))
	lib.ActualFileSize = int64(len(data))
	lib.ParsedAt = d.now()
	return lib, nil
}

// DecodePayload validates the envelope and returns it with the decrypted,
// decompressed payload.
func (d *Decoder) DecodePayload(data []byte) (library.Header, []byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return h, nil, err
	}
	if d.cipher == nil {
		return h, nil, fmt.Errorf("%w: decryption key is not set", ErrConfiguration)
	}
	buf, err := decodePayload(d.cipher, h.EnvelopeLength, h.MaxCryptSize, data)
	if err != nil {
		return h, nil, err
	}
	return h, buf, nil
}
