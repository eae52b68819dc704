package musicdb

import "github.com/pitetb/AppMusicLibParser/internal/library"

// ordered is a map that remembers insertion order.
type ordered[K comparable, V any] struct {
	index map[K]*V
	order []*V
}

func newOrdered[K comparable, V any]() ordered[K, V] {
	return ordered[K, V]{index: make(map[K]*V)}
}

// getOrCreate returns the entry for k, inserting init() if it is absent.
func (o *ordered[K, V]) getOrCreate(k K, init func() V) *V {
	if v, ok := o.index[k]; ok {
		return v
	}
	v := init()
	p := &v
	o.index[k] = p
	o.order = append(o.order, p)
	return p
}

func (o *ordered[K, V]) len() int { return len(o.order) }

func (o *ordered[K, V]) values() []V {
	out := make([]V, len(o.order))
	for i, p := range o.order {
		out[i] = *p
	}
	return out
}

// playlistKey deduplicates playlists. Several sections can share an id,
// so the section offset is part of the key.
type playlistKey struct {
	id     uint64
	offset int
}

// assemble freezes the scan result into a snapshot.
func assemble(h library.Header, r ScanResult) *library.Library {
	return library.New(h, r.Tracks, r.Albums, r.Artists, r.Playlists, r.Diagnostics)
}
