package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/pitetb/AppMusicLibParser/internal/inspect"
	"github.com/pitetb/AppMusicLibParser/internal/library"
	"github.com/pitetb/AppMusicLibParser/internal/search"
	"github.com/pitetb/AppMusicLibParser/internal/verify"
)

func testLibrary() *library.Library {
	lib := library.New(
		library.Header{Version: "1.14.3", MajorVersion: 0x1B, MinorVersion: 2, LibraryID: 0xA1B2C3D4E5F60718, TrackCount: 4, PlaylistCount: 3},
		[]library.Track{
			{ID: 1, Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road", Rating: 100, PlayCount: 12, LikeStatus: library.Liked, Duration: 259 * time.Second},
			{ID: 2, Title: "Something", Artist: "The Beatles", Album: "Abbey Road", Rating: 100, PlayCount: 3},
			{ID: 3, Title: "Rocks Off", Artist: "Rolling Stones", Album: "Exile on Main St", Rating: 60, LikeStatus: library.DislikedExplicit},
			{ID: 4, Title: "Intro\x00", Rating: 50},
		},
		[]library.Album{{ID: 10, Title: "Abbey Road"}},
		[]library.Artist{{ID: 20, Name: "The Beatles"}},
		[]library.Playlist{
			{ID: 100, Name: "Rock", Type: library.Folder},
			{ID: 101, Name: "Sixties", ParentID: 100, Type: library.Manual, TrackCount: 2},
			{ID: 102, Name: "Recently Added", Type: library.Smart, HasSmartCriteria: true, TrackCount: 4},
		},
		library.Diagnostics{SectionsProcessed: 1234},
	)
	lib.Path = "/Users/me/Music/Library.musicdb"
	lib.ActualFileSize = 2 << 20
	return lib
}

func plain(s string) string { return ansi.Strip(s) }

func TestInfo(t *testing.T) {
	out := plain(Info(testLibrary()))

	for _, want := range []string{
		"A1B2C3D4E5F60718",
		"1.14.3",
		"(format 27.2)",
		"/Users/me/Music/Library.musicdb",
		"2,097,152 bytes (2.0 MiB)",
		"Tracks:    4",
		"├─ smart: 1",
		"└─ root: 2",
		"Rock (folder)",
		"Sixties (2 tracks)",
		"Recently Added ★ (smart) (4 tracks)",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Recently Added"), strings.Index(out, "Rock (folder)"), "roots sorted by name")
}

func TestInfo_NoPlaylists(t *testing.T) {
	lib := testLibrary()
	lib.Playlists = nil
	assert.NotContains(t, plain(Info(lib)), "Playlists\n─")
}

func TestStats(t *testing.T) {
	out := plain(Stats(testLibrary(), 1))

	assert.Contains(t, out, "Tracks played")
	assert.Contains(t, out, "Total plays")
	assert.Contains(t, out, "7.5")
	assert.Contains(t, out, "Top 1 most played")
	assert.Contains(t, out, "Come Together")
	assert.NotContains(t, out, "Something")
}

func TestStats_NothingPlayed(t *testing.T) {
	lib := library.New(library.Header{}, []library.Track{{ID: 1, Title: "Silent"}}, nil, nil, nil, library.Diagnostics{})
	out := plain(Stats(lib, 5))
	assert.NotContains(t, out, "Average")
	assert.NotContains(t, out, "most played")
}

func TestRatings(t *testing.T) {
	out := plain(Ratings(testLibrary(), 1))

	assert.Contains(t, out, "★★★★★")
	assert.Contains(t, out, "66.7%", "two of three whole-star ratings are five stars")
	assert.Contains(t, out, "★★★★★ - examples (1/2)")
	assert.Contains(t, out, "★★★☆☆ - examples (1/1)")
	assert.NotContains(t, out, "★★☆☆☆ - examples")
	// Examples are sorted by title within the same artist and album.
	assert.Contains(t, out, "Come Together")
	assert.NotContains(t, out, "Something")
}

func TestLikes(t *testing.T) {
	out := plain(Likes(testLibrary(), 10))

	assert.Contains(t, out, "Liked - examples (1/1)")
	assert.Contains(t, out, "Disliked - examples (1/1)")
	assert.NotContains(t, out, "Unliked - examples")
	assert.NotContains(t, out, "Neutral - examples")
	assert.Contains(t, out, "25.0%")
}

func TestLikes_NoExamples(t *testing.T) {
	out := plain(Likes(testLibrary(), 0))
	assert.NotContains(t, out, "examples")
}

func TestSearchResults(t *testing.T) {
	lib := testLibrary()

	out := plain(SearchResults("come", lib.SearchTitle("come")))
	assert.Contains(t, out, "1 track(s) found")
	assert.Contains(t, out, "0000000000000001")
	assert.Contains(t, out, "★★★★★ (100/100)")
	assert.Contains(t, out, "4:19")
	assert.Contains(t, out, "liked (2)")

	assert.Contains(t, plain(SearchResults("zeppelin", nil)), `No track title contains "zeppelin"`)
}

func TestSearchResults_SanitizesMetadata(t *testing.T) {
	lib := testLibrary()
	out := plain(SearchResults("intro", lib.SearchTitle("intro")))
	assert.Contains(t, out, "Intro")
	assert.NotContains(t, out, "\x00")
}

func TestFuzzyResults(t *testing.T) {
	lib := testLibrary()
	out := plain(FuzzyResults("beatles", search.Tracks(lib, "beatles", 0)))
	assert.Contains(t, out, "2 match(es)")
	assert.Contains(t, out, "Something")

	assert.Contains(t, plain(FuzzyResults("xyz", nil)), `No track matches "xyz"`)
}

func TestPlaylistMatches(t *testing.T) {
	lib := testLibrary()
	out := plain(PlaylistMatches("recently", search.Playlists(lib, "recently", 0)))
	assert.Contains(t, out, "1 match(es)")
	assert.Contains(t, out, "Recently Added")
	assert.Contains(t, out, "smart")

	assert.Contains(t, plain(PlaylistMatches("xyz", nil)), `No playlist matches "xyz"`)
}

func TestHits(t *testing.T) {
	out := plain(Hits("abbey", testLibrary().Tracks[:2]))
	assert.Contains(t, out, "2 track(s) found")
	assert.Contains(t, out, "Something")

	assert.Contains(t, plain(Hits("abbey", nil)), `No track matches "abbey"`)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", formatDuration(0))
	assert.Equal(t, "4:19", formatDuration(259*time.Second+200*time.Millisecond))
	assert.Equal(t, "1:02:03", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}

func TestCompare_Identical(t *testing.T) {
	a := []byte("hfma-buffer")
	out := plain(Compare(a, a, inspect.Diff(a, a)))
	assert.Contains(t, out, "Buffers are identical")
	assert.NotContains(t, out, "Size difference")
}

func TestCompare(t *testing.T) {
	a := make([]byte, 64)
	b := make([]byte, 70)
	for i := 10; i < 16; i++ {
		b[i] = 0xFF
	}
	b[40] = 0x07

	out := plain(Compare(a, b, inspect.Diff(a, b)))
	assert.Contains(t, out, "Differing bytes: 7")
	assert.Contains(t, out, "Size difference: 6 bytes")
	assert.Contains(t, out, "0x0000000A - 0x0000000F (6 bytes)")
	assert.Contains(t, out, "0x00000028: 0x00 → 0x07 (decimal: 0 → 7)")
	assert.Contains(t, out, "[07]")
}

func TestDiagnostics(t *testing.T) {
	lib := testLibrary()
	lib.Diagnostics.UnknownSubtypes = map[uint32]int{0x1F4: 3, 7: 9}
	lib.Diagnostics.Skipped = []library.Skip{{Offset: 0x2214, Tag: "boma", Subtype: 0x2, Reason: "truncated"}}
	lib.Diagnostics.Aborted = errors.New("section length overruns buffer")

	out := plain(Diagnostics(lib))
	assert.Contains(t, out, "Sections processed: 1,234")
	assert.Contains(t, out, "Stopped early: section length overruns buffer")
	assert.Contains(t, out, "Playlists: 3 decoded, 3 in header")
	assert.Contains(t, out, "0x1F4")
	assert.Contains(t, out, "0x00002214")
	assert.Less(t, strings.Index(out, "0x7 "), strings.Index(out, "0x1F4"), "most frequent subtype first")
}

func TestDiagnostics_Clean(t *testing.T) {
	out := plain(Diagnostics(testLibrary()))
	assert.Contains(t, out, "Reached the end of the buffer")
	assert.NotContains(t, out, "Unknown attribute subtypes")
	assert.NotContains(t, out, "Skipped (first")
}

func TestVerify(t *testing.T) {
	res := verify.Result{
		Checked:    3,
		OK:         1,
		NoLocation: 2,
		Findings: []verify.Finding{
			{TrackID: 1, Title: "Come Together", Path: "/Music/01 Come Together.m4a", Kind: verify.TitleMismatch, Want: "Come Together", Got: "Come Togther"},
			{TrackID: 2, Path: "/Music/gone.mp3", Kind: verify.Missing, Err: errors.New("no such file")},
		},
	}
	out := plain(Verify(res))

	assert.Contains(t, out, "Checked")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "Come Togther")
	assert.Contains(t, out, "no such file")
	assert.Contains(t, out, "0000000000000002", "untitled tracks show their id")
	assert.NotContains(t, out, "unreadable")
}

func TestExported(t *testing.T) {
	out := plain(Exported("/tmp/library.db", map[string]int{"tracks": 1200, "playlists": 3}))
	assert.Equal(t, "✓ exported 1,200 tracks, 0 albums, 0 artists, 3 playlists to /tmp/library.db\n", out)
}
