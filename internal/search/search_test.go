package search

import (
	"testing"
	"time"

	"github.com/pitetb/AppMusicLibParser/internal/library"
)

// testItem implements Item for testing.
type testItem struct {
	filter  string
	display string
}

func (t testItem) FilterValue() string { return t.filter }

func (t testItem) DisplayText() string { return t.display }

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello", "hello"},
		{"UPPERCASE", "uppercase"},
		{"MixedCase", "mixedcase"},
		{"already lowercase", "already lowercase"},
		{"", ""},
		{"123", "123"},
		{"Hello World", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := normalize(tt.input)
			if result != tt.expected {
				t.Errorf("normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateTrigrams(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "simple word",
			input:    "cat",
			contains: []string{"  c", " ca", "cat", "at "},
			excludes: []string{"   "}, // all-whitespace excluded
		},
		{
			name:     "longer word",
			input:    "hello",
			contains: []string{"  h", " he", "hel", "ell", "llo", "lo ", "o  "},
			excludes: []string{"   "},
		},
		{
			name:     "empty string",
			input:    "",
			contains: nil,
			excludes: nil,
		},
		{
			name:     "short word",
			input:    "ab",
			contains: []string{"  a", " ab", "ab ", "b  "},
			excludes: []string{"   "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generateTrigrams(tt.input)

			if tt.input == "" {
				if result != nil {
					t.Errorf("generateTrigrams(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			for _, tri := range tt.contains {
				if _, ok := result[tri]; !ok {
					t.Errorf("generateTrigrams(%q) missing trigram %q", tt.input, tri)
				}
			}

			for _, tri := range tt.excludes {
				if _, ok := result[tri]; ok {
					t.Errorf("generateTrigrams(%q) should not contain %q", tt.input, tri)
				}
			}
		})
	}
}

func TestTrigramCoverage(t *testing.T) {
	tests := []struct {
		name     string
		query    map[string]struct{}
		item     map[string]struct{}
		expected float64
	}{
		{
			name:     "empty query",
			query:    map[string]struct{}{},
			item:     map[string]struct{}{"abc": {}},
			expected: 0,
		},
		{
			name:     "full match",
			query:    map[string]struct{}{"abc": {}, "bcd": {}},
			item:     map[string]struct{}{"abc": {}, "bcd": {}, "cde": {}},
			expected: 1.0,
		},
		{
			name:     "partial match",
			query:    map[string]struct{}{"abc": {}, "bcd": {}, "xyz": {}, "zzz": {}},
			item:     map[string]struct{}{"abc": {}, "bcd": {}},
			expected: 0.5,
		},
		{
			name:     "no match",
			query:    map[string]struct{}{"abc": {}, "bcd": {}},
			item:     map[string]struct{}{"xyz": {}, "zzz": {}},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := trigramCoverage(tt.query, tt.item)
			if result != tt.expected {
				t.Errorf("trigramCoverage() = %f, want %f", result, tt.expected)
			}
		})
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"", ""},
		{"123", "123"},
		{"Hello World", "Hello World"},
		{"café", "cafe"},
		{"Crème Brûlée", "Creme Brulee"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestTrigramMatcher_Search_EmptyQuery(t *testing.T) {
	items := []Item{
		testItem{filter: "apple", display: "Apple"},
		testItem{filter: "banana", display: "Banana"},
		testItem{filter: "cherry", display: "Cherry"},
	}

	matcher := NewTrigramMatcher(items)
	matches := matcher.Search("")

	if len(matches) != 3 {
		t.Errorf("Search(\"\") returned %d matches, want 3", len(matches))
	}

	// All items should be returned with zero score
	for i, m := range matches {
		if m.Index != i {
			t.Errorf("matches[%d].Index = %d, want %d", i, m.Index, i)
		}
		if m.Score != 0 {
			t.Errorf("matches[%d].Score = %f, want 0", i, m.Score)
		}
	}
}

func TestTrigramMatcher_Search_SingleWord(t *testing.T) {
	items := []Item{
		testItem{filter: "apple pie", display: "Apple Pie"},
		testItem{filter: "banana bread", display: "Banana Bread"},
		testItem{filter: "apple cider", display: "Apple Cider"},
	}

	matcher := NewTrigramMatcher(items)
	matches := matcher.Search("apple")

	if len(matches) != 2 {
		t.Fatalf("Search(\"apple\") returned %d matches, want 2", len(matches))
	}

	// Both apple items should match
	indices := make(map[int]bool)
	for _, m := range matches {
		indices[m.Index] = true
	}

	if !indices[0] || !indices[2] {
		t.Error("expected indices 0 and 2 to match")
	}
}

func TestTrigramMatcher_Search_MultiWord(t *testing.T) {
	items := []Item{
		testItem{filter: "apple pie", display: "Apple Pie"},
		testItem{filter: "banana bread", display: "Banana Bread"},
		testItem{filter: "apple cider", display: "Apple Cider"},
	}

	matcher := NewTrigramMatcher(items)
	matches := matcher.Search("apple pie")

	if len(matches) != 1 {
		t.Fatalf("Search(\"apple pie\") returned %d matches, want 1", len(matches))
	}

	if matches[0].Index != 0 {
		t.Errorf("expected index 0, got %d", matches[0].Index)
	}
}

func TestTrigramMatcher_Search_CaseInsensitive(t *testing.T) {
	items := []Item{
		testItem{filter: "Apple Pie", display: "Apple Pie"},
	}

	matcher := NewTrigramMatcher(items)

	tests := []string{"apple", "APPLE", "ApPlE", "apple pie", "APPLE PIE"}

	for _, query := range tests {
		matches := matcher.Search(query)
		if len(matches) == 0 {
			t.Errorf("Search(%q) returned no matches, expected 1", query)
		}
	}
}

func TestTrigramMatcher_Search_ShortQuery(t *testing.T) {
	items := []Item{
		testItem{filter: "apple", display: "Apple"},
		testItem{filter: "apricot", display: "Apricot"},
		testItem{filter: "banana", display: "Banana"},
	}

	matcher := NewTrigramMatcher(items)

	// Short queries (1-2 chars) use substring match
	matches := matcher.Search("ap")
	if len(matches) != 2 {
		t.Errorf("Search(\"ap\") returned %d matches, want 2", len(matches))
	}

	matches = matcher.Search("a")
	if len(matches) != 3 {
		t.Errorf("Search(\"a\") returned %d matches, want 3 (all contain 'a')", len(matches))
	}
}

func TestTrigramMatcher_Search_NoMatch(t *testing.T) {
	items := []Item{
		testItem{filter: "apple", display: "Apple"},
		testItem{filter: "banana", display: "Banana"},
	}

	matcher := NewTrigramMatcher(items)
	matches := matcher.Search("xyz")

	if len(matches) != 0 {
		t.Errorf("Search(\"xyz\") returned %d matches, want 0", len(matches))
	}
}

func TestTrigramMatcher_Search_SortedByScore(t *testing.T) {
	items := []Item{
		testItem{filter: "something else", display: "Something Else"},
		testItem{filter: "test", display: "Test"},                // Exact match
		testItem{filter: "testing longer", display: "Testing"},   // Partial match
		testItem{filter: "unrelated word", display: "Unrelated"}, // No match
		testItem{filter: "a test here", display: "A Test Here"},  // Contains test
	}

	matcher := NewTrigramMatcher(items)
	matches := matcher.Search("test")

	// Should match items containing "test", sorted by score
	if len(matches) < 2 {
		t.Fatalf("expected at least 2 matches, got %d", len(matches))
	}

	// Verify scores are in descending order
	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not sorted by score: [%d].Score=%f > [%d].Score=%f",
				i, matches[i].Score, i-1, matches[i-1].Score)
		}
	}
}
func TestNewTrigramMatcher_Empty(t *testing.T) {
	matcher := NewTrigramMatcher(nil)

	matches := matcher.Search("")
	if len(matches) != 0 {
		t.Errorf("search on empty matcher should return 0 matches, got %d", len(matches))
	}

	matches = matcher.Search("test")
	if len(matches) != 0 {
		t.Errorf("search on empty matcher should return 0 matches, got %d", len(matches))
	}
}


func TestNormalize_Diacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Beyoncé", "beyonce"},
		{"Sigur Rós", "sigur ros"},
		{"MOTÖRHEAD", "motorhead"},
		{"Ñandú", "nandu"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalize(tt.input); got != tt.expected {
				t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrigramMatcher_Search_StableTies(t *testing.T) {
	items := []Item{
		testItem{filter: "abc one"},
		testItem{filter: "abc two"},
		testItem{filter: "abc three"},
	}

	matches := NewTrigramMatcher(items).Search("abc")
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	for i, m := range matches {
		if m.Index != i {
			t.Errorf("matches[%d].Index = %d, want %d", i, m.Index, i)
		}
	}
}

func testLibrary() *library.Library {
	return library.New(library.Header{},
		[]library.Track{
			{ID: 1, Title: "Crazy in Love", Artist: "Beyoncé", Album: "Dangerously in Love", Duration: 236 * time.Second},
			{ID: 2, Title: "Hoppípolla", Artist: "Sigur Rós", Album: "Takk..."},
			{ID: 3, Title: "Halo", Artist: "Beyoncé", Album: "I Am... Sasha Fierce"},
			{ID: 4, Title: "Untitled"},
		},
		nil, nil,
		[]library.Playlist{
			{ID: 10, Name: "Road Trip"},
			{ID: 11, Name: "Rainy Day"},
		},
		library.Diagnostics{},
	)
}

func TestTracks(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name  string
		query string
		want  []uint64
	}{
		{"artist without accents", "beyonce", []uint64{1, 3}},
		{"title and artist", "halo beyonce", []uint64{3}},
		{"accented query", "hoppípolla", []uint64{2}},
		{"album", "sasha", []uint64{3}},
		{"no match", "metallica", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Tracks(lib, tt.query, 0)
			var got []uint64
			for _, r := range results {
				got = append(got, r.Item.Track.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Tracks(%q) = %v, want %v", tt.query, got, tt.want)
			}
			seen := make(map[uint64]bool)
			for _, id := range got {
				seen[id] = true
			}
			for _, id := range tt.want {
				if !seen[id] {
					t.Errorf("Tracks(%q) missing track %d", tt.query, id)
				}
			}
		})
	}
}

func TestTracks_Limit(t *testing.T) {
	results := Tracks(testLibrary(), "", 2)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Item.Track.ID != 1 || results[1].Item.Track.ID != 2 {
		t.Errorf("empty query should keep library order")
	}
}

func TestTracks_PointsIntoLibrary(t *testing.T) {
	lib := testLibrary()
	results := Tracks(lib, "halo", 1)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Item.Track != &lib.Tracks[2] {
		t.Error("result should reference the library track")
	}
}

func TestPlaylists(t *testing.T) {
	results := Playlists(testLibrary(), "road", 0)
	if len(results) != 1 || results[0].Item.Playlist.ID != 10 {
		t.Errorf("Playlists(road) = %+v", results)
	}
}

func TestTrackItem_DisplayText(t *testing.T) {
	tests := []struct {
		track library.Track
		want  string
	}{
		{library.Track{Title: "Halo", Artist: "Beyoncé"}, "Beyoncé - Halo"},
		{library.Track{Title: "Untitled"}, "Untitled"},
	}
	for _, tt := range tests {
		if got := (TrackItem{Track: &tt.track}).DisplayText(); got != tt.want {
			t.Errorf("DisplayText() = %q, want %q", got, tt.want)
		}
	}
}
