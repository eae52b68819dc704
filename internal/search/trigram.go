package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Match is an item index with its score.
type Match struct {
	Index int
	Score float64
}

// minCoverage is the share of a word's trigrams an item must contain.
const minCoverage = 0.4

// TrigramMatcher ranks items against multi-word queries.
type TrigramMatcher struct {
	items        []Item
	itemTrigrams []map[string]struct{}
	normalized   []string
}

// NewTrigramMatcher indexes items for searching.
func NewTrigramMatcher(items []Item) *TrigramMatcher {
	m := &TrigramMatcher{
		items:        items,
		itemTrigrams: make([]map[string]struct{}, len(items)),
		normalized:   make([]string, len(items)),
	}

	for i, item := range items {
		text := normalize(item.FilterValue())
		m.normalized[i] = text
		m.itemTrigrams[i] = generateTrigrams(text)
	}

	return m
}

// Search finds items matching every word of query, best first. Ties keep
// item order. An empty query matches everything with a zero score.
func (m *TrigramMatcher) Search(query string) []Match {
	words := strings.Fields(normalize(query))
	if len(words) == 0 {
		matches := make([]Match, len(m.items))
		for i := range m.items {
			matches[i] = Match{Index: i}
		}
		return matches
	}

	wordTrigrams := make([]map[string]struct{}, len(words))
	for i, word := range words {
		wordTrigrams[i] = generateTrigrams(word)
	}

	var matches []Match
	for i, itemTris := range m.itemTrigrams {
		if score := m.scoreItem(i, words, wordTrigrams, itemTris); score > 0 {
			matches = append(matches, Match{Index: i, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches
}

// scoreItem returns 0 unless every word matches.
func (m *TrigramMatcher) scoreItem(idx int, words []string, wordTrigrams []map[string]struct{}, itemTris map[string]struct{}) float64 {
	text := m.normalized[idx]
	totalScore := 0.0

	for i, word := range words {
		// 1-2 character words have no useful trigrams
		if len([]rune(word)) <= 2 {
			if !strings.Contains(text, word) {
				return 0
			}
			totalScore += 1.0
			continue
		}

		// Coverage rather than Jaccard: a short word against a long
		// "title artist album" string would never reach a Jaccard threshold.
		similarity := trigramCoverage(wordTrigrams[i], itemTris)
		if similarity < minCoverage {
			return 0
		}

		if strings.Contains(text, word) {
			similarity += 0.5
		}

		totalScore += similarity
	}

	return totalScore / float64(len(words))
}

// normalize lowercases and strips diacritics, so "beyonce" finds "Beyoncé".
func normalize(s string) string {
	return RemoveDiacritics(strings.ToLower(s))
}

// generateTrigrams creates the set of trigrams for a string.
// Pads with spaces at start/end for better prefix/suffix matching.
func generateTrigrams(s string) map[string]struct{} {
	if s == "" {
		return nil
	}

	tris := make(map[string]struct{})

	padded := "  " + s + "  "
	runes := []rune(padded)

	for i := 0; i <= len(runes)-3; i++ {
		tri := string(runes[i : i+3])
		if strings.TrimSpace(tri) != "" {
			tris[tri] = struct{}{}
		}
	}

	return tris
}

// trigramCoverage returns |A ∩ B| / |A|.
func trigramCoverage(query, item map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}

	intersection := 0
	for tri := range query {
		if _, ok := item[tri]; ok {
			intersection++
		}
	}

	return float64(intersection) / float64(len(query))
}

// RemoveDiacritics decomposes s and drops combining marks.
func RemoveDiacritics(s string) string {
	var result strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return norm.NFC.String(result.String())
}
