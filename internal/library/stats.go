package library

import (
	"sort"
	"strings"
)

// PlayStats summarizes play counts across a library.
type PlayStats struct {
	TracksPlayed int
	TotalPlays   int
	Average      float64
	MostPlayed   []Track
}

// Plays computes play statistics and the top most played tracks.
func (l *Library) Plays(top int) PlayStats {
	var st PlayStats
	var played []Track
	for _, t := range l.Tracks {
		st.TotalPlays += t.PlayCount
		if t.PlayCount > 0 {
			st.TracksPlayed++
			played = append(played, t)
		}
	}
	if st.TracksPlayed > 0 {
		st.Average = float64(st.TotalPlays) / float64(st.TracksPlayed)
	}

	sort.SliceStable(played, func(i, j int) bool {
		return played[i].PlayCount > played[j].PlayCount
	})
	if top >= 0 && len(played) > top {
		played = played[:top]
	}
	st.MostPlayed = played
	return st
}

// RatingLevels groups rated tracks by star level.
type RatingLevels struct {
	ByStars [6][]Track // index 1..5; ratings that are not a multiple of 20 are counted in Rated only
	Rated   int
}

// Count returns how many tracks have exactly the given number of stars.
func (r RatingLevels) Count(stars int) int {
	if stars < 1 || stars > 5 {
		return 0
	}
	return len(r.ByStars[stars])
}

// Ratings groups tracks by star rating (rating / 20).
func (l *Library) Ratings() RatingLevels {
	var r RatingLevels
	for _, t := range l.Tracks {
		if t.Rating <= 0 {
			continue
		}
		r.Rated++
		if t.Rating%20 == 0 {
			stars := t.Rating / 20
			r.ByStars[stars] = append(r.ByStars[stars], t)
		}
	}
	return r
}

// Likes groups tracks by like status.
func (l *Library) Likes() map[LikeStatus][]Track {
	out := make(map[LikeStatus][]Track)
	for _, t := range l.Tracks {
		out[t.LikeStatus] = append(out[t.LikeStatus], t)
	}
	return out
}

// SearchTitle returns tracks whose title contains q, case-insensitively.
func (l *Library) SearchTitle(q string) []Track {
	q = strings.ToLower(q)
	var out []Track
	for _, t := range l.Tracks {
		if t.Title == "" {
			continue
		}
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// SortByArtistAlbumTitle orders tracks for display.
func SortByArtistAlbumTitle(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		return a.Title < b.Title
	})
}

// PlaylistCounts tallies playlists by type.
type PlaylistCounts struct {
	Smart  int
	Manual int
	Folder int
	System int
	Root   int
}

// CountPlaylists tallies playlists by type and root placement.
func (l *Library) CountPlaylists() PlaylistCounts {
	var c PlaylistCounts
	for _, p := range l.Playlists {
		switch {
		case p.Type == Smart || p.HasSmartCriteria:
			c.Smart++
		case p.Type == Manual:
			c.Manual++
		case p.Type == Folder:
			c.Folder++
		case p.Type == System:
			c.System++
		}
		if p.ParentID == 0 {
			c.Root++
		}
	}
	return c
}
