package library

import (
	"sort"
	"strings"
)

// PlaylistNode is a playlist with its nested children.
type PlaylistNode struct {
	Playlist Playlist
	Children []*PlaylistNode
}

// PlaylistTree arranges playlists into a folder hierarchy.
// Roots are playlists with no parent or whose parent is not in the library.
// Siblings are sorted by name.
func (l *Library) PlaylistTree() []*PlaylistNode {
	known := make(map[uint64]bool, len(l.Playlists))
	for _, p := range l.Playlists {
		if p.ID != 0 {
			known[p.ID] = true
		}
	}

	byParent := make(map[uint64][]Playlist)
	var roots []Playlist
	for _, p := range l.Playlists {
		if p.ParentID == 0 || !known[p.ParentID] || p.ParentID == p.ID {
			roots = append(roots, p)
			continue
		}
		byParent[p.ParentID] = append(byParent[p.ParentID], p)
	}

	visited := make(map[uint64]bool)
	var build func(ps []Playlist) []*PlaylistNode
	build = func(ps []Playlist) []*PlaylistNode {
		sortByName(ps)
		nodes := make([]*PlaylistNode, 0, len(ps))
		for _, p := range ps {
			n := &PlaylistNode{Playlist: p}
			// id 0 may denote several playlists, none of which can be a parent
			if p.ID != 0 && !visited[p.ID] {
				visited[p.ID] = true
				n.Children = build(byParent[p.ID])
			}
			nodes = append(nodes, n)
		}
		return nodes
	}
	return build(roots)
}

func sortByName(ps []Playlist) {
	sort.SliceStable(ps, func(i, j int) bool {
		return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name)
	})
}
