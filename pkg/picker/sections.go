package picker

import (
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Root node ids of the section trees. The home section's root is the
// session user's uuid instead.
const (
	SharedRootID          = "Shared with me"
	FavoritesRootID       = "Favorites"
	PublicFavoritesRootID = "Public Favorites"
	SearchRootID          = "Search all Projects"
	HomeRootName          = "Home Projects"
)

// Sections names the picker ids of a projects picker. A projects picker with
// base id "move" is five independent pickers, one per section.
type Sections struct {
	Home            string
	Shared          string
	Favorites       string
	PublicFavorites string
	Search          string
}

// SectionIDs derives the section picker ids for base.
func SectionIDs(base string) Sections {
	return Sections{
		Home:            base + "_home",
		Shared:          base + "_shared",
		Favorites:       base + "_favorites",
		PublicFavorites: base + "_publicFavorites",
		Search:          base + "_search",
	}
}

// All returns the section ids in display order.
func (s Sections) All() []string {
	return []string{s.Home, s.Shared, s.Favorites, s.PublicFavorites, s.Search}
}

// Others returns every section id except pickerID.
func (s Sections) Others(pickerID string) []string {
	var out []string
	for _, id := range s.All() {
		if id != pickerID {
			out = append(out, id)
		}
	}
	return out
}

// AllNodes walks every section of base depth-first and returns the nodes
// accepted by filter. A resource accepted in several sections is reported
// once, as first accepted. A nil filter accepts everything.
func AllNodes(s State, base string, filter func(Node) bool) []Node {
	seen := make(map[string]bool)
	var out []Node
	for _, pickerID := range SectionIDs(base).All() {
		for n := range s.Trees.Tree(pickerID).Descendants(tree.RootID) {
			if seen[n.ID] || (filter != nil && !filter(n)) {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
		}
	}
	return out
}

// SelectedNodes returns the selected nodes across the sections of base.
func SelectedNodes(s State, base string) []Node {
	return AllNodes(s, base, func(n Node) bool {
		return n.Selected && (n.Value == nil || !model.IsTruncated(n.Value))
	})
}

// SelectedIDs is SelectedNodes reduced to ids.
func SelectedIDs(s State, base string) []string {
	nodes := SelectedNodes(s, base)
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// ActiveNode returns the active node across the sections of base.
func ActiveNode(s State, base string) (Node, string, bool) {
	for _, pickerID := range SectionIDs(base).All() {
		if n, ok := s.Trees.Tree(pickerID).ActiveNode(); ok {
			return n, pickerID, true
		}
	}
	return Node{}, "", false
}
