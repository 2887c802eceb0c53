package loader

import (
	"cmp"
	"slices"
	"strings"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// FileTree builds the subtree of a collection's files. Top-level entries
// hang off the subtree root; every node is Loaded since the whole listing
// arrives at once. Siblings are ordered directories first, then by name.
// Entries whose directory is missing from files are placed at the top.
func FileTree(files []model.CollectionFile) picker.Tree {
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, b model.CollectionFile) int {
		if d := cmp.Compare(depth(a), depth(b)); d != 0 {
			return d
		}
		if a.Type != b.Type {
			if a.Type == model.FileTypeDirectory {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	present := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		present[f.ResourceID()] = true
	}

	nodes := make([]picker.Node, 0, len(sorted))
	for _, f := range sorted {
		parent := f.ParentID()
		if parent == f.CollectionUUID || !present[parent] {
			parent = tree.RootID
		}
		nodes = append(nodes, picker.Node{ID: f.ResourceID(), ParentID: parent, Value: f, Status: tree.Loaded})
	}
	return picker.NewTree().SetNodes(nodes...)
}

func depth(f model.CollectionFile) int {
	return strings.Count(f.Path, "/")
}
