// Package picker holds the state of every tree picker in the session.
//
// Each picker (identified by a picker id such as "move_home") owns one
// independent tree. All state changes are expressed as Actions applied by
// Reduce, which returns a new State and never mutates the old one. Entries
// that an action does not touch keep their identity, so observers can tell
// what changed with Tree.Same.
package picker

import (
	"maps"
	"slices"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Tree is the tree type every picker holds.
type Tree = tree.Tree[model.Resource]

// Node is a node of a picker tree.
type Node = tree.Node[model.Resource]

// NewTree returns an empty picker tree.
func NewTree() Tree {
	return tree.New[model.Resource]()
}

// Store maps picker ids to their trees. The zero value is an empty store.
type Store struct {
	trees map[string]Tree
}

// Tree returns the tree of pickerID, or an empty tree when there is none.
func (s Store) Tree(pickerID string) Tree {
	if t, ok := s.trees[pickerID]; ok {
		return t
	}
	return NewTree()
}

// Has reports whether pickerID has been initialized.
func (s Store) Has(pickerID string) bool {
	_, ok := s.trees[pickerID]
	return ok
}

// IDs returns the initialized picker ids in sorted order.
func (s Store) IDs() []string {
	return slices.Sorted(maps.Keys(s.trees))
}

// Update applies fn to the tree of pickerID, creating the entry if needed.
// Every other entry keeps its identity. When fn returns its argument
// unchanged for an existing entry, the store itself is returned.
func (s Store) Update(pickerID string, fn func(Tree) Tree) Store {
	cur, existed := s.trees[pickerID]
	if !existed {
		cur = NewTree()
	}
	next := fn(cur)
	if existed && next.Same(cur) {
		return s
	}
	trees := make(map[string]Tree, len(s.trees)+1)
	maps.Copy(trees, s.trees)
	trees[pickerID] = next
	return Store{trees: trees}
}

// UpdateExisting is Update for entries that must already exist. Work
// addressed to a picker that was never initialized, or has been reset, is
// dropped so late results cannot resurrect it.
func (s Store) UpdateExisting(pickerID string, fn func(Tree) Tree) Store {
	if !s.Has(pickerID) {
		return s
	}
	return s.Update(pickerID, fn)
}

// Reset removes the entry for pickerID. The next read yields an empty tree.
func (s Store) Reset(pickerID string) Store {
	if !s.Has(pickerID) {
		return s
	}
	trees := maps.Clone(s.trees)
	delete(trees, pickerID)
	return Store{trees: trees}
}
