package picker

import (
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// State is everything the picker layer knows: the trees and the search
// configuration of every picker.
type State struct {
	Trees  Store
	Search SearchState
}

// Reduce applies a to s and returns the resulting state. s is not modified.
// Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case InitPicker:
		s.Trees = s.Trees.Update(a.PickerID, func(t Tree) Tree {
			return t.CompleteLoad(tree.RootID, a.Roots)
		})
	case LoadNode:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			next, _, _ := t.BeginLoad(a.ID)
			return next
		})
	case LoadNodeSuccess:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.CompleteLoad(a.ID, a.Nodes)
		})
	case LoadNodeFailure:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.FailLoad(a.ID, a.Prior)
		})
	case AppendSubtree:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return graft(t, a.ID, a.Subtree, a.Replace)
		})
	case ToggleCollapse:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.ToggleCollapse(a.ID)
		})
	case ExpandNode:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.Expand(a.ID)
		})
	case ExpandNodes:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.Expand(a.IDs...)
		})
	case ActivateNode:
		for _, related := range a.RelatedPickers {
			if related == a.PickerID {
				continue
			}
			s.Trees = s.Trees.UpdateExisting(related, Tree.DeactivateAll)
		}
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.Activate(a.ID)
		})
	case DeactivateNode:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, Tree.DeactivateAll)
	case ToggleSelection:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			if !selectable(t, a.ID) {
				return t
			}
			return t.ToggleSelection(a.ID)
		})
	case SelectNodes:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.Select(selectableIDs(t, a.IDs)...)
		})
	case DeselectNodes:
		s.Trees = s.Trees.UpdateExisting(a.PickerID, func(t Tree) Tree {
			return t.Deselect(a.IDs...)
		})
	case ResetPicker:
		s.Trees = s.Trees.Reset(a.PickerID)
	case SetProjectSearch:
		s.Search = s.Search.setProjectSearch(a.PickerID, a.Value)
	case SetCollectionFilter:
		s.Search = s.Search.setCollectionFilter(a.PickerID, a.Value)
	case SetLoadParams:
		s.Search = s.Search.setLoadParams(a.PickerID, a.Params)
	case RefreshPicker:
		s.Search = s.Search.refresh(a.PickerID)
	}
	return s
}

// selectable rejects the truncation marker; it is a message, not a resource.
func selectable(t Tree, id string) bool {
	n, ok := t.Node(id)
	if !ok {
		return false
	}
	return n.Value == nil || !model.IsTruncated(n.Value)
}

func selectableIDs(t Tree, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if selectable(t, id) {
			out = append(out, id)
		}
	}
	return out
}

// graft places sub under id and marks id loaded. Nodes present in both
// keep their UI flags. With replace, nodes of t that sub does not list are
// pruned first.
func graft(t Tree, id string, sub Tree, replace bool) Tree {
	if !t.Has(id) {
		return t
	}
	if replace {
		t = prune(t, id, sub, tree.RootID)
	}
	sub = sub.Map(func(n Node) Node {
		if prev, ok := t.Node(n.ID); ok && n.ID != tree.RootID {
			n.Expanded = prev.Expanded
			n.Selected = prev.Selected
			n.Active = prev.Active
		}
		return n
	})
	return t.AppendSubtree(id, sub).SetStatus(id, tree.Loaded)
}

func prune(t Tree, at string, sub Tree, subAt string) Tree {
	want := make(map[string]bool)
	for _, c := range sub.Children(subAt) {
		want[c.ID] = true
	}
	for _, c := range t.Children(at) {
		if !want[c.ID] {
			t = t.Remove(c.ID)
			continue
		}
		t = prune(t, c.ID, sub, c.ID)
	}
	return t
}
