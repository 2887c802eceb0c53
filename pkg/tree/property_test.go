package tree

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// genTree inserts nodes whose parent is the root or an id already drawn, so
// every generated tree stays connected. Some inserts list explicit children,
// including ids the tree has never seen.
func genTree(t *rapid.T) Tree[int] {
	tr := New[int]()
	known := []string{RootID}
	steps := rapid.IntRange(0, 40).Draw(t, "steps")
	for i := 0; i < steps; i++ {
		reuse := len(known) > 1 && rapid.Bool().Draw(t, fmt.Sprintf("reuse%d", i))
		var id string
		if reuse {
			id = rapid.SampledFrom(known[1:]).Draw(t, fmt.Sprintf("id%d", i))
		} else {
			id = fmt.Sprintf("n%d", i)
		}
		parent := rapid.SampledFrom(known).Draw(t, fmt.Sprintf("parent%d", i))
		if parent == id || isAncestor(tr, id, parent) {
			parent = RootID
		}
		n := Node[int]{ID: id, ParentID: parent, Value: i}
		if rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("explicit%d", i)) == 0 {
			pool := append(slices.Clone(known[1:]), "ghost")
			n.ChildIDs = rapid.SliceOfN(rapid.SampledFrom(pool), 0, 4).Draw(t, fmt.Sprintf("children%d", i))
		}
		tr = tr.SetNode(n)
		if !reuse {
			known = append(known, id)
		}
		// children left out of an explicit listing are removed
		known = slices.DeleteFunc(known, func(k string) bool { return !tr.Has(k) })
	}
	return tr
}

// isAncestor reports whether a is above b (re-parenting a under b would form a cycle).
func isAncestor(tr Tree[int], a, b string) bool {
	for _, n := range tr.Ancestors(b) {
		if n.ID == a {
			return true
		}
	}
	return false
}

func TestPropertyEveryNodeHasExactlyOneParentListing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		listings := map[string]int{}
		for _, n := range tr.nodes {
			for _, c := range n.ChildIDs {
				listings[c]++
			}
			if len(slices.Compact(slices.Sorted(slices.Values(n.ChildIDs)))) != len(n.ChildIDs) {
				t.Fatalf("duplicate child ids under %q: %v", n.ID, n.ChildIDs)
			}
		}
		for id, n := range tr.nodes {
			if id == RootID {
				continue
			}
			if listings[id] != 1 {
				t.Fatalf("node %q listed %d times", id, listings[id])
			}
			parent, ok := tr.nodes[n.ParentID]
			if !ok || !slices.Contains(parent.ChildIDs, id) {
				t.Fatalf("node %q not listed by its parent %q", id, n.ParentID)
			}
		}
		for c := range listings {
			if _, ok := tr.nodes[c]; !ok {
				t.Fatalf("dangling child id %q", c)
			}
		}
	})
}

func TestPropertyDescendantsCoverTreeAndAreStable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		first := ids(tr.All())
		second := ids(tr.All())
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("descendants not restartable: %v vs %v", first, second)
		}
		if len(first) != tr.Len() {
			t.Fatalf("walk visited %d nodes, tree has %d", len(first), tr.Len())
		}
	})
}

func TestPropertyEmptyTreeLookup(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.String().Filter(func(s string) bool { return s != RootID }).Draw(t, "id")
		if _, ok := New[int]().Node(id); ok {
			t.Fatalf("empty tree returned a node for %q", id)
		}
	})
}

func TestPropertyFailedLoadLeavesChildren(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := genTree(t)
		all := append([]string{RootID}, ids(tr.All())...)
		target := rapid.SampledFrom(all).Draw(t, "target")
		before, _ := tr.Node(target)

		pending, prior, ok := tr.BeginLoad(target)
		if !ok {
			t.Fatalf("fresh node %q could not start loading", target)
		}
		after, _ := pending.FailLoad(target, prior).Node(target)
		if after.Status != before.Status {
			t.Fatalf("status %v after failure, want %v", after.Status, before.Status)
		}
		if !reflect.DeepEqual(after.ChildIDs, before.ChildIDs) {
			t.Fatalf("children changed on failure: %v -> %v", before.ChildIDs, after.ChildIDs)
		}
	})
}
