package tree

import (
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func ids[V any](seq iter.Seq[Node[V]]) []string {
	var out []string
	for n := range seq {
		out = append(out, n.ID)
	}
	return out
}

// abc builds A(parent=root), B(parent=A), C(parent=A).
func abc() Tree[string] {
	return New[string]().
		SetNode(Node[string]{ID: "A", ParentID: RootID, Value: "a"}).
		SetNode(Node[string]{ID: "B", ParentID: "A", Value: "b"}).
		SetNode(Node[string]{ID: "C", ParentID: "A", Value: "c"})
}

func TestNewTreeHasOnlyRoot(t *testing.T) {
	tr := New[int]()
	_, ok := tr.Node(RootID)
	require.True(t, ok, "root sentinel must exist")
	_, ok = tr.Node("A")
	require.False(t, ok)
	require.Equal(t, 0, tr.Len())

	var zero Tree[int]
	_, ok = zero.Node(RootID)
	require.True(t, ok, "zero tree behaves like New")
	require.False(t, zero.Has("x"))
}

func TestDescendantsPreOrderAndRestartable(t *testing.T) {
	tr := abc()
	seq := tr.Descendants(RootID)
	require.Equal(t, []string{"A", "B", "C"}, ids(seq))
	require.Equal(t, []string{"A", "B", "C"}, ids(seq), "second pass must yield the same nodes")
	require.Equal(t, []string{"B", "C"}, ids(tr.Descendants("A")))
	require.Empty(t, ids(tr.Descendants("missing")))
}

func TestDescendantsToDepth(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "D", ParentID: "B"})
	require.Equal(t, []string{"A"}, ids(tr.DescendantsToDepth(RootID, 1)))
	require.Equal(t, []string{"A", "B", "C"}, ids(tr.DescendantsToDepth(RootID, 2)))
	require.Equal(t, []string{"A", "B", "D", "C"}, ids(tr.DescendantsToDepth(RootID, -1)))
}

func TestDescendantsEarlyBreak(t *testing.T) {
	var got []string
	for n := range abc().All() {
		got = append(got, n.ID)
		if n.ID == "B" {
			break
		}
	}
	require.Equal(t, []string{"A", "B"}, got)
}

func TestSetNodeIsImmutable(t *testing.T) {
	before := abc()
	after := before.SetNode(Node[string]{ID: "D", ParentID: "C"})
	require.False(t, before.Has("D"))
	require.True(t, after.Has("D"))
	c, _ := before.Node("C")
	require.Empty(t, c.ChildIDs)
	require.False(t, before.Same(after))
}

func TestSetNodePreservesChildrenWhenOmitted(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "A", ParentID: RootID, Value: "a2"})
	a, _ := tr.Node("A")
	require.Equal(t, "a2", a.Value)
	require.Equal(t, []string{"B", "C"}, a.ChildIDs)
}

func TestSetNodeExplicitChildrenDeduped(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "A", ChildIDs: []string{"C", "B", "C", "A"}})
	a, _ := tr.Node("A")
	require.Equal(t, []string{"C", "B"}, a.ChildIDs)
}

func TestSetNodeExplicitChildrenAdopted(t *testing.T) {
	tr := New[string]().
		SetNode(Node[string]{ID: "A", ParentID: RootID}).
		SetNode(Node[string]{ID: "B", ParentID: RootID}).
		SetNode(Node[string]{ID: "A", ParentID: RootID, ChildIDs: []string{"B", "ghost"}})

	root, _ := tr.Node(RootID)
	a, _ := tr.Node("A")
	b, _ := tr.Node("B")
	require.Equal(t, []string{"A"}, root.ChildIDs, "B leaves its old parent")
	require.Equal(t, []string{"B"}, a.ChildIDs, "unknown ids are dropped")
	require.Equal(t, "A", b.ParentID)
	require.False(t, tr.Has("ghost"))
}

func TestSetNodeExplicitChildrenDropsLeftOut(t *testing.T) {
	tr := abc().
		SetNode(Node[string]{ID: "D", ParentID: "C"}).
		SetNode(Node[string]{ID: "A", ParentID: RootID, ChildIDs: []string{"B"}})

	a, _ := tr.Node("A")
	require.Equal(t, []string{"B"}, a.ChildIDs)
	require.False(t, tr.Has("C"))
	require.False(t, tr.Has("D"), "left-out children go with their subtree")
}

func TestSetNodeExplicitChildrenSkipsAncestors(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "B", ParentID: "A", ChildIDs: []string{"A", "C"}})

	root, _ := tr.Node(RootID)
	a, _ := tr.Node("A")
	b, _ := tr.Node("B")
	require.Equal(t, []string{"A"}, root.ChildIDs)
	require.Equal(t, []string{"B"}, a.ChildIDs)
	require.Equal(t, []string{"C"}, b.ChildIDs)
	require.Equal(t, []string{"A", "B", "C"}, ids(tr.All()))
}

func TestSetNodeReparent(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "D", ParentID: RootID})
	tr = tr.SetNode(Node[string]{ID: "B", ParentID: "D"})

	a, _ := tr.Node("A")
	d, _ := tr.Node("D")
	require.Equal(t, []string{"C"}, a.ChildIDs)
	require.Equal(t, []string{"B"}, d.ChildIDs)
	require.Equal(t, []string{"A", "C", "D", "B"}, ids(tr.All()))
}

func TestSetNodesMatchesSetNode(t *testing.T) {
	ns := []Node[string]{
		{ID: "A", ParentID: RootID},
		{ID: "B", ParentID: "A"},
		{ID: "B", ParentID: RootID},
	}
	one := New[string]()
	for _, n := range ns {
		one = one.SetNode(n)
	}
	bulk := New[string]().SetNodes(ns...)
	require.Equal(t, ids(one.All()), ids(bulk.All()))
	require.True(t, bulk.SetNodes().Same(bulk))
}

func TestSetNodeAcceptsOrphans(t *testing.T) {
	tr := New[string]().SetNode(Node[string]{ID: "X", ParentID: "ghost"})
	require.True(t, tr.Has("X"))
	require.Empty(t, ids(tr.All()), "orphans are not reachable from the root")
}

func TestChildrenAndAncestors(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "D", ParentID: "C"})
	var children []string
	for _, c := range tr.Children("A") {
		children = append(children, c.ID)
	}
	require.Equal(t, []string{"B", "C"}, children)

	var chain []string
	for _, a := range tr.Ancestors("D") {
		chain = append(chain, a.ID)
	}
	require.Equal(t, []string{"A", "C"}, chain)
	require.Empty(t, tr.Ancestors("A"))
	require.Nil(t, tr.Children("missing"))
}

func TestMapKeepsStructure(t *testing.T) {
	tr := abc().Map(func(n Node[string]) Node[string] {
		n.Status = Loaded
		n.ParentID = "bogus"
		n.ChildIDs = nil
		return n
	})
	require.Equal(t, []string{"A", "B", "C"}, ids(tr.All()))
	for n := range tr.All() {
		require.Equal(t, Loaded, n.Status)
	}
}

func TestMapValues(t *testing.T) {
	tr := abc().Expand("A")
	lengths := MapValues(tr, func(s string) int { return len(s) })
	a, _ := lengths.Node("A")
	require.Equal(t, 1, a.Value)
	require.True(t, a.Expanded)
	require.Equal(t, []string{"B", "C"}, a.ChildIDs)
}

func TestRemove(t *testing.T) {
	tr := abc().SetNode(Node[string]{ID: "D", ParentID: "B"})
	out := tr.Remove("B")
	require.False(t, out.Has("B"))
	require.False(t, out.Has("D"))
	a, _ := out.Node("A")
	require.Equal(t, []string{"C"}, a.ChildIDs)
	require.True(t, tr.Has("D"), "original snapshot untouched")

	require.Equal(t, 0, tr.Remove(RootID).Len())
	require.True(t, tr.Remove("missing").Same(tr))
}

func TestAppendSubtree(t *testing.T) {
	sub := New[string]().
		SetNode(Node[string]{ID: "dir", ParentID: RootID, Status: Loaded}).
		SetNode(Node[string]{ID: "dir/file", ParentID: "dir", Status: Loaded})

	tr := abc().AppendSubtree("C", sub)
	require.Equal(t, []string{"A", "B", "C", "dir", "dir/file"}, ids(tr.All()))
	dir, _ := tr.Node("dir")
	require.Equal(t, "C", dir.ParentID)
	require.Equal(t, Loaded, dir.Status)
}

func TestAppendSubtreeKeepsExistingChildren(t *testing.T) {
	sub := New[string]().SetNode(Node[string]{ID: "A", ParentID: RootID, Value: "new", Status: Loaded})
	tr := abc().AppendSubtree(RootID, sub)
	a, _ := tr.Node("A")
	require.Equal(t, "new", a.Value)
	require.Equal(t, []string{"B", "C"}, a.ChildIDs)
}

func TestNoChildListedTwice(t *testing.T) {
	tr := abc().
		SetNode(Node[string]{ID: "B", ParentID: "A"}).
		SetNode(Node[string]{ID: "B", ParentID: "C"}).
		SetNode(Node[string]{ID: "B", ParentID: "C"})

	count := 0
	for n := range tr.All() {
		if slices.Contains(n.ChildIDs, "B") {
			count++
		}
	}
	r, _ := tr.Node(RootID)
	if slices.Contains(r.ChildIDs, "B") {
		count++
	}
	require.Equal(t, 1, count)
}
