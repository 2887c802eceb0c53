package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Initial, Pending, Loaded} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got Status
		require.NoError(t, got.UnmarshalText(b))
		require.Equal(t, s, got)
	}
	var s Status
	require.Error(t, s.UnmarshalText([]byte("DONE")))
}

func TestBeginLoadDeduplicates(t *testing.T) {
	tr := abc()
	next, prior, ok := tr.BeginLoad("A")
	require.True(t, ok)
	require.Equal(t, Initial, prior)
	a, _ := next.Node("A")
	require.Equal(t, Pending, a.Status)

	again, _, ok := next.BeginLoad("A")
	require.False(t, ok, "second request while pending is a no-op")
	require.True(t, again.Same(next))

	_, _, ok = tr.BeginLoad("missing")
	require.False(t, ok)
}

func TestBeginLoadFromLoaded(t *testing.T) {
	tr := abc().SetStatus("A", Loaded)
	_, prior, ok := tr.BeginLoad("A")
	require.True(t, ok)
	require.Equal(t, Loaded, prior)
}

func TestFailLoadRevertsAndKeepsChildren(t *testing.T) {
	tr, prior, _ := abc().BeginLoad("A")
	failed := tr.FailLoad("A", prior)
	a, _ := failed.Node("A")
	require.Equal(t, Initial, a.Status)
	require.Equal(t, []string{"B", "C"}, a.ChildIDs)

	// Not pending: untouched.
	require.True(t, failed.FailLoad("A", Loaded).Same(failed))
}

func TestCompleteLoadMergesChildren(t *testing.T) {
	tr := abc().Select("B").Expand("B").SetNode(Node[string]{ID: "B1", ParentID: "B"})
	tr, _, _ = tr.BeginLoad("A")

	done := tr.CompleteLoad("A", []Node[string]{
		InitNode("B", "b2", Initial),
		InitNode("E", "e", Loaded),
	})

	a, _ := done.Node("A")
	require.Equal(t, Loaded, a.Status)
	require.Equal(t, []string{"B", "E"}, a.ChildIDs)

	b, _ := done.Node("B")
	require.Equal(t, "b2", b.Value, "value replaced")
	require.True(t, b.Selected, "flags survive a reload")
	require.True(t, b.Expanded)
	require.Equal(t, []string{"B1"}, b.ChildIDs, "grandchildren survive a reload")

	require.False(t, done.Has("C"), "children no longer listed are dropped")
	e, _ := done.Node("E")
	require.Equal(t, "A", e.ParentID)
	require.Equal(t, Loaded, e.Status)
}

func TestCompleteLoadMissingParentDropped(t *testing.T) {
	tr := abc()
	require.True(t, tr.CompleteLoad("ghost", []Node[string]{InitNode("X", "", Initial)}).Same(tr))
}

func TestCompleteLoadSkipsDuplicates(t *testing.T) {
	tr := abc().CompleteLoad("C", []Node[string]{
		InitNode("X", "1", Initial),
		InitNode("X", "2", Initial),
		InitNode("C", "self", Initial),
	})
	c, _ := tr.Node("C")
	require.Equal(t, []string{"X"}, c.ChildIDs)
	x, _ := tr.Node("X")
	require.Equal(t, "1", x.Value)
}

func TestSelectIsIdempotent(t *testing.T) {
	tr := abc().Select("B", "C")
	again := tr.Select("B")
	require.True(t, again.Same(tr))

	b, _ := tr.Node("B")
	require.True(t, b.Selected)

	out := tr.Deselect("B", "missing")
	b, _ = out.Node("B")
	require.False(t, b.Selected)
	require.True(t, out.Deselect("B").Same(out))
}

func TestToggleFlags(t *testing.T) {
	tr := abc().ToggleCollapse("A").ToggleSelection("B")
	a, _ := tr.Node("A")
	b, _ := tr.Node("B")
	require.True(t, a.Expanded)
	require.True(t, b.Selected)

	tr = tr.ToggleCollapse("A").Collapse("A")
	a, _ = tr.Node("A")
	require.False(t, a.Expanded)
}

func TestActivateIsExclusive(t *testing.T) {
	tr := abc().Activate("B").Activate("C")
	b, _ := tr.Node("B")
	c, _ := tr.Node("C")
	require.False(t, b.Active)
	require.True(t, c.Active)

	active, ok := tr.ActiveNode()
	require.True(t, ok)
	require.Equal(t, "C", active.ID)

	require.True(t, tr.Activate("missing").Same(tr))

	cleared := tr.DeactivateAll()
	_, ok = cleared.ActiveNode()
	require.False(t, ok)
	require.True(t, cleared.DeactivateAll().Same(cleared))
}

func TestTogglesIgnoreStatus(t *testing.T) {
	tr, _, _ := abc().BeginLoad("A")
	tr = tr.ToggleCollapse("A").Select("A").Activate("A")
	a, _ := tr.Node("A")
	require.Equal(t, Pending, a.Status)
	require.True(t, a.Expanded && a.Selected && a.Active)
}
