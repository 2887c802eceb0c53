package loader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

func TestInitProjectsPickerCreatesSections(t *testing.T) {
	l, _, _ := setup(t)
	params := LoadParams{IncludeCollections: true}
	require.NoError(t, l.InitProjectsPicker(context.Background(), "move", "", params))

	st := l.Store().State()
	secs := picker.SectionIDs("move")
	roots := map[string]string{
		secs.Home:            userUUID,
		secs.Shared:          picker.SharedRootID,
		secs.Favorites:       picker.FavoritesRootID,
		secs.PublicFavorites: picker.PublicFavoritesRootID,
		secs.Search:          picker.SearchRootID,
	}
	for pickerID, rootID := range roots {
		n, ok := st.Trees.Tree(pickerID).Node(rootID)
		require.True(t, ok, pickerID)
		require.Equal(t, tree.Initial, n.Status)
		require.Equal(t, model.KindSection, n.Value.Kind())
		got, _ := st.Search.LoadParams(pickerID)
		require.Equal(t, params, got)
	}
	home, _ := st.Trees.Tree(secs.Home).Node(userUUID)
	require.Equal(t, picker.HomeRootName, home.Value.DisplayName())
}

func TestLoadPathToHome(t *testing.T) {
	l, src, _ := setup(t)
	top := proj("zzzzz-j7d0g-top000000000001", "top", userUUID)
	mid := proj("zzzzz-j7d0g-mid000000000001", "mid", top.UUID)
	col := model.Collection{UUID: "zzzzz-4zz18-target000000001", Name: "target", OwnerUUID: mid.UUID}
	src.ancestors[col.UUID] = []model.Resource{
		model.User{UUID: userUUID},
		top, mid, col,
	}
	src.lists[userUUID] = model.Page{Items: []model.Resource{top, proj("zzzzz-j7d0g-sibling000000001", "sib", userUUID)}, ItemsAvailable: 2}
	src.lists[top.UUID] = model.Page{Items: []model.Resource{mid}, ItemsAvailable: 1}
	src.lists[mid.UUID] = model.Page{Items: []model.Resource{col}, ItemsAvailable: 1}

	params := LoadParams{IncludeCollections: true, IncludeFiles: true}
	require.NoError(t, l.InitProjectsPicker(context.Background(), "move", col.UUID, params))

	secs := picker.SectionIDs("move")
	tr := l.Store().State().Trees.Tree(secs.Home)

	var path []string
	for _, a := range tr.Ancestors(col.UUID) {
		path = append(path, a.ID)
		require.True(t, a.Expanded, a.ID)
		require.Equal(t, tree.Loaded, a.Status, a.ID)
	}
	require.Equal(t, []string{userUUID, top.UUID, mid.UUID}, path)

	target, _ := tr.Node(col.UUID)
	require.True(t, target.Active)
	require.Equal(t, tree.Initial, target.Status)
	require.True(t, tr.Has("zzzzz-j7d0g-sibling000000001"), "refresh lists the rest of the section")

	n, pickerID, ok := picker.ActiveNode(l.Store().State(), "move")
	require.True(t, ok)
	require.Equal(t, secs.Home, pickerID)
	require.Equal(t, col.UUID, n.ID)
	require.Equal(t, 1, l.Store().State().Search.Refreshes(secs.Home))
}

func TestLoadPathToShared(t *testing.T) {
	l, src, _ := setup(t)
	top := proj("zzzzz-j7d0g-shared00000001", "theirs", otherUUID)
	src.ancestors[top.UUID] = []model.Resource{top}
	src.lists[""] = model.Page{Items: []model.Resource{top}, ItemsAvailable: 1}

	require.NoError(t, l.InitProjectsPicker(context.Background(), "move", top.UUID, LoadParams{}))
	shared := picker.SectionIDs("move").Shared
	n, ok := l.Store().State().Trees.Tree(shared).Node(top.UUID)
	require.True(t, ok)
	require.True(t, n.Active)
	require.Equal(t, picker.SharedRootID, n.ParentID)
}

func TestLoadPathToInvalidTarget(t *testing.T) {
	l, src, rec := setup(t)
	top := proj("zzzzz-j7d0g-top000000000001", "top", userUUID)
	wf := model.Workflow{UUID: "zzzzz-7fd4e-000000000000001", OwnerUUID: top.UUID}
	src.ancestors[wf.UUID] = []model.Resource{model.User{UUID: userUUID}, top, wf}
	src.ancestors[otherUUID] = []model.Resource{model.User{UUID: otherUUID}}
	require.NoError(t, l.InitProjectsPicker(context.Background(), "move", "", LoadParams{}))

	err := l.LoadPathTo(context.Background(), "move", wf.UUID)
	require.ErrorIs(t, err, ErrInvalidTarget, "workflow inside a project")
	_, _, ok := picker.ActiveNode(l.Store().State(), "move")
	require.False(t, ok)
	require.False(t, l.Store().State().Trees.Tree(picker.SectionIDs("move").Home).Has(top.UUID), "nothing is grafted")

	err = l.LoadPathTo(context.Background(), "move", otherUUID)
	require.ErrorIs(t, err, ErrInvalidTarget)
	require.Len(t, rec.all(), 2)

	err = l.LoadPathTo(context.Background(), "move", "zzzzz-j7d0g-missing00000001")
	var ferr FetchError
	require.ErrorAs(t, err, &ferr)
	require.Equal(t, "ancestors", ferr.Op)
}

func TestRefreshKeepsSurvivingState(t *testing.T) {
	l, src, _ := setup(t)
	a := proj("zzzzz-j7d0g-a00000000000001", "a", userUUID)
	b := proj("zzzzz-j7d0g-b00000000000001", "b", userUUID)
	child := proj("zzzzz-j7d0g-c00000000000001", "c", a.UUID)
	src.lists[userUUID] = model.Page{Items: []model.Resource{a, b}, ItemsAvailable: 2}
	src.lists[a.UUID] = model.Page{Items: []model.Resource{child}, ItemsAvailable: 1}
	home := initHome(t, l, LoadParams{})
	ctx := context.Background()

	require.NoError(t, l.Expand(ctx, home, userUUID, LoadParams{}))
	require.NoError(t, l.Expand(ctx, home, a.UUID, LoadParams{}))
	l.Store().Dispatch(picker.SelectNodes{PickerID: home, IDs: []string{child.UUID}})

	renamed := a
	renamed.Name = "a2"
	src.lists[userUUID] = model.Page{Items: []model.Resource{renamed}, ItemsAvailable: 1}
	require.NoError(t, l.Refresh(ctx, home, LoadParams{}))

	tr := l.Store().State().Trees.Tree(home)
	require.False(t, tr.Has(b.UUID), "gone from listing")
	an, _ := tr.Node(a.UUID)
	require.Equal(t, "a2", an.Value.DisplayName())
	require.True(t, an.Expanded)
	c, _ := tr.Node(child.UUID)
	require.True(t, c.Selected, "selection survives a refresh")
	require.Equal(t, 2, src.count("list:"+a.UUID))
}
