package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

const (
	alphaID = "zzzzz-j7d0g-00000000000000a"
	betaID  = "zzzzz-j7d0g-00000000000000b"
	readsID = "zzzzz-4zz18-00000000000000r"
	rnaID   = "zzzzz-j7d0g-00000000000000s"
)

func pickerSource() *stubSource {
	src := newStubSource()
	src.lists[testUser] = []model.Resource{
		model.Project{UUID: alphaID, Name: "alpha", OwnerUUID: testUser, GroupClass: model.GroupClassProject},
		model.Project{UUID: betaID, Name: "beta", OwnerUUID: testUser, GroupClass: model.GroupClassProject},
		model.Collection{UUID: readsID, Name: "reads", OwnerUUID: testUser},
	}
	src.lists[""] = []model.Resource{
		model.Project{UUID: rnaID, Name: "rna", OwnerUUID: "zzzzz-tpzed-000000000000002", GroupClass: model.GroupClassProject},
	}
	return src
}

// newTestModel builds a sized picker whose home section has been loaded.
func newTestModel(t *testing.T, opts Options) (Model, inbox, *stubSource) {
	t.Helper()
	src := pickerSource()
	w, in := newTestWorker(t, src)
	require.NoError(t, w.Loader().InitProjectsPicker(context.Background(), "b", "", loader.LoadParams{IncludeCollections: true}))

	opts.Base = "b"
	theme := DefaultTheme(lipgloss.NewRenderer(nil))
	opts.Theme = &theme
	m := NewModel(w, opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m.Init()
	m = settle(t, m, in)
	return m, in, src
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// settle waits for the next finished operation and applies it.
func settle(t *testing.T, m Model, in inbox) Model {
	t.Helper()
	return update(t, m, waitFor[LoadDoneMsg](t, in))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelLoadsHomeOnInit(t *testing.T) {
	m, _, src := newTestModel(t, Options{})
	require.Equal(t, 1, src.count(testUser))
	require.Equal(t, 4, m.view().NodeCount(), "home root plus three children")
	require.Equal(t, testUser, m.view().SelectedID())
	require.Contains(t, m.View(), "alpha")
}

func TestModelPickSingle(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})

	m, _ = press(t, m, "enter")
	require.False(t, m.Result().Picked, "the section root is not pickable")
	require.Equal(t, 1, m.notes.Len())

	m, cmd := press(t, m, "j", "enter")
	require.True(t, isQuit(cmd))
	res := m.Result()
	require.True(t, res.Picked)
	require.Equal(t, []string{alphaID}, res.IDs())

	active, pickerID, ok := picker.ActiveNode(m.store.State(), "b")
	require.True(t, ok)
	require.Equal(t, alphaID, active.ID)
	require.Equal(t, picker.SectionIDs("b").Home, pickerID)
}

func TestModelMultiSelectRespectsKinds(t *testing.T) {
	m, _, _ := newTestModel(t, Options{Multi: true, Kinds: []model.Kind{model.KindCollection}})

	m, _ = press(t, m, "j", "space") // alpha: a project, not pickable
	require.Empty(t, picker.SelectedIDs(m.store.State(), "b"))

	m, _ = press(t, m, "G", "space")
	require.Equal(t, []string{readsID}, picker.SelectedIDs(m.store.State(), "b"))
	require.Contains(t, m.View(), "1 selected")

	m, cmd := press(t, m, "enter")
	require.True(t, isQuit(cmd))
	require.Equal(t, []string{readsID}, m.Result().IDs())
}

func TestModelCollapseAndExpand(t *testing.T) {
	m, in, src := newTestModel(t, Options{})

	m, _ = press(t, m, "left")
	require.Equal(t, 1, m.view().NodeCount(), "root collapsed")

	m, _ = press(t, m, "right")
	m = settle(t, m, in)
	require.Equal(t, 4, m.view().NodeCount())
	require.Equal(t, 1, src.count(testUser), "re-expanding a loaded node does not fetch")

	m, _ = press(t, m, "right")
	require.Equal(t, alphaID, m.view().SelectedID(), "steps into the first child")

	m, _ = press(t, m, "right")
	m = settle(t, m, in)
	require.Equal(t, 1, src.count(alphaID))
}

func TestModelSectionSwitchLoadsRoot(t *testing.T) {
	m, in, src := newTestModel(t, Options{})

	m, cmd := press(t, m, "2")
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	require.Equal(t, 1, m.current)
	m = settle(t, m, in)
	require.Equal(t, 1, src.count(""), "shared section lists across owners")
	require.Equal(t, 2, m.view().NodeCount())

	m, _ = press(t, m, "tab", "tab", "tab", "tab")
	require.Equal(t, 0, m.current, "tab wraps around")
}

func TestModelProjectSearch(t *testing.T) {
	m, in, src := newTestModel(t, Options{})

	m, _ = press(t, m, "/")
	require.True(t, m.header.Editing())
	m, _ = press(t, m, "r", "n", "a")
	m, cmd := press(t, m, "enter")
	require.False(t, m.header.Editing())
	require.NotNil(t, cmd)
	msg := cmd()
	require.Equal(t, SearchSubmittedMsg{Mode: SearchProjects, Text: "rna"}, msg)

	m = update(t, m, msg)
	require.Equal(t, len(m.sections)-1, m.current)
	m = settle(t, m, in)
	require.Equal(t, 1, src.count(""))
	require.True(t, m.view().SelectByID(rnaID))
	require.Equal(t, "rna", m.store.State().Search.ProjectSearch(picker.SectionIDs("b").Search))
}

func TestModelCollectionFilter(t *testing.T) {
	m, in, src := newTestModel(t, Options{})

	m, _ = press(t, m, "f", "r", "e")
	m, cmd := press(t, m, "enter")
	m = update(t, m, cmd())
	m = settle(t, m, in)
	require.Equal(t, "re", m.store.State().Search.CollectionFilter(picker.SectionIDs("b").Home))
	require.Equal(t, 2, src.count(testUser), "open projects reloaded")
}

func TestModelCopyIDs(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { clipboardWrite = orig })

	m, _, _ := newTestModel(t, Options{})
	m, cmd := press(t, m, "j", "y")
	require.NotNil(t, cmd)
	note, ok := cmd().(NotificationMsg)
	require.True(t, ok)
	require.Equal(t, alphaID, copied)
	require.Contains(t, note.Text, "Copied 1")

	m = update(t, m, note)
	require.Contains(t, m.View(), "Copied 1")
}

func TestModelConfirmDialog(t *testing.T) {
	m, _, _ := newTestModel(t, Options{Confirm: true})

	m, _ = press(t, m, "j", "enter")
	require.NotNil(t, m.confirm)
	require.False(t, m.Result().Picked)
	require.Contains(t, m.View(), "Pick 1 item(s)?")

	m, _ = press(t, m, "esc")
	require.Nil(t, m.confirm)
	require.False(t, m.Result().Picked)
}

func TestModelQuitWithoutPick(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})
	m, cmd := press(t, m, "q")
	require.True(t, isQuit(cmd))
	require.False(t, m.Result().Picked)
}

func TestModelDetailsPane(t *testing.T) {
	m, _, _ := newTestModel(t, Options{})
	m, _ = press(t, m, "G", "d")
	require.True(t, m.showDetails)

	n, ok := m.view().SelectedNode()
	require.True(t, ok)
	md := DetailsMarkdown(n)
	require.Contains(t, md, "# reads")
	require.Contains(t, md, readsID)
	require.Contains(t, md, "Destination")

	m, _ = press(t, m, "esc")
	require.False(t, m.showDetails)
}
