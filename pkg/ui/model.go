package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// SplitViewThreshold is the width from which details show beside the tree.
const SplitViewThreshold = 100

type focus int

const (
	focusTree focus = iota
	focusDetails
)

// Options configures the picker.
type Options struct {
	Base  string
	Title string
	// Multi picks the selection instead of a single node.
	Multi bool
	// Kinds limits what can be picked; empty means any real resource.
	Kinds []model.Kind
	// Confirm asks before returning the pick.
	Confirm bool
	// StartSection is the index of the section shown first.
	StartSection int
	Theme        *Theme
}

// Result is what the picker returns when the program ends.
type Result struct {
	Picked bool
	Nodes  []picker.Node
}

// IDs returns the picked node ids.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// Model is the Bubble Tea model of the picker.
type Model struct {
	worker *BackgroundWorker
	store  *picker.Container
	opts   Options
	theme  Theme

	sections []string
	current  int
	views    []TreeModel

	header        HeaderModel
	details       DetailsModel
	spinner       spinner.Model
	notes         Notifications
	sectionPicker *SectionPickerModel
	confirm       *ConfirmModel
	pending       Result

	showHelp    bool
	showDetails bool
	focused     focus
	lastErr     *WorkerError

	width  int
	height int
	ready  bool
	result Result
}

// NewModel creates the picker over the sections of opts.Base. The sections
// must already exist in the worker's store.
func NewModel(w *BackgroundWorker, opts Options) Model {
	theme := DefaultTheme(nil)
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	sections := picker.SectionIDs(opts.Base).All()
	views := make([]TreeModel, len(sections))
	for i := range views {
		views[i] = NewTreeModel(theme)
	}
	views[len(views)-1].SetEmptyText("Press / to search all projects.")

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Secondary)

	m := Model{
		worker:   w,
		store:    w.Loader().Store(),
		opts:     opts,
		theme:    theme,
		sections: sections,
		current:  min(max(opts.StartSection, 0), len(sections)-1),
		views:    views,
		header:   NewHeader(nil, theme),
		details:  NewDetails(),
		spinner:  sp,
		notes:    NewNotifications(20),
	}
	m.syncFromStore()
	if _, pickerID, ok := picker.ActiveNode(m.store.State(), opts.Base); ok {
		for i, id := range sections {
			if id == pickerID {
				m.current = i
			}
		}
		m.syncFromStore()
	}
	return m
}

// Result returns the outcome once the program has ended.
func (m Model) Result() Result { return m.result }

// Init loads the first section and starts the spinner.
func (m Model) Init() tea.Cmd {
	m.loadSectionRoot(m.current)
	return m.spinner.Tick
}

func (m *Model) pickerID() string { return m.sections[m.current] }

func (m *Model) view() *TreeModel { return &m.views[m.current] }

// loadSectionRoot loads the root of section i if it was never loaded.
func (m *Model) loadSectionRoot(i int) {
	roots := m.store.State().Trees.Tree(m.sections[i]).Children(tree.RootID)
	if len(roots) == 0 || roots[0].Status != tree.Initial {
		return
	}
	pickerID, rootID := m.sections[i], roots[0].ID
	if pickerID == picker.SectionIDs(m.opts.Base).Search {
		// The search section only lists after a search.
		return
	}
	m.worker.Run("load", func(ctx context.Context, l *loader.Loader) error {
		return l.Expand(ctx, pickerID, rootID, l.Params(pickerID))
	})
}

// syncFromStore pulls the latest trees into the views.
func (m *Model) syncFromStore() {
	st := m.store.State()
	entries := make([]SectionEntry, len(m.sections))
	for i, id := range m.sections {
		m.views[i].SetTree(st.Trees.Tree(id))
		entries[i] = SectionEntry{
			Title:  sectionTitles[i],
			Rows:   m.views[i].NodeCount(),
			Filter: st.Search.CollectionFilter(id),
		}
	}
	m.header.SetEntries(entries, m.current)
	m.header.SetSearch(st.Search.ProjectSearch(picker.SectionIDs(m.opts.Base).Search))
	m.details.Show(m.view().SelectedNode())
}

// layout distributes the window between header, body and footer.
func (m *Model) layout() {
	m.header.SetWidth(m.width)
	bodyH := max(m.height-m.header.Height()-1, 1)
	treeW := m.width
	if m.showDetails && m.width > SplitViewThreshold {
		treeW = m.width * 55 / 100
		m.details.SetSize(m.width-treeW-1, bodyH)
	} else {
		m.details.SetSize(m.width, bodyH)
	}
	for i := range m.views {
		m.views[i].SetSize(treeW, bodyH)
	}
	m.details.Show(m.view().SelectedNode())
}

func (m *Model) switchSection(i int) {
	if i < 0 || i >= len(m.sections) {
		return
	}
	m.current = i
	m.header.SetEntries(m.header.entries, i)
	m.details.Show(m.view().SelectedNode())
	m.loadSectionRoot(i)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		for i := range m.views {
			m.views[i].SetSpinner(m.spinner.View())
		}
		return m, cmd

	case StateChangedMsg:
		m.syncFromStore()
		return m, nil

	case LoadDoneMsg:
		m.lastErr = msg.Err
		m.syncFromStore()
		return m, nil

	case NotificationMsg:
		cmd := m.notes.Push(msg)
		return m, cmd

	case expireNotificationsMsg:
		m.notes.Expire(msg.now)
		return m, nil

	case SwitchSectionMsg:
		m.switchSection(msg.Index)
		return m, nil

	case SearchSubmittedMsg:
		m.layout()
		cmd := m.submitSearch(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.confirm != nil {
		cmd := m.updateConfirm(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) submitSearch(msg SearchSubmittedMsg) tea.Cmd {
	base := m.opts.Base
	switch msg.Mode {
	case SearchProjects:
		m.switchSection(len(m.sections) - 1)
		text := msg.Text
		m.worker.Run("search", func(ctx context.Context, l *loader.Loader) error {
			return l.Search(ctx, base, text)
		})
	case SearchCollections:
		pickerID, text := m.pickerID(), msg.Text
		m.worker.Run("filter", func(ctx context.Context, l *loader.Loader) error {
			return l.FilterCollections(ctx, pickerID, text)
		})
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.result = Result{}
		return m, tea.Quit
	}

	switch {
	case m.confirm != nil:
		if msg.String() == "esc" {
			m.confirm = nil
			return m, nil
		}
		cmd := m.updateConfirm(msg)
		return m, cmd

	case m.showHelp:
		switch msg.String() {
		case "esc", "?", "q":
			m.showHelp = false
		}
		return m, nil

	case m.sectionPicker != nil:
		switch msg.String() {
		case "j", "down":
			m.sectionPicker.MoveDown()
		case "k", "up":
			m.sectionPicker.MoveUp()
		case "enter":
			i := m.sectionPicker.Selected()
			m.sectionPicker = nil
			m.switchSection(i)
		case "esc", "s", "q":
			m.sectionPicker = nil
		}
		return m, nil

	case m.header.Editing():
		var cmd tea.Cmd
		m.header, cmd = m.header.Update(msg)
		if !m.header.Editing() {
			m.layout()
		}
		return m, cmd

	case m.focused == focusDetails:
		switch msg.String() {
		case "esc", "D", "tab":
			m.focused = focusTree
		case "d":
			m.showDetails, m.focused = false, focusTree
			m.layout()
		case "?":
			m.showHelp = true
		default:
			var cmd tea.Cmd
			m.details, cmd = m.details.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m.handleTreeKey(msg)
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view()
	switch msg.String() {
	case "q":
		m.result = Result{}
		return m, tea.Quit
	case "esc":
		if m.showDetails {
			m.showDetails = false
			m.layout()
			return m, nil
		}
		m.result = Result{}
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "j", "down":
		v.MoveDown()
	case "k", "up":
		v.MoveUp()
	case "pgdown", "ctrl+d":
		v.PageDown()
	case "pgup", "ctrl+u":
		v.PageUp()
	case "g", "home":
		v.JumpToTop()
	case "G", "end":
		v.JumpToBottom()
	case "l", "right":
		m.expandOrStepIn()
	case "h", "left":
		m.collapseOrStepOut()
	case " ":
		m.toggleSelection()
	case "enter":
		cmd := m.pick()
		return m, cmd
	case "tab":
		m.switchSection((m.current + 1) % len(m.sections))
	case "shift+tab":
		m.switchSection((m.current + len(m.sections) - 1) % len(m.sections))
	case "s":
		counts := make([]int, len(m.views))
		for i := range m.views {
			counts[i] = m.views[i].NodeCount()
		}
		sp := NewSectionPicker(m.opts.Base, m.current, counts, m.theme)
		sp.SetSize(m.width, m.height)
		m.sectionPicker = &sp
	case "/":
		search := m.store.State().Search.ProjectSearch(picker.SectionIDs(m.opts.Base).Search)
		cmd := m.header.Begin(SearchProjects, search)
		m.layout()
		return m, cmd
	case "f":
		cmd := m.header.Begin(SearchCollections, m.store.State().Search.CollectionFilter(m.pickerID()))
		m.layout()
		return m, cmd
	case "r":
		pickerID := m.pickerID()
		m.worker.Run("refresh", func(ctx context.Context, l *loader.Loader) error {
			return l.Refresh(ctx, pickerID, l.Params(pickerID))
		})
	case "R":
		base := m.opts.Base
		m.worker.Run("refresh", func(ctx context.Context, l *loader.Loader) error {
			return l.RefreshAll(ctx, base)
		})
	case "d":
		m.showDetails = !m.showDetails
		m.layout()
	case "D":
		if m.showDetails {
			m.focused = focusDetails
		}
	case "y":
		cmd := m.copyIDs()
		return m, cmd
	default:
		var cmd tea.Cmd
		m.header, cmd = m.header.Update(msg)
		return m, cmd
	}
	m.details.Show(v.SelectedNode())
	return m, nil
}

// expandOrStepIn loads or expands the node under the cursor, or steps into
// its first child when it is already open.
func (m *Model) expandOrStepIn() {
	n, ok := m.view().SelectedNode()
	if !ok || n.Status == tree.Pending {
		return
	}
	if n.Expanded && len(n.ChildIDs) > 0 {
		m.view().MoveToFirstChild()
		return
	}
	if n.Status == tree.Loaded && len(n.ChildIDs) == 0 {
		return
	}
	pickerID, id := m.pickerID(), n.ID
	m.worker.Run("expand", func(ctx context.Context, l *loader.Loader) error {
		return l.Expand(ctx, pickerID, id, l.Params(pickerID))
	})
}

// collapseOrStepOut collapses an open node, otherwise moves to the parent.
func (m *Model) collapseOrStepOut() {
	n, ok := m.view().SelectedNode()
	if !ok {
		return
	}
	if n.Expanded && len(n.ChildIDs) > 0 {
		m.store.Dispatch(picker.ToggleCollapse{PickerID: m.pickerID(), ID: n.ID})
		m.syncFromStore()
		return
	}
	m.view().JumpToParent()
}

// pickable reports whether n may be part of the result.
func (m *Model) pickable(n picker.Node) bool {
	if n.Value == nil || n.Value.Kind().IsSynthetic() {
		return false
	}
	return loader.Query{Kinds: m.opts.Kinds}.Allows(n.Value.Kind())
}

func (m *Model) toggleSelection() {
	n, ok := m.view().SelectedNode()
	if !ok || !m.pickable(n) {
		return
	}
	if m.opts.Multi {
		m.store.Dispatch(picker.ToggleSelection{PickerID: m.pickerID(), ID: n.ID})
	} else {
		m.store.Dispatch(picker.ActivateNode{PickerID: m.pickerID(), ID: n.ID, RelatedPickers: m.sections})
	}
	m.syncFromStore()
}

// pick finishes with the node under the cursor, or with the selection in
// multi mode.
func (m *Model) pick() tea.Cmd {
	n, ok := m.view().SelectedNode()
	var res Result
	if m.opts.Multi {
		nodes := picker.SelectedNodes(m.store.State(), m.opts.Base)
		if len(nodes) == 0 && ok && m.pickable(n) {
			nodes = []picker.Node{n}
		}
		res = Result{Picked: len(nodes) > 0, Nodes: nodes}
	} else if ok && m.pickable(n) {
		m.store.Dispatch(picker.ActivateNode{PickerID: m.pickerID(), ID: n.ID, RelatedPickers: m.sections})
		active, _, _ := picker.ActiveNode(m.store.State(), m.opts.Base)
		res = Result{Picked: true, Nodes: []picker.Node{active}}
	}
	if !res.Picked {
		return m.notes.Push(NotificationMsg{Text: "Nothing to pick here", Severity: loader.SeverityWarning})
	}
	if !m.opts.Confirm {
		m.result = res
		return tea.Quit
	}
	names := make([]string, len(res.Nodes))
	for i, rn := range res.Nodes {
		names[i] = rn.Value.DisplayName()
	}
	m.pending = res
	m.confirm = NewConfirm(fmt.Sprintf("Pick %d item(s)?", len(names)), strings.Join(names, ", "))
	return m.confirm.Init()
}

func (m *Model) updateConfirm(msg tea.Msg) tea.Cmd {
	cmd := m.confirm.Update(msg)
	done, ok := m.confirm.Done()
	if !done {
		return cmd
	}
	m.confirm = nil
	if !ok {
		return nil
	}
	m.result = m.pending
	return tea.Quit
}

// copyIDs copies the selected uuids, or the one under the cursor.
func (m *Model) copyIDs() tea.Cmd {
	ids := picker.SelectedIDs(m.store.State(), m.opts.Base)
	if len(ids) == 0 {
		if n, ok := m.view().SelectedNode(); ok && m.pickable(n) {
			ids = []string{n.ID}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return func() tea.Msg {
		if err := clipboardWrite(strings.Join(ids, "\n")); err != nil {
			return NotificationMsg{Text: fmt.Sprintf("Clipboard error: %v", err), Severity: loader.SeverityError}
		}
		return NotificationMsg{Text: fmt.Sprintf("Copied %d uuid(s)", len(ids)), Severity: loader.SeverityInfo}
	}
}

// View renders the picker.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.sectionPicker != nil {
		return m.sectionPicker.View()
	}
	if m.showHelp {
		ctx := ContextTree
		switch {
		case m.header.Editing():
			ctx = ContextSearch
		case m.focused == focusDetails:
			ctx = ContextDetails
		}
		return RenderContextHelp(ctx, m.theme, m.width, m.height)
	}

	bodyH := max(m.height-m.header.Height()-1, 1)
	var body string
	switch {
	case m.confirm != nil:
		body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, m.confirm.View())
	case m.showDetails && m.width > SplitViewThreshold:
		sep := m.theme.Renderer.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(m.theme.Border).
			Height(bodyH)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.theme.Renderer.NewStyle().Width(m.view().width).Height(bodyH).Render(m.view().View()),
			sep.Render(m.details.View()))
	case m.showDetails:
		body = m.details.View()
	default:
		body = m.theme.Renderer.NewStyle().Height(bodyH).Render(m.view().View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.renderFooter())
}

// renderFooter renders the status line: notifications win over hints.
func (m *Model) renderFooter() string {
	t := m.theme
	var left string
	if m.notes.Len() > 0 {
		left = m.notes.View(t, m.width/2)
	} else if m.lastErr != nil {
		left = t.Renderer.NewStyle().Foreground(t.Danger).Render(" ! " + m.lastErr.Phase + " failed")
	} else if m.opts.Title != "" {
		left = t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(" " + m.opts.Title)
	}

	var right []string
	if m.worker.State() == WorkerProcessing {
		right = append(right, m.spinner.View()+" loading")
	}
	if m.opts.Multi {
		if n := len(picker.SelectedIDs(m.store.State(), m.opts.Base)); n > 0 {
			right = append(right, fmt.Sprintf("%d selected", n))
		}
	}
	right = append(right, "?: help  q: quit")
	rightText := t.Renderer.NewStyle().Foreground(t.Subtext).Render(strings.Join(right, " • ") + " ")

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(rightText), 0)
	return left + strings.Repeat(" ", gap) + rightText
}
