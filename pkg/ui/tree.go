package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// treeRow is one visible line of a section tree.
type treeRow struct {
	node   picker.Node
	depth  int
	prefix string // branch characters, unstyled
	parent string
}

// TreeModel renders one section tree and tracks the cursor over its
// visible rows. The tree itself lives in the picker store; TreeModel only
// keeps the latest snapshot it was handed.
type TreeModel struct {
	tree   picker.Tree
	rows   []treeRow
	cursor int
	offset int // index of the first rendered row
	width  int
	height int
	theme  Theme
	spin   string // current spinner frame for pending nodes
	empty  string
}

// NewTreeModel creates an empty tree view.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{theme: theme, spin: "…", empty: "Nothing to show."}
}

// SetSize updates the available dimensions for the tree view.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.ensureVisible()
}

// SetSpinner sets the frame drawn next to pending nodes.
func (t *TreeModel) SetSpinner(frame string) { t.spin = frame }

// SetEmptyText sets what View shows when the tree has no rows.
func (t *TreeModel) SetEmptyText(s string) { t.empty = s }

// SetTree replaces the rendered tree. The cursor stays on the same node
// when it is still visible.
func (t *TreeModel) SetTree(tr picker.Tree) {
	if t.tree.Same(tr) && len(t.rows) > 0 {
		return
	}
	keep := t.SelectedID()
	t.tree = tr
	t.rebuildRows()
	if keep != "" && !t.SelectByID(keep) {
		t.clampCursor()
	}
	t.ensureVisible()
}

// rebuildRows flattens the expanded part of the tree.
func (t *TreeModel) rebuildRows() {
	t.rows = t.rows[:0]
	t.appendChildren(tree.RootID, 0, "")
	t.clampCursor()
}

func (t *TreeModel) appendChildren(parentID string, depth int, lead string) {
	children := t.tree.Children(parentID)
	for i, n := range children {
		last := i == len(children)-1
		prefix := ""
		next := ""
		if depth > 0 {
			if last {
				prefix = lead + "└── "
				next = lead + "    "
			} else {
				prefix = lead + "├── "
				next = lead + "│   "
			}
		}
		t.rows = append(t.rows, treeRow{node: n, depth: depth, prefix: prefix, parent: parentID})
		if n.Expanded {
			t.appendChildren(n.ID, depth+1, next)
		}
	}
}

// View renders the visible window of rows.
func (t *TreeModel) View() string {
	if len(t.rows) == 0 {
		return t.theme.Renderer.NewStyle().Foreground(t.theme.Muted).Render(t.empty)
	}
	start, end := t.visibleRange()
	var sb strings.Builder
	for i := start; i < end; i++ {
		line := t.renderRow(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderRow renders a single node with branch characters and flags.
func (t *TreeModel) renderRow(r treeRow) string {
	th := t.theme
	rs := th.Renderer
	n := r.node
	var sb strings.Builder

	sb.WriteString(rs.NewStyle().Foreground(th.Muted).Render(r.prefix))
	sb.WriteString(rs.NewStyle().Foreground(th.Secondary).Render(t.indicator(n)))
	sb.WriteString(" ")

	truncated := n.Value != nil && model.IsTruncated(n.Value)
	if !truncated {
		box := "[ ]"
		if n.Selected {
			box = "[x]"
		}
		sb.WriteString(rs.NewStyle().Foreground(th.Highlight).Render(box))
		sb.WriteString(" ")
	}

	kind := model.KindUnknown
	name := n.ID
	if n.Value != nil {
		kind = n.Value.Kind()
		if dn := n.Value.DisplayName(); dn != "" {
			name = dn
		}
	}
	icon, color := th.KindIcon(kind)
	sb.WriteString(rs.NewStyle().Foreground(color).Render(icon))
	sb.WriteString(" ")

	room := t.width - runewidth.StringWidth(r.prefix) - 8
	if room < 12 {
		room = 12
	}
	name = runewidth.Truncate(name, room, "…")

	style := th.Base
	switch {
	case truncated:
		style = rs.NewStyle().Foreground(th.Warning).Italic(true)
	case n.Active:
		style = rs.NewStyle().Foreground(th.Primary).Bold(true).Underline(true)
	}
	sb.WriteString(style.Render(name))
	return sb.String()
}

// indicator returns the expand marker of a node.
func (t *TreeModel) indicator(n picker.Node) string {
	switch {
	case n.Status == tree.Pending:
		return t.spin
	case n.Status == tree.Initial:
		return "▸"
	case len(n.ChildIDs) == 0:
		return "•"
	case n.Expanded:
		return "▾"
	}
	return "▸"
}

// SelectedNode returns the node under the cursor.
func (t *TreeModel) SelectedNode() (picker.Node, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].node, true
	}
	return picker.Node{}, false
}

// SelectedID returns the id of the node under the cursor, or "".
func (t *TreeModel) SelectedID() string {
	if n, ok := t.SelectedNode(); ok {
		return n.ID
	}
	return ""
}

// SelectedParentID returns the parent id of the node under the cursor.
func (t *TreeModel) SelectedParentID() (string, bool) {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].parent, true
	}
	return "", false
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
	t.ensureVisible()
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.ensureVisible()
}

// JumpToTop moves the cursor to the first row.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureVisible()
}

// JumpToBottom moves the cursor to the last row.
func (t *TreeModel) JumpToBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.ensureVisible()
}

// JumpToParent moves the cursor to the parent row. Roots stay put.
func (t *TreeModel) JumpToParent() {
	parent, ok := t.SelectedParentID()
	if !ok || parent == tree.RootID {
		return
	}
	t.SelectByID(parent)
}

// MoveToFirstChild moves the cursor to the first visible child of the
// current row and reports whether it moved.
func (t *TreeModel) MoveToFirstChild() bool {
	n, ok := t.SelectedNode()
	if !ok || !n.Expanded || t.cursor+1 >= len(t.rows) {
		return false
	}
	if t.rows[t.cursor+1].parent != n.ID {
		return false
	}
	t.cursor++
	t.ensureVisible()
	return true
}

// PageDown moves the cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	t.cursor += t.pageSize()
	t.clampCursor()
	t.ensureVisible()
}

// PageUp moves the cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	t.cursor -= t.pageSize()
	t.clampCursor()
	t.ensureVisible()
}

func (t *TreeModel) pageSize() int {
	if p := t.height / 2; p >= 1 {
		return p
	}
	return 5
}

// SelectByID moves the cursor to the row of id and reports whether the
// row is visible.
func (t *TreeModel) SelectByID(id string) bool {
	for i, r := range t.rows {
		if r.node.ID == id {
			t.cursor = i
			t.ensureVisible()
			return true
		}
	}
	return false
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int { return len(t.rows) }

func (t *TreeModel) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *TreeModel) viewHeight() int {
	if t.height <= 0 {
		return 20
	}
	return t.height
}

// ensureVisible scrolls so the cursor row is inside the window.
func (t *TreeModel) ensureVisible() {
	h := t.viewHeight()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+h {
		t.offset = t.cursor - h + 1
	}
	if maxOff := len(t.rows) - h; t.offset > maxOff {
		t.offset = max(maxOff, 0)
	}
}

// visibleRange returns the [start, end) row indices to render.
func (t *TreeModel) visibleRange() (start, end int) {
	if len(t.rows) == 0 {
		return 0, 0
	}
	start = min(max(t.offset, 0), len(t.rows))
	end = min(start+t.viewHeight(), len(t.rows))
	return start, end
}
