package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchMode says what the header's input edits.
type SearchMode int

const (
	SearchNone SearchMode = iota
	// SearchProjects edits the project search of the search section.
	SearchProjects
	// SearchCollections edits the collection filter of the current section.
	SearchCollections
)

// SectionEntry holds display data for one section chip.
type SectionEntry struct {
	Title  string
	Rows   int    // visible rows
	Filter string // collection filter, if any
}

// SwitchSectionMsg is sent when the user picks a section by number.
type SwitchSectionMsg struct {
	Index int
}

// SearchSubmittedMsg is sent when the user confirms the header input.
type SearchSubmittedMsg struct {
	Mode SearchMode
	Text string
}

// HeaderModel is the always-visible k9s-style header: shortcut bar,
// optional search line, section chips and a title bar.
type HeaderModel struct {
	entries []SectionEntry
	active  int
	width   int
	input   textinput.Model
	mode    SearchMode
	search  string // last submitted project search
	theme   Theme
}

// NewHeader creates a header for the given sections.
func NewHeader(entries []SectionEntry, theme Theme) HeaderModel {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40
	return HeaderModel{entries: entries, input: ti, theme: theme}
}

// SetWidth updates the header width.
func (m *HeaderModel) SetWidth(w int) { m.width = w }

// SetEntries replaces the section chips and marks active.
func (m *HeaderModel) SetEntries(entries []SectionEntry, active int) {
	m.entries = entries
	m.active = active
}

// SetSearch records the project search shown in the title bar.
func (m *HeaderModel) SetSearch(s string) { m.search = s }

// Editing reports whether the header input has focus.
func (m *HeaderModel) Editing() bool { return m.mode != SearchNone }

// Mode returns what the input currently edits.
func (m *HeaderModel) Mode() SearchMode { return m.mode }

// Begin focuses the input for mode, prefilled with value.
func (m *HeaderModel) Begin(mode SearchMode, value string) tea.Cmd {
	m.mode = mode
	switch mode {
	case SearchProjects:
		m.input.Placeholder = "search all projects..."
	case SearchCollections:
		m.input.Placeholder = "filter collections..."
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *HeaderModel) end() {
	m.mode = SearchNone
	m.input.Blur()
}

// Update handles keyboard input for the header.
func (m HeaderModel) Update(msg tea.Msg) (HeaderModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.mode != SearchNone {
		return m.updateEditing(key)
	}
	return m.updateNormal(key)
}

// updateNormal handles the number-key quick switch.
func (m HeaderModel) updateNormal(msg tea.KeyMsg) (HeaderModel, tea.Cmd) {
	s := msg.String()
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		n := int(s[0] - '1')
		if n < len(m.entries) {
			return m, func() tea.Msg { return SwitchSectionMsg{Index: n} }
		}
	}
	return m, nil
}

// updateEditing handles keys while the input has focus.
func (m HeaderModel) updateEditing(msg tea.KeyMsg) (HeaderModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.end()
		return m, nil
	case "enter":
		sub := SearchSubmittedMsg{Mode: m.mode, Text: strings.TrimSpace(m.input.Value())}
		m.end()
		return m, func() tea.Msg { return sub }
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// View renders the header.
func (m *HeaderModel) View() string {
	w := m.width
	if w == 0 {
		w = 80
	}
	lines := []string{m.renderShortcutBar()}
	if m.mode != SearchNone {
		label := "/ "
		if m.mode == SearchCollections {
			label = "f "
		}
		lines = append(lines, m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Width(w).
			Render("  "+label+m.input.View()))
	}
	lines = append(lines, m.renderChips(w)...)
	lines = append(lines, m.renderTitleBar(w))
	return strings.Join(lines, "\n")
}

// Height returns the number of terminal lines the header uses.
func (m *HeaderModel) Height() int {
	w := m.width
	if w == 0 {
		w = 80
	}
	n := 2 + len(m.renderChips(w))
	if m.mode != SearchNone {
		n++
	}
	return n
}

var headerShortcuts = []struct{ key, desc string }{
	{"<1-5>", "Section"},
	{"</>", "Search"},
	{"<f>", "Filter"},
	{"<space>", "Select"},
	{"<enter>", "Pick"},
	{"<?>", "Help"},
}

// renderShortcutBar renders the k9s-style shortcut hints.
func (m *HeaderModel) renderShortcutBar() string {
	t := m.theme
	keyStyle := t.Renderer.NewStyle().Foreground(t.Highlight).Bold(true)
	descStyle := t.Renderer.NewStyle().Foreground(t.Subtext)

	parts := make([]string, len(headerShortcuts))
	for i, s := range headerShortcuts {
		parts[i] = keyStyle.Render(s.key) + " " + descStyle.Render(s.desc)
	}
	return " " + strings.Join(parts, "  ")
}

// renderChips flows the section chips, wrapping at w.
func (m *HeaderModel) renderChips(w int) []string {
	var lines []string
	var cur strings.Builder
	curLen := 0
	for i, e := range m.entries {
		text := fmt.Sprintf("%d %s(%d)", i+1, e.Title, e.Rows)
		if e.Filter != "" {
			text += "[" + e.Filter + "]"
		}
		chipLen := lipgloss.Width(text)
		if curLen > 2 && curLen+chipLen+2 > w {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen == 0 {
			cur.WriteString("  ")
			curLen = 2
		} else {
			cur.WriteString("  ")
			curLen += 2
		}
		style := m.theme.Renderer.NewStyle().Foreground(m.theme.Base.GetForeground())
		if i == m.active {
			style = m.theme.Renderer.NewStyle().Foreground(m.theme.Primary).Bold(true)
		}
		cur.WriteString(style.Render(text))
		curLen += chipLen
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// renderTitleBar renders the divider with the active section and its row
// count, like k9s: section(search)[count].
func (m *HeaderModel) renderTitleBar(w int) string {
	t := m.theme
	label, count := "picker", 0
	if m.active >= 0 && m.active < len(m.entries) {
		e := m.entries[m.active]
		label = strings.ToLower(e.Title)
		count = e.Rows
	}
	if m.search != "" && m.active == len(m.entries)-1 {
		label += "(" + m.search + ")"
	}
	countText := fmt.Sprintf("[%d]", count)
	title := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true).Render(label) +
		t.Renderer.NewStyle().Foreground(t.Highlight).Render(countText)

	titleLen := lipgloss.Width(label) + len(countText)
	leftPad := max((w-titleLen-4)/2, 1)
	rightPad := max(w-titleLen-4-leftPad, 1)
	sep := t.Renderer.NewStyle().Foreground(t.Border)
	return sep.Render(strings.Repeat("─", leftPad)) + " " + title + " " + sep.Render(strings.Repeat("─", rightPad))
}
