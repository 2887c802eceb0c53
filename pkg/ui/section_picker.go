package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treepick/pkg/picker"
)

// sectionTitles names the sections in display order.
var sectionTitles = []string{"Home", "Shared with me", "Favorites", "Public favorites", "Search"}

// SectionPickerModel is the quick section switch modal.
type SectionPickerModel struct {
	ids           []string
	current       int // section shown behind the modal
	selectedIndex int
	counts        []int
	width         int
	height        int
	theme         Theme
}

// NewSectionPicker creates a switcher over the sections of base with
// current highlighted. counts holds the visible row count per section.
func NewSectionPicker(base string, current int, counts []int, theme Theme) SectionPickerModel {
	return SectionPickerModel{
		ids:           picker.SectionIDs(base).All(),
		current:       current,
		selectedIndex: current,
		counts:        counts,
		theme:         theme,
	}
}

// SetSize updates the picker dimensions
func (m *SectionPickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// MoveUp moves selection up
func (m *SectionPickerModel) MoveUp() {
	if m.selectedIndex > 0 {
		m.selectedIndex--
	}
}

// MoveDown moves selection down
func (m *SectionPickerModel) MoveDown() {
	if m.selectedIndex < len(m.ids)-1 {
		m.selectedIndex++
	}
}

// Selected returns the highlighted section index.
func (m *SectionPickerModel) Selected() int { return m.selectedIndex }

// SelectedID returns the picker id of the highlighted section.
func (m *SectionPickerModel) SelectedID() string {
	if m.selectedIndex >= 0 && m.selectedIndex < len(m.ids) {
		return m.ids[m.selectedIndex]
	}
	return ""
}

// View renders the section picker overlay
func (m *SectionPickerModel) View() string {
	if m.width == 0 {
		m.width = 60
	}
	if m.height == 0 {
		m.height = 20
	}

	t := m.theme

	boxWidth := 36
	if m.width < 46 {
		boxWidth = m.width - 10
	}
	if boxWidth < 26 {
		boxWidth = 26
	}

	var lines []string

	titleStyle := t.Renderer.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		MarginBottom(1)
	lines = append(lines, titleStyle.Render("Go to section"))
	lines = append(lines, "")

	for i, title := range sectionTitles {
		isSelected := i == m.selectedIndex

		itemStyle := t.Renderer.NewStyle()
		if isSelected {
			itemStyle = itemStyle.Foreground(t.Primary).Bold(true)
		} else {
			itemStyle = itemStyle.Foreground(t.Base.GetForeground())
		}

		prefix := "  "
		if isSelected {
			prefix = "> "
		}

		suffix := ""
		if i == m.current {
			suffix = " " + t.Renderer.NewStyle().Foreground(t.Secondary).Render("✓")
		}
		if i < len(m.counts) && m.counts[i] > 0 {
			suffix += t.Renderer.NewStyle().Foreground(t.Muted).Render(" (" + strconv.Itoa(m.counts[i]) + ")")
		}
		lines = append(lines, itemStyle.Render(prefix+title)+suffix)
	}

	lines = append(lines, "")
	footerStyle := t.Renderer.NewStyle().
		Foreground(t.Secondary).
		Italic(true)
	lines = append(lines, footerStyle.Render("j/k: navigate | enter: go | esc: cancel"))

	box := t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
