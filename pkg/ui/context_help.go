package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Context is the part of the picker that has focus.
type Context int

const (
	ContextTree Context = iota
	ContextSearch
	ContextDetails
	ContextSections
	ContextConfirm
)

// ContextHelpContent contains compact help content for each context.
// Content should fit on one screen without scrolling.
var ContextHelpContent = map[Context]string{
	ContextTree:     contextHelpTree,
	ContextSearch:   contextHelpSearch,
	ContextDetails:  contextHelpDetails,
	ContextSections: contextHelpSections,
	ContextConfirm:  contextHelpConfirm,
}

// GetContextHelp returns the help content for a given context.
// Falls back to the tree help if the context has no specific content.
func GetContextHelp(ctx Context) string {
	if content, ok := ContextHelpContent[ctx]; ok {
		return content
	}
	return contextHelpTree
}

// RenderContextHelp renders the context-specific help modal.
func RenderContextHelp(ctx Context, theme Theme, width, height int) string {
	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	if modalWidth < 30 {
		modalWidth = 30
	}

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	contentStyle := r.NewStyle().Foreground(theme.Subtext)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(GetContextHelp(ctx)))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc or ? to close"))

	modal := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())

	if width <= 0 || height <= 0 {
		return modal
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

const contextHelpTree = `## Tree

**Navigation**
  j/k       Move up/down
  l/→       Load or expand, then step into
  h/←       Collapse, or go to parent
  g/G       Jump to top/bottom
  PgUp/Dn   Half a page

**Picking**
  Space     Toggle selection
  Enter     Pick the node (or the selection)
  y         Copy uuids to the clipboard

**Sections**
  1-5       Jump to section
  Tab       Next section
  s         Section list

**Loading**
  /         Search all projects
  f         Filter collections
  r / R     Refresh section / all
  d         Toggle details`

const contextHelpSearch = `## Search

  Enter     Run the search
  Esc       Cancel editing

Project search lists matching projects in
the Search section. The collection filter
applies to the current section and
reloads its open projects.
An empty search clears the Search section.`

const contextHelpDetails = `## Details

  j/k       Scroll
  d / Tab   Back to the tree

The pane follows the cursor and shows kind,
owner, size and description of the node.`

const contextHelpSections = `## Sections

  j/k       Move
  Enter     Go to section
  Esc       Cancel`

const contextHelpConfirm = `## Confirm

  ←/→       Choose
  Enter     Answer
  Esc       Back to the tree`
