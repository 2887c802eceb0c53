package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// ConfirmModel asks a yes/no question before the pick is returned.
type ConfirmModel struct {
	form   *huh.Form
	answer *bool
}

// NewConfirm builds the dialog. description may be empty.
func NewConfirm(title, description string) *ConfirmModel {
	answer := new(bool)
	*answer = true
	c := huh.NewConfirm().
		Title(title).
		Affirmative("Pick").
		Negative("Back").
		Value(answer)
	if description != "" {
		c = c.Description(description)
	}
	form := huh.NewForm(huh.NewGroup(c)).
		WithShowHelp(false).
		WithTheme(huh.ThemeCharm())
	return &ConfirmModel{form: form, answer: answer}
}

// Init starts the form.
func (c *ConfirmModel) Init() tea.Cmd { return c.form.Init() }

// Update forwards msg to the form.
func (c *ConfirmModel) Update(msg tea.Msg) tea.Cmd {
	m, cmd := c.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		c.form = f
	}
	return cmd
}

// Done reports whether the form finished and what was answered. An
// aborted form counts as declined.
func (c *ConfirmModel) Done() (done, confirmed bool) {
	switch c.form.State {
	case huh.StateCompleted:
		return true, *c.answer
	case huh.StateAborted:
		return true, false
	}
	return false, false
}

// View renders the dialog.
func (c *ConfirmModel) View() string { return c.form.View() }
