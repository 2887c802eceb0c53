// Package ui provides the terminal picker for treepick.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// Theme holds the colors and base styles of the picker.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
}

// DefaultTheme builds the picker theme for r. A nil r uses the default
// renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#8E7CFF"},
		Secondary: lipgloss.AdaptiveColor{Light: "#A66A00", Dark: "#F1C76B"},
		Muted:     lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#5C5C5C", Dark: "#A8A8A8"},
		Highlight: lipgloss.AdaptiveColor{Light: "#00707A", Dark: "#5FD7D7"},
		Border:    lipgloss.AdaptiveColor{Light: "#C6C6C6", Dark: "#3A3A3A"},
		Warning:   lipgloss.AdaptiveColor{Light: "#B35C00", Dark: "#FFAF5F"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C00000", Dark: "#FF6B6B"},
	}
	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1C1C1C", Dark: "#E4E4E4"})
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E4E0FA", Dark: "#2E2850"}).
		Bold(true)
	return t
}

// KindIcon returns the glyph and color shown before a node of kind k.
func (t Theme) KindIcon(k model.Kind) (string, lipgloss.AdaptiveColor) {
	switch k {
	case model.KindProject:
		return "▣", t.Primary
	case model.KindFilterGroup:
		return "⧩", t.Primary
	case model.KindCollection:
		return "◆", t.Highlight
	case model.KindDirectory:
		return "▤", t.Subtext
	case model.KindFile:
		return "·", t.Subtext
	case model.KindWorkflow:
		return "⚙", t.Secondary
	case model.KindUser:
		return "☺", t.Primary
	case model.KindSection:
		return "◎", t.Secondary
	case model.KindTruncated:
		return "…", t.Warning
	}
	return "?", t.Muted
}

// SeverityColor maps a notification severity to a theme color.
func (t Theme) SeverityColor(s loader.Severity) lipgloss.AdaptiveColor {
	switch s {
	case loader.SeverityWarning:
		return t.Warning
	case loader.SeverityError:
		return t.Danger
	}
	return t.Highlight
}
