package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

// DetailsModel shows the resource under the cursor as rendered Markdown.
type DetailsModel struct {
	viewport viewport.Model
	renderer *glamour.TermRenderer
	wrap     int
	shownID  string
}

// NewDetails creates an empty details pane.
func NewDetails() DetailsModel {
	return DetailsModel{viewport: viewport.New(0, 0)}
}

// SetSize resizes the pane and rebuilds the renderer for the new wrap width.
func (d *DetailsModel) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
	if width != d.wrap || d.renderer == nil {
		d.wrap = width
		d.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(width-2, 20)),
		)
		d.shownID = ""
	}
}

// Show renders n unless it is already shown.
func (d *DetailsModel) Show(n picker.Node, ok bool) {
	if !ok {
		d.shownID = ""
		d.viewport.SetContent("Nothing selected")
		return
	}
	key := fmt.Sprintf("%s|%d|%t", n.ID, n.Status, n.Selected)
	if key == d.shownID {
		return
	}
	d.shownID = key
	md := DetailsMarkdown(n)
	if d.renderer == nil {
		d.viewport.SetContent(md)
		return
	}
	out, err := d.renderer.Render(md)
	if err != nil {
		d.viewport.SetContent(fmt.Sprintf("Error rendering markdown: %v", err))
		return
	}
	d.viewport.SetContent(out)
	d.viewport.GotoTop()
}

// Update scrolls the pane.
func (d DetailsModel) Update(msg tea.Msg) (DetailsModel, tea.Cmd) {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the pane.
func (d *DetailsModel) View() string { return d.viewport.View() }

// DetailsMarkdown describes a node as Markdown.
func DetailsMarkdown(n picker.Node) string {
	var sb strings.Builder
	r := n.Value
	if r == nil {
		fmt.Fprintf(&sb, "# %s\n", n.ID)
		return sb.String()
	}
	fmt.Fprintf(&sb, "# %s\n\n", r.DisplayName())
	sb.WriteString("| Field | Value |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "| %s | %s |\n", k, strings.ReplaceAll(v, "|", `\|`))
		}
	}
	row("Kind", string(r.Kind()))
	if !r.Kind().IsSynthetic() {
		row("UUID", "`"+r.ResourceID()+"`")
	}
	row("Owner", r.OwnerID())
	row("Status", n.Status.String())

	switch v := r.(type) {
	case model.Project:
		row("Class", v.GroupClass)
		if v.IsFrozen() {
			row("Frozen by", v.FrozenByUUID)
		}
		row("Writable", fmt.Sprint(v.CanWrite && !v.IsFrozen()))
	case model.Collection:
		row("Type", v.Type())
		row("Portable data hash", v.PortableDataHash)
		if v.FileCount > 0 {
			row("Files", fmt.Sprint(v.FileCount))
			row("Size", humanBytes(v.FileSizeTotal))
		}
		if !v.ModifiedAt.IsZero() {
			row("Modified", v.ModifiedAt.Format("2006-01-02 15:04"))
		}
	case model.CollectionFile:
		row("Path", v.Path+"/"+v.Name)
		if v.Type == model.FileTypeFile {
			row("Size", humanBytes(v.Size))
		}
		row("URL", v.URL)
	case model.User:
		row("Username", v.Username)
	}
	if loc, ok := model.FileOperationLocation(r); ok {
		row("Destination", loc.UUID+":"+loc.Path)
	}
	sb.WriteString("\n")

	if c, ok := r.(model.Collection); ok && len(c.Properties) > 0 {
		sb.WriteString("### Properties\n\n")
		keys := make([]string, 0, len(c.Properties))
		for k := range c.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "- **%s**: %s\n", k, c.Properties[k])
		}
		sb.WriteString("\n")
	}
	if desc := model.Description(r); desc != "" {
		sb.WriteString("### Description\n\n")
		sb.WriteString(desc + "\n")
	}
	return sb.String()
}

// humanBytes formats n with a binary unit.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
