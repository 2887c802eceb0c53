package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

// listing is the printed form of one node.
type listing struct {
	UUID     string     `json:"uuid"`
	Kind     model.Kind `json:"kind"`
	Name     string     `json:"name"`
	Owner    string     `json:"owner_uuid,omitempty"`
	Status   string     `json:"status"`
	Depth    int        `json:"depth,omitempty"`
	Selected bool       `json:"selected,omitempty"`
	Active   bool       `json:"active,omitempty"`
}

func listingOf(n picker.Node) listing {
	l := listing{UUID: n.ID, Status: n.Status.String(), Selected: n.Selected, Active: n.Active}
	if n.Value != nil {
		l.Kind = n.Value.Kind()
		l.Name = n.Value.DisplayName()
		l.Owner = n.Value.OwnerID()
		if l.Kind.IsSynthetic() {
			l.UUID = ""
		}
	}
	return l
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints rows as a bordered table, indenting names by depth.
func writeTable(w io.Writer, rows []listing) error {
	r := lipgloss.NewRenderer(w)
	head := r.NewStyle().Bold(true).Padding(0, 1)
	cell := r.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers("KIND", "NAME", "UUID", "STATUS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return head
			}
			return cell
		})
	for _, l := range rows {
		name := strings.Repeat("  ", l.Depth) + l.Name
		if l.Active {
			name += " *"
		}
		t.Row(string(l.Kind), name, l.UUID, l.Status)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func (app *App) print(rows []listing) error {
	if app.JSON {
		if rows == nil {
			rows = []listing{}
		}
		return writeJSON(app.out, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(app.out, "(empty)")
		return err
	}
	return writeTable(app.out, rows)
}
