package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

func newPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path <uuid>",
		Short: "Show where a project or collection sits in the picker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPath(cmd.Context(), app, args[0])
		},
	}
}

type pathResult struct {
	Section string    `json:"section"`
	Path    []listing `json:"path"`
}

func runPath(ctx context.Context, app *App, target string) error {
	s, err := openSession(ctx, app, false)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.loader.InitProjectsPicker(ctx, app.Base, target, s.cfg.Picker.LoadParams()); err != nil {
		return err
	}

	st := s.loader.Store().State()
	active, pickerID, ok := picker.ActiveNode(st, app.Base)
	if !ok {
		return fmt.Errorf("%s could not be located", target)
	}
	res := pathResult{Section: sectionName(app.Base, pickerID), Path: ancestry(st.Trees.Tree(pickerID), active.ID)}

	if app.JSON {
		return writeJSON(app.out, res)
	}
	if _, err := fmt.Fprintf(app.out, "section: %s\n", res.Section); err != nil {
		return err
	}
	return app.print(res.Path)
}

// ancestry returns the chain from the section root down to id.
func ancestry(t picker.Tree, id string) []listing {
	var chain []picker.Node
	for id != tree.RootID {
		n, ok := t.Node(id)
		if !ok {
			break
		}
		chain = append(chain, n)
		id = n.ParentID
	}
	rows := make([]listing, len(chain))
	for i := range chain {
		row := listingOf(chain[len(chain)-1-i])
		row.Depth = i
		rows[i] = row
	}
	return rows
}

func sectionName(base, pickerID string) string {
	for i, id := range picker.SectionIDs(base).All() {
		if id == pickerID {
			return sectionNames[i]
		}
	}
	return pickerID
}
