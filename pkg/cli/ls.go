package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

type lsFlags struct {
	Section string
	Search  string
	Filter  string
	Depth   int
}

func newLsCmd(app *App) *cobra.Command {
	var f lsFlags
	cmd := &cobra.Command{
		Use:   "ls [uuid]",
		Short: "List a section, or the contents of a project or collection",
		Long: `List the children of a section root or, given a uuid, of that project or
collection. The uuid is located the way the picker locates a selection: in
the home section when you own part of its path, in the shared section
otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return runLs(cmd.Context(), app, f, target)
		},
	}
	cmd.Flags().StringVar(&f.Section, "section", "home", "Section to list when no uuid is given")
	cmd.Flags().StringVar(&f.Search, "search", "", "Search all projects by name (implies the search section)")
	cmd.Flags().StringVar(&f.Filter, "filter", "", "Only list collections whose name contains this text")
	cmd.Flags().IntVar(&f.Depth, "depth", 1, "Levels to expand below the listed node")
	return cmd
}

func runLs(ctx context.Context, app *App, f lsFlags, target string) error {
	if f.Depth < 1 {
		return fmt.Errorf("--depth must be at least 1, got %d", f.Depth)
	}
	idx, err := sectionIndex(f.Section)
	if err != nil {
		return err
	}
	if f.Search != "" {
		idx = len(sectionNames) - 1
	}

	s, err := openSession(ctx, app, false)
	if err != nil {
		return err
	}
	defer s.Close()
	l := s.loader
	if err := l.InitProjectsPicker(ctx, app.Base, "", s.cfg.Picker.LoadParams()); err != nil {
		return err
	}

	secs := picker.SectionIDs(app.Base)
	pickerID := secs.All()[idx]
	if f.Filter != "" {
		l.Store().Dispatch(picker.SetCollectionFilter{PickerID: pickerID, Value: f.Filter})
	}

	var start string
	switch {
	case target != "":
		if err := l.LoadPathTo(ctx, app.Base, target); err != nil {
			return err
		}
		_, pickerID, _ = picker.ActiveNode(l.Store().State(), app.Base)
		if f.Filter != "" {
			l.Store().Dispatch(picker.SetCollectionFilter{PickerID: pickerID, Value: f.Filter})
		}
		start = target
	case pickerID == secs.Search:
		if f.Search == "" {
			return errors.New("the search section needs --search")
		}
		if err := l.Search(ctx, app.Base, f.Search); err != nil {
			return err
		}
		start = picker.SearchRootID
	default:
		roots := l.Store().State().Trees.Tree(pickerID).Children(tree.RootID)
		if len(roots) == 0 {
			return fmt.Errorf("section %s has no root", sectionNames[idx])
		}
		start = roots[0].ID
	}

	if err := expandDepth(ctx, l, pickerID, start, f.Depth); err != nil {
		return err
	}
	return app.print(collect(l.Store().State().Trees.Tree(pickerID), start, f.Depth))
}

// expandDepth loads and opens id and its descendants up to depth levels.
func expandDepth(ctx context.Context, l *loader.Loader, pickerID, id string, depth int) error {
	n, ok := l.Store().State().Trees.Tree(pickerID).Node(id)
	if !ok {
		return fmt.Errorf("%s is not in the tree", id)
	}
	if !n.Expanded {
		if err := l.Expand(ctx, pickerID, id, l.Params(pickerID)); err != nil {
			return err
		}
	}
	if depth <= 1 {
		return nil
	}
	for _, c := range l.Store().State().Trees.Tree(pickerID).Children(id) {
		if c.Status == tree.Loaded && len(c.ChildIDs) == 0 {
			continue
		}
		if err := expandDepth(ctx, l, pickerID, c.ID, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// collect flattens the open descendants of id, depth first.
func collect(t picker.Tree, id string, depth int) []listing {
	var rows []listing
	var walk func(parent string, level int)
	walk = func(parent string, level int) {
		for _, c := range t.Children(parent) {
			row := listingOf(c)
			row.Depth = level
			rows = append(rows, row)
			if c.Expanded && level+1 < depth {
				walk(c.ID, level+1)
			}
		}
	}
	walk(id, 0)
	return rows
}
