package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/treepick/pkg/export"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

type exportFlags struct {
	Format    string
	Out       string
	Sections  []string
	Depth     int
	Collapsed bool
	Title     string
	Select    string
}

func newExportCmd(app *App) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export section trees as JSON, Markdown, SVG or PNG",
		Example: strings.TrimSpace(`
  treepick export --sections home,shared --depth 2 --out tree.svg
  treepick export --select zzzzz-4zz18-0123456789abcde --format md
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), app, f)
		},
	}
	cmd.Flags().StringVar(&f.Format, "format", "", formatNames()+" (default: from --out, else md)")
	cmd.Flags().StringVarP(&f.Out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSliceVar(&f.Sections, "sections", []string{"home"}, "Sections to export")
	cmd.Flags().IntVar(&f.Depth, "depth", 1, "Levels to load below each section root")
	cmd.Flags().BoolVar(&f.Collapsed, "collapsed", false, "Include loaded children of collapsed nodes")
	cmd.Flags().StringVar(&f.Title, "title", "", "Document title")
	cmd.Flags().StringVar(&f.Select, "select", "", "Open the tree down to this uuid first")
	return cmd
}

func exportFormat(f exportFlags) (export.Format, error) {
	switch {
	case f.Format != "":
		return export.ParseFormat(f.Format)
	case f.Out != "":
		return export.ParseFormat(filepath.Ext(f.Out))
	}
	return export.FormatMarkdown, nil
}

func runExport(ctx context.Context, app *App, f exportFlags) error {
	format, err := exportFormat(f)
	if err != nil {
		return err
	}
	if f.Out == "" && format == export.FormatPNG && term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("refusing to write PNG to a terminal; use --out")
	}
	secs := picker.SectionIDs(app.Base)
	var pickerIDs []string
	for _, name := range f.Sections {
		idx, err := sectionIndex(name)
		if err != nil {
			return err
		}
		pickerIDs = append(pickerIDs, secs.All()[idx])
	}

	s, err := openSession(ctx, app, false)
	if err != nil {
		return err
	}
	defer s.Close()
	l := s.loader
	if err := l.InitProjectsPicker(ctx, app.Base, f.Select, s.cfg.Picker.LoadParams()); err != nil {
		return err
	}
	for _, id := range pickerIDs {
		if id == secs.Search {
			continue
		}
		for _, root := range l.Store().State().Trees.Tree(id).Children(tree.RootID) {
			if err := expandDepth(ctx, l, id, root.ID, f.Depth); err != nil {
				return err
			}
		}
	}

	title := f.Title
	if title == "" {
		title = "treepick export"
	}
	snap := export.Build(l.Store().State(), pickerIDs, export.Options{Title: title, Collapsed: f.Collapsed})
	if f.Out == "" {
		return export.Write(app.out, format, snap)
	}
	if f.Format == "" {
		return export.SaveToFile(snap, f.Out)
	}
	out, err := os.Create(f.Out)
	if err != nil {
		return err
	}
	if err := export.Write(out, format, snap); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	s.logger.Info("exported", "file", f.Out, "format", format)
	return nil
}

func formatNames() string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
