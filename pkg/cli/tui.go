package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/treepick/pkg/catalog"
	"github.com/vanderheijden86/treepick/pkg/ui"
)

// ErrNothingPicked is returned when the picker is left without a pick.
var ErrNothingPicked = errors.New("nothing picked")

type pickFlags struct {
	Multi   bool
	Kinds   []string
	Confirm bool
	Select  string
	Section string
	Title   string
}

func (p *pickFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&p.Multi, "multi", false, "Pick several nodes with space")
	f.StringSliceVar(&p.Kinds, "kind", nil, "Kinds that may be picked (project, collection, directory, file, ...)")
	f.BoolVar(&p.Confirm, "confirm", false, "Ask before returning the pick")
	f.StringVar(&p.Select, "select", "", "Open the tree down to this uuid")
	f.StringVar(&p.Section, "section", "home", "Section shown first ("+strings.Join(sectionNames, ", ")+")")
	f.StringVar(&p.Title, "title", "", "Title shown in the status bar")
}

// runPicker runs the interactive picker and prints the picked uuids, one
// per line.
func runPicker(cmd *cobra.Command, app *App, pf pickFlags) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stderr.Fd())) {
		return errors.New("the picker needs a terminal; use ls or path for scripts")
	}
	kinds, err := parseKinds(pf.Kinds)
	if err != nil {
		return err
	}
	start, err := sectionIndex(pf.Section)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	s, err := openSession(ctx, app, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.loader.InitProjectsPicker(ctx, app.Base, pf.Select, s.cfg.Picker.LoadParams()); err != nil {
		// A missing target still leaves usable sections.
		s.logger.Warn("could not open selection", "uuid", pf.Select, "error", err)
	}

	w, err := ui.NewBackgroundWorker(ui.WorkerConfig{Loader: s.loader, Logger: s.logger})
	if err != nil {
		return err
	}
	defer w.Stop()
	s.notify.set(w)

	m := ui.NewModel(w, ui.Options{
		Base:         app.Base,
		Title:        pf.Title,
		Multi:        pf.Multi,
		Kinds:        kinds,
		Confirm:      pf.Confirm,
		StartSection: start,
	})
	// The picker draws on stderr so stdout carries only the result.
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	w.SetSend(p.Send)
	w.Start()

	if s.catalog != nil && s.cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(s.catalog, s.cfg.Catalog.Path, w.CatalogReloaded(app.Base))
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run picker: %w", err)
	}
	res := final.(ui.Model).Result()
	if !res.Picked {
		return ErrNothingPicked
	}
	return printPicked(app, res)
}

func printPicked(app *App, res ui.Result) error {
	if app.JSON {
		entries := make([]listing, 0, len(res.Nodes))
		for _, n := range res.Nodes {
			entries = append(entries, listingOf(n))
		}
		return writeJSON(app.out, entries)
	}
	for _, id := range res.IDs() {
		if _, err := fmt.Fprintln(app.out, id); err != nil {
			return err
		}
	}
	return nil
}
