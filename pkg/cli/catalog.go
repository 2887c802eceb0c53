package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/catalog"
	"github.com/vanderheijden86/treepick/pkg/config"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with offline catalog fixtures",
	}
	cmd.AddCommand(newCatalogVerifyCmd(app))
	cmd.AddCommand(newCatalogImportCmd(app))
	return cmd
}

func newCatalogVerifyCmd(app *App) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:         "verify [fixture...]",
		Short:       "Check fixtures for bad uuids, duplicates and ownership cycles",
		Long:        "Check the given fixture files, or every *.fixture.yaml below the working directory.",
		Annotations: map[string]string{"config": "none"},
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				files = config.DiscoverFixtures(wd, depth)
			}
			if len(files) == 0 {
				return errors.New("no fixture files found")
			}
			return runVerify(app, files)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 3, "Directory depth searched when no files are given")
	return cmd
}

type verifyResult struct {
	File   string   `json:"file"`
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

func runVerify(app *App, files []string) error {
	results := make([]verifyResult, 0, len(files))
	failed := 0
	for _, f := range files {
		res := verifyResult{File: f, OK: true}
		fx, err := catalog.LoadFixture(f)
		if err == nil {
			err = catalog.Verify(fx)
		}
		if err != nil {
			res.OK = false
			res.Errors = splitErrors(err)
			failed++
		}
		results = append(results, res)
	}

	if app.JSON {
		if err := writeJSON(app.out, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				fmt.Fprintf(app.out, "ok    %s\n", r.File)
				continue
			}
			fmt.Fprintf(app.out, "FAIL  %s\n", r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(app.out, "      %s\n", e)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fixtures failed verification", failed, len(files))
	}
	return nil
}

// splitErrors flattens joined errors into one line each.
func splitErrors(err error) []string {
	var lines []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func newCatalogImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import the configured fixture into its database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), app)
		},
	}
}

func runImport(ctx context.Context, app *App) error {
	if !app.cfg.UsesCatalog() {
		return errors.New("catalog.path is not configured")
	}
	fx, err := catalog.LoadFixture(app.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	if err := catalog.Verify(fx); err != nil {
		return err
	}
	s, err := openSession(ctx, app, false)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = fmt.Fprintf(app.out, "imported %s into %s (%d projects, %d collections)\n",
		app.cfg.Catalog.Path, s.catalog.Path(), len(fx.Projects), len(fx.Collections))
	return err
}
