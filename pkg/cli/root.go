// Package cli wires configuration, data sources and the picker into the
// treepick command tree.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/treepick/pkg/config"
	"github.com/vanderheijden86/treepick/pkg/model"
)

// App holds the persistent flags and the loaded configuration.
type App struct {
	ConfigFile string
	Base       string
	JSON       bool

	cfg config.Config
	out io.Writer
	err io.Writer
}

// NewRootCmd builds the treepick command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}
	pick := pickFlags{}

	cmd := &cobra.Command{
		Use:          "treepick",
		Short:        "Browse and pick projects, collections and files of a cluster",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Pick one project interactively; its uuid is printed on exit
  treepick

  # Pick several collections, starting from a known project
  treepick --multi --kind collection --select zzzzz-j7d0g-0123456789abcde

  # Scriptable listing against an offline catalog
  TREEPICK_CATALOG_PATH=demo.fixture.yaml treepick ls home
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker(cmd, app, pick)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.out = cmd.OutOrStdout()
		app.err = cmd.ErrOrStderr()
		if skipsConfig(cmd) {
			return nil
		}
		cfg, err := config.Load(config.Options{File: app.ConfigFile})
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		app.cfg = cfg
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Config file (default: nearest .treepick.yaml, then the user config)")
	cmd.PersistentFlags().StringVar(&app.Base, "base", "picker", "Picker id; the sections are named after it")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print machine-readable JSON")
	pick.register(cmd)

	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newPathCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newCatalogCmd(app))

	return cmd
}

// skipsConfig marks commands that work without a data source.
func skipsConfig(cmd *cobra.Command) bool {
	return cmd.Annotations["config"] == "none"
}

// sectionNames are accepted by --section and ls, in section order.
var sectionNames = []string{"home", "shared", "favorites", "public-favorites", "search"}

func sectionIndex(name string) (int, error) {
	for i, n := range sectionNames {
		if strings.EqualFold(name, n) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q (want one of %s)", name, strings.Join(sectionNames, ", "))
}

func parseKinds(names []string) ([]model.Kind, error) {
	var kinds []model.Kind
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			k := model.Kind(strings.TrimSpace(strings.ToLower(part)))
			if k == "" {
				continue
			}
			if !k.IsValid() || k.IsSynthetic() {
				return nil, fmt.Errorf("unknown kind %q", part)
			}
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
