// Package config loads treepick settings from defaults, a YAML config file
// and TREEPICK_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vanderheijden86/treepick/pkg/picker"
)

// EnvPrefix prefixes every environment override: api.host is read from
// TREEPICK_API_HOST.
const EnvPrefix = "TREEPICK"

// ProjectFileName is looked up from the working directory upwards.
const ProjectFileName = ".treepick.yaml"

// CacheDirName sits next to a project file and holds its catalog database.
const CacheDirName = ".treepick"

// Config holds application configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Picker  PickerConfig  `mapstructure:"picker"`
	Log     LogConfig     `mapstructure:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// APIConfig selects a live cluster.
type APIConfig struct {
	Host       string        `mapstructure:"host"`
	Token      string        `mapstructure:"token"`
	Insecure   bool          `mapstructure:"insecure"`
	Timeout    time.Duration `mapstructure:"timeout"`
	KeepWebURL string        `mapstructure:"keep_web_url"`
}

// SessionConfig overrides what would otherwise be asked of the server.
type SessionConfig struct {
	UserUUID   string `mapstructure:"user_uuid"`
	UUIDPrefix string `mapstructure:"uuid_prefix"`
}

// CatalogConfig selects an offline fixture.
type CatalogConfig struct {
	Path  string `mapstructure:"path"`
	DB    string `mapstructure:"db"`
	Watch bool   `mapstructure:"watch"`

	// ProjectCache is set when DB was placed in the project's CacheDirName
	// because a project file configured the catalog without a db.
	ProjectCache bool `mapstructure:"-"`
}

// PickerConfig holds loader limits and the default load parameters.
type PickerConfig struct {
	PageLimit           int  `mapstructure:"page_limit"`
	RefreshConcurrency  int  `mapstructure:"refresh_concurrency"`
	IncludeCollections  bool `mapstructure:"include_collections"`
	IncludeDirectories  bool `mapstructure:"include_directories"`
	IncludeFiles        bool `mapstructure:"include_files"`
	IncludeFilterGroups bool `mapstructure:"include_filter_groups"`
	ShowOnlyOwned       bool `mapstructure:"show_only_owned"`
	ShowOnlyWritable    bool `mapstructure:"show_only_writable"`
}

// LoadParams returns the configured default load parameters.
func (p PickerConfig) LoadParams() picker.LoadParams {
	return picker.LoadParams{
		IncludeCollections:  p.IncludeCollections,
		IncludeDirectories:  p.IncludeDirectories,
		IncludeFiles:        p.IncludeFiles,
		IncludeFilterGroups: p.IncludeFilterGroups,
		ShowOnlyOwned:       p.ShowOnlyOwned,
		ShowOnlyWritable:    p.ShowOnlyWritable,
	}
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SlogLevel parses Level, defaulting to info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// DefaultPath is the user-level config file.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "treepick", "config.yaml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "treepick", "config.yaml")
}

func defaultCatalogDB() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "treepick", "catalog.db")
	}
	return filepath.Join(os.TempDir(), "treepick-catalog.db")
}

// Options tune Load. The zero value searches the usual places.
type Options struct {
	// File is an explicit config file; it must exist.
	File string
	// Dir is where the project file search starts; defaults to the
	// working directory.
	Dir string
}

// Load reads configuration. The file is, in order: opts.File,
// $TREEPICK_CONFIG, the nearest .treepick.yaml above opts.Dir, then the
// user config file. Missing implicit files are not an error.
func Load(opts Options) (Config, error) {
	v := viper.New()

	v.SetDefault("api.host", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.insecure", false)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.keep_web_url", "")
	v.SetDefault("session.user_uuid", "")
	v.SetDefault("session.uuid_prefix", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.db", "")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("picker.page_limit", 200)
	v.SetDefault("picker.refresh_concurrency", 4)
	v.SetDefault("picker.include_collections", true)
	v.SetDefault("picker.include_directories", true)
	v.SetDefault("picker.include_files", true)
	v.SetDefault("picker.include_filter_groups", false)
	v.SetDefault("picker.show_only_owned", false)
	v.SetDefault("picker.show_only_writable", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, explicit := opts.File, opts.File != ""
	if !explicit {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path, explicit = env, true
		}
	}
	if path == "" {
		dir := opts.Dir
		if dir == "" {
			dir, _ = os.Getwd()
		}
		if found, ok := FindProjectFile(dir); ok {
			path = found
		} else {
			path = DefaultPath()
		}
	}

	var c Config
	v.SetConfigFile(path)
	switch err := v.ReadInConfig(); {
	case err == nil:
		c.File = path
	case explicit:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	case !errors.Is(err, os.ErrNotExist):
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	file := c.File
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.File = file
	if c.Catalog.Path != "" && c.File != "" && !filepath.IsAbs(c.Catalog.Path) {
		c.Catalog.Path = filepath.Join(filepath.Dir(c.File), c.Catalog.Path)
	}
	c.Catalog.Path = expandHome(c.Catalog.Path)
	if c.Catalog.DB == "" {
		if c.File != "" && filepath.Base(c.File) == ProjectFileName {
			c.Catalog.DB = filepath.Join(filepath.Dir(c.File), CacheDirName, "catalog.db")
			c.Catalog.ProjectCache = true
		} else {
			c.Catalog.DB = defaultCatalogDB()
		}
	}
	c.Catalog.DB = expandHome(c.Catalog.DB)
	c.Log.File = expandHome(c.Log.File)
	return c, nil
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	switch {
	case c.API.Host == "" && c.Catalog.Path == "":
		errs = append(errs, errors.New("configure either api.host or catalog.path"))
	case c.API.Host != "" && c.Catalog.Path != "":
		errs = append(errs, errors.New("api.host and catalog.path are mutually exclusive"))
	case c.API.Host != "" && c.API.Token == "":
		errs = append(errs, errors.New("api.token is required with api.host"))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout))
	}
	if c.Picker.PageLimit <= 0 {
		errs = append(errs, fmt.Errorf("picker.page_limit must be positive, got %d", c.Picker.PageLimit))
	}
	if c.Picker.RefreshConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("picker.refresh_concurrency must be positive, got %d", c.Picker.RefreshConcurrency))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// UsesCatalog reports whether the offline catalog is the data source.
func (c Config) UsesCatalog() bool {
	return c.Catalog.Path != ""
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
