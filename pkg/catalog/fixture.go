// Package catalog is an offline data source: a SQLite database seeded from
// a YAML fixture describing users, projects, collections and favorites.
// It serves the same loader interfaces as the REST client, so pickers can
// run against a frozen snapshot of a cluster.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// Fixture is the YAML document a catalog is built from.
type Fixture struct {
	UUIDPrefix      string              `yaml:"uuid_prefix"`
	User            model.User          `yaml:"user"`
	Users           []model.User        `yaml:"users,omitempty"`
	Projects        []model.Project     `yaml:"projects,omitempty"`
	Collections     []FixtureCollection `yaml:"collections,omitempty"`
	Workflows       []model.Workflow    `yaml:"workflows,omitempty"`
	Favorites       []string            `yaml:"favorites,omitempty"`
	PublicFavorites []string            `yaml:"public_favorites,omitempty"`
}

// FixtureCollection is a collection plus its files.
type FixtureCollection struct {
	model.Collection `yaml:",inline"`
	Files            []FixtureFile `yaml:"files,omitempty"`
}

// FixtureFile is one file of a fixture collection. Path is relative to the
// collection root ("reads/lane1.fq"); a trailing slash declares an empty
// directory.
type FixtureFile struct {
	Path string `yaml:"path"`
	Size int64  `yaml:"size,omitempty"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML. Unknown fields are rejected.
func ParseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	for i := range fx.Projects {
		if fx.Projects[i].GroupClass == "" {
			fx.Projects[i].GroupClass = model.GroupClassProject
		}
	}
	return fx, nil
}

// FilesOf expands the fixture paths of c into collection entries, adding
// every implied directory once.
func (c FixtureCollection) FilesOf() []model.CollectionFile {
	var out []model.CollectionFile
	seen := map[string]bool{}
	add := func(f model.CollectionFile) {
		if !seen[f.ResourceID()] {
			seen[f.ResourceID()] = true
			out = append(out, f)
		}
	}
	for _, ff := range c.Files {
		p := strings.Trim(ff.Path, "/")
		if p == "" {
			continue
		}
		isDir := strings.HasSuffix(ff.Path, "/")
		parts := strings.Split(p, "/")
		dir := ""
		for i, name := range parts {
			last := i == len(parts)-1
			f := model.CollectionFile{CollectionUUID: c.UUID, Path: dir, Name: name, Type: model.FileTypeDirectory}
			if last && !isDir {
				f.Type = model.FileTypeFile
				f.Size = ff.Size
			}
			add(f)
			dir += "/" + name
		}
	}
	return out
}

// MarshalFixture renders fx as fixture YAML.
func MarshalFixture(fx Fixture) ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return []byte(b.String()), nil
}
