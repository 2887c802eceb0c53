package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FixtureSuffixes mark catalog fixture files.
var FixtureSuffixes = []string{".fixture.yaml", ".fixture.yml"}

// IsFixtureFile reports whether name looks like a catalog fixture.
func IsFixtureFile(name string) bool {
	for _, s := range FixtureSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// DiscoverFixtures walks root up to maxDepth levels deep and returns the
// fixture files found, sorted. Hidden directories are skipped.
func DiscoverFixtures(root string, maxDepth int) []string {
	root = expandHome(root)
	if maxDepth <= 0 {
		maxDepth = 3
	}
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if IsFixtureFile(d.Name()) {
				results = append(results, path)
			}
			return nil
		}

		// Check depth
		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if currentDepth >= maxDepth {
			return filepath.SkipDir
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return nil
	})

	sort.Strings(results)
	return results
}

// FindProjectFile walks up from dir looking for a .treepick.yaml file.
func FindProjectFile(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
