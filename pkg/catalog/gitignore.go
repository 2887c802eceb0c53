package catalog

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const gitignoreHeader = "# treepick catalog cache"

// EnsureIgnored makes sure dir is ignored by the .gitignore in projectDir,
// creating the file when needed. Calling it again is a no-op.
func EnsureIgnored(projectDir, dir string) error {
	if projectDir == "" {
		var err error
		if projectDir, err = os.Getwd(); err != nil {
			return err
		}
	}
	path := filepath.Join(projectDir, ".gitignore")

	present, err := ignores(path, dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if present {
		return nil
	}
	return appendIgnore(path, strings.TrimSuffix(dir, "/")+"/")
}

// ignores reports whether a line of the file at path covers dir.
func ignores(path, dir string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if coversDir(line, dir) {
			return true, nil
		}
	}
	return false, sc.Err()
}

// coversDir matches the usual spellings of a directory ignore rule.
func coversDir(line, dir string) bool {
	line = strings.TrimPrefix(line, "/")
	dir = strings.Trim(dir, "/")
	for _, suffix := range []string{"", "/", "/*", "/**", "/**/*"} {
		if line == dir+suffix {
			return true
		}
	}
	return false
}

func appendIgnore(path, pattern string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	var sb strings.Builder
	if len(content) > 0 {
		if content[len(content)-1] != '\n' {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(gitignoreHeader + "\n" + pattern + "\n")
	_, err = f.WriteString(sb.String())
	return err
}
