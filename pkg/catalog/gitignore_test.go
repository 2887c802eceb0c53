package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCoversDir(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{".treepick", true},
		{".treepick/", true},
		{".treepick/*", true},
		{".treepick/**", true},
		{".treepick/**/*", true},
		{"/.treepick/", true},

		{"", false},
		{".treepick2", false},
		{"treepick/", false},
		{"*.treepick", false},
		{"node_modules/", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := coversDir(tt.line, ".treepick"); got != tt.want {
				t.Errorf("coversDir(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestEnsureIgnored(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{
			name: "creates file",
			want: "# treepick catalog cache\n.treepick/\n",
		},
		{
			name:     "appends after content without trailing newline",
			existing: ptr("*.log"),
			want:     "*.log\n\n# treepick catalog cache\n.treepick/\n",
		},
		{
			name:     "appends after content",
			existing: ptr("*.log\n"),
			want:     "*.log\n\n# treepick catalog cache\n.treepick/\n",
		},
		{
			name:     "already ignored",
			existing: ptr("/.treepick\n"),
			want:     "/.treepick\n",
		},
		{
			name:     "commented rule does not count",
			existing: ptr("# .treepick/\n"),
			want:     "# .treepick/\n\n# treepick catalog cache\n.treepick/\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if err := EnsureIgnored(dir, ".treepick"); err != nil {
				t.Fatalf("EnsureIgnored: %v", err)
			}
			if err := EnsureIgnored(dir, ".treepick"); err != nil {
				t.Fatalf("second EnsureIgnored: %v", err)
			}
			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("content = %q, want %q", got, tt.want)
			}
			if n := strings.Count(string(got), "# treepick catalog cache"); n > 1 {
				t.Errorf("header written %d times", n)
			}
		})
	}
}

func ptr(s string) *string { return &s }
