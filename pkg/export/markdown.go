package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// GenerateMarkdown renders snap as a nested outline, one heading per
// picker. Selected entries are checked, the active entry is bold.
func GenerateMarkdown(snap Snapshot) string {
	var sb strings.Builder

	title := snap.Title
	if title == "" {
		title = "Picker snapshot"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", snap.GeneratedAt.Format(time.RFC1123)))

	// Summary
	kinds := map[model.Kind]int{}
	total, selected := 0, 0
	snap.Walk(func(_ Section, e Entry, _ int) {
		if e.Kind == model.KindTruncated {
			return
		}
		total++
		kinds[e.Kind]++
		if e.Selected {
			selected++
		}
	})
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total**: %d\n", total))
	sb.WriteString(fmt.Sprintf("- **Selected**: %d\n", selected))
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	for _, k := range names {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", k, kinds[model.Kind(k)]))
	}
	sb.WriteString("\n")

	for _, sec := range snap.Sections {
		sb.WriteString(fmt.Sprintf("## %s\n\n", sec.PickerID))
		if len(sec.Roots) == 0 {
			sb.WriteString("_empty_\n\n")
			continue
		}
		for _, r := range sec.Roots {
			writeOutline(&sb, r, 0)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeOutline(sb *strings.Builder, e Entry, depth int) {
	indent := strings.Repeat("  ", depth)
	if e.Kind == model.KindTruncated {
		sb.WriteString(fmt.Sprintf("%s- _%s_\n", indent, mdEscape(e.Name)))
		return
	}
	box := "[ ]"
	if e.Selected {
		box = "[x]"
	}
	name := mdEscape(e.Name)
	if e.Active {
		name = "**" + name + "**"
	}
	line := fmt.Sprintf("%s- %s %s", indent, box, name)
	if e.Kind != model.KindSection {
		line += fmt.Sprintf(" `%s` (%s)", e.ID, e.Kind)
	}
	if e.Size > 0 {
		line += fmt.Sprintf(" %d bytes", e.Size)
	}
	sb.WriteString(line + "\n")
	for _, c := range e.Children {
		writeOutline(sb, c, depth+1)
	}
}

func mdEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)
	return r.Replace(s)
}

// WriteMarkdown writes the Markdown outline of snap.
func WriteMarkdown(w io.Writer, snap Snapshot) error {
	_, err := io.WriteString(w, GenerateMarkdown(snap))
	return err
}

// SaveToFile writes snap to filename, choosing the format from the
// extension.
func SaveToFile(snap Snapshot, filename string) error {
	ext := filename[strings.LastIndex(filename, ".")+1:]
	f, err := ParseFormat(ext)
	if err != nil {
		return err
	}
	out, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(out, f, snap); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
