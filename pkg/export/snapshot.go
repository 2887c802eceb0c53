// Package export writes snapshots of picker trees as JSON, Markdown
// outlines, SVG diagrams and PNG images.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vanderheijden86/treepick/pkg/model"
	"github.com/vanderheijden86/treepick/pkg/picker"
	"github.com/vanderheijden86/treepick/pkg/tree"
)

// Entry is one node of an exported tree.
type Entry struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     model.Kind  `json:"kind"`
	Status   tree.Status `json:"status"`
	Expanded bool        `json:"expanded,omitempty"`
	Selected bool        `json:"selected,omitempty"`
	Active   bool        `json:"active,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Children []Entry     `json:"children,omitempty"`
}

// Section is the exported tree of one picker.
type Section struct {
	PickerID string  `json:"picker_id"`
	Roots    []Entry `json:"roots"`
}

// Snapshot is a point-in-time export of one or more pickers.
type Snapshot struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Sections    []Section `json:"sections"`
}

// Options controls what a snapshot includes.
type Options struct {
	Title string
	// Collapsed includes the loaded children of collapsed nodes. By default
	// only what a user would see on screen is exported.
	Collapsed bool
	Now       func() time.Time
}

// Build snapshots the given pickers of s. Pickers missing from the store
// are skipped.
func Build(s picker.State, pickerIDs []string, opts Options) Snapshot {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	snap := Snapshot{Title: opts.Title, GeneratedAt: now().UTC()}
	for _, id := range pickerIDs {
		if !s.Trees.Has(id) {
			continue
		}
		t := s.Trees.Tree(id)
		root, _ := t.Node(tree.RootID)
		sec := Section{PickerID: id}
		for _, cid := range root.ChildIDs {
			if e, ok := entry(t, cid, opts.Collapsed); ok {
				sec.Roots = append(sec.Roots, e)
			}
		}
		snap.Sections = append(snap.Sections, sec)
	}
	return snap
}

func entry(t picker.Tree, id string, collapsed bool) (Entry, bool) {
	n, ok := t.Node(id)
	if !ok {
		return Entry{}, false
	}
	e := Entry{
		ID:       n.ID,
		Status:   n.Status,
		Expanded: n.Expanded,
		Selected: n.Selected,
		Active:   n.Active,
	}
	if n.Value != nil {
		e.Name = n.Value.DisplayName()
		e.Kind = n.Value.Kind()
		if f, ok := n.Value.(model.CollectionFile); ok {
			e.Size = f.Size
		}
	}
	if n.Expanded || collapsed {
		for _, cid := range n.ChildIDs {
			if c, ok := entry(t, cid, collapsed); ok {
				e.Children = append(e.Children, c)
			}
		}
	}
	return e, true
}

// Walk visits every entry of the snapshot depth-first with its depth below
// the section root.
func (s Snapshot) Walk(fn func(sec Section, e Entry, depth int)) {
	var visit func(sec Section, e Entry, depth int)
	visit = func(sec Section, e Entry, depth int) {
		fn(sec, e, depth)
		for _, c := range e.Children {
			visit(sec, c, depth+1)
		}
	}
	for _, sec := range s.Sections {
		for _, r := range sec.Roots {
			visit(sec, r, 0)
		}
	}
}

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatMarkdown, FormatSVG, FormatPNG}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unknown export format %q (want one of %v)", s, Formats)
}

// Write renders snap to w in format f.
func Write(w io.Writer, f Format, snap Snapshot) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, snap)
	case FormatMarkdown:
		return WriteMarkdown(w, snap)
	case FormatSVG:
		return WriteSVG(w, snap)
	case FormatPNG:
		return WritePNG(w, snap)
	}
	return fmt.Errorf("unknown export format %q", f)
}
