package export

import (
	"fmt"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/treepick/pkg/model"
)

// Diagram geometry, in pixels. Glyph cells match basicfont.Face7x13 so the
// SVG and PNG renderings line up.
const (
	margin    = 16
	rowHeight = 22
	indent    = 20
	cellWidth = 7
	maxLabel  = 60
)

// row is one line of the diagram.
type row struct {
	x, y   int
	label  string
	kind   model.Kind
	header bool
	parent int // index of the parent row, -1 for top level
	entry  Entry
}

type diagram struct {
	rows          []row
	width, height int
}

// layout places every entry of snap on its own row, sections first.
func layout(snap Snapshot) diagram {
	var d diagram
	add := func(r row) int {
		r.y = margin + len(d.rows)*rowHeight
		d.rows = append(d.rows, r)
		if w := r.x + runewidth.StringWidth(r.label)*cellWidth + margin; w > d.width {
			d.width = w
		}
		return len(d.rows) - 1
	}
	var place func(e Entry, depth, parent int)
	place = func(e Entry, depth, parent int) {
		label := e.Name
		if e.Kind != model.KindSection && e.Kind != model.KindTruncated {
			label = kindGlyph(e.Kind) + " " + label
		}
		if e.Selected {
			label = "[x] " + label
		}
		i := add(row{
			x:      margin + (depth+1)*indent,
			label:  runewidth.Truncate(label, maxLabel, "..."),
			kind:   e.Kind,
			parent: parent,
			entry:  e,
		})
		for _, c := range e.Children {
			place(c, depth+1, i)
		}
	}
	for _, sec := range snap.Sections {
		h := add(row{x: margin, label: sec.PickerID, header: true, parent: -1})
		for _, r := range sec.Roots {
			place(r, 0, h)
		}
	}
	d.height = margin*2 + len(d.rows)*rowHeight
	if d.width < 200 {
		d.width = 200
	}
	return d
}

func kindGlyph(k model.Kind) string {
	switch k {
	case model.KindProject:
		return "[P]"
	case model.KindFilterGroup:
		return "[F]"
	case model.KindCollection:
		return "[C]"
	case model.KindDirectory:
		return "[D]"
	case model.KindWorkflow:
		return "[W]"
	case model.KindFile:
		return "-"
	}
	return ""
}

// kindColor matches the TUI palette.
func kindColor(k model.Kind) color.RGBA {
	switch k {
	case model.KindProject, model.KindSection:
		return color.RGBA{0x50, 0xa0, 0xf0, 0xff}
	case model.KindFilterGroup:
		return color.RGBA{0xb0, 0x80, 0xf0, 0xff}
	case model.KindCollection:
		return color.RGBA{0x40, 0xb0, 0x60, 0xff}
	case model.KindWorkflow:
		return color.RGBA{0xe0, 0x90, 0x30, 0xff}
	case model.KindTruncated:
		return color.RGBA{0xc0, 0x40, 0x40, 0xff}
	}
	return color.RGBA{0x40, 0x40, 0x40, 0xff}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// connector returns the elbow from row p down to row c.
func connector(p, c row) (x1, y1, xm, ym, x2 int) {
	x1 = p.x + indent/2
	y1 = p.y + rowHeight/2 + 4
	ym = c.y + rowHeight/2
	return x1, y1, x1, ym, c.x - 4
}

// WriteSVG renders snap as an indented tree diagram.
func WriteSVG(w io.Writer, snap Snapshot) error {
	d := layout(snap)
	canvas := svg.New(w)
	canvas.Start(d.width, d.height)
	canvas.Rect(0, 0, d.width, d.height, "fill:#ffffff")
	canvas.Gstyle("font-family:monospace;font-size:12px")
	for _, r := range d.rows {
		if r.parent >= 0 {
			x1, y1, xm, ym, x2 := connector(d.rows[r.parent], r)
			canvas.Line(x1, y1, xm, ym, "stroke:#b0b0b0")
			canvas.Line(xm, ym, x2, ym, "stroke:#b0b0b0")
		}
	}
	for _, r := range d.rows {
		baseline := r.y + rowHeight/2 + 4
		switch {
		case r.header:
			canvas.Text(r.x, baseline, r.label, "font-weight:bold;fill:#202020")
		default:
			style := "fill:" + hex(kindColor(r.kind))
			if r.entry.Active {
				canvas.Rect(r.x-2, r.y+2, runewidth.StringWidth(r.label)*cellWidth+4, rowHeight-4, "fill:#fff3b0")
				style += ";font-weight:bold"
			}
			if r.kind == model.KindTruncated {
				style += ";font-style:italic"
			}
			canvas.Text(r.x, baseline, r.label, style)
		}
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// WritePNG renders the diagram of WriteSVG as a PNG image.
func WritePNG(w io.Writer, snap Snapshot) error {
	d := layout(snap)
	dc := gg.NewContext(d.width, d.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetRGB255(0xb0, 0xb0, 0xb0)
	dc.SetLineWidth(1)
	for _, r := range d.rows {
		if r.parent < 0 {
			continue
		}
		x1, y1, xm, ym, x2 := connector(d.rows[r.parent], r)
		dc.DrawLine(float64(x1), float64(y1), float64(xm), float64(ym))
		dc.DrawLine(float64(xm), float64(ym), float64(x2), float64(ym))
		dc.Stroke()
	}
	for _, r := range d.rows {
		baseline := float64(r.y + rowHeight/2 + 4)
		if r.entry.Active {
			dc.SetRGB255(0xff, 0xf3, 0xb0)
			dc.DrawRectangle(float64(r.x-2), float64(r.y+2), float64(runewidth.StringWidth(r.label)*cellWidth+4), rowHeight-4)
			dc.Fill()
		}
		if r.header {
			dc.SetRGB255(0x20, 0x20, 0x20)
		} else {
			dc.SetColor(kindColor(r.kind))
		}
		dc.DrawString(r.label, float64(r.x), baseline)
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
