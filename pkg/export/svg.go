package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treegrid/pkg/grid"
)

// SVG layout, in pixels. One terminal cell maps to cellWidth.
const (
	cellWidth     = 8
	rowHeight     = 22
	titleHeight   = 32
	padding       = 12
	checkboxCells = 4
	textBaseline  = 15
)

// SVG palette, matching the terminal theme.
const (
	svgBackground = "#282A36"
	svgHeader     = "#44475A"
	svgSelected   = "#3B3F58"
	svgBorder     = "#6272A4"
	svgText       = "#F8F8F2"
	svgMuted      = "#A0A0A0"
	svgAccent     = "#BD93F9"
)

// WriteSVG draws the snapshot as an SVG table.
func WriteSVG(w io.Writer, snap Snapshot) error {
	widths := make([]int, len(snap.Columns))
	tableWidth := checkboxCells * cellWidth
	for i, c := range snap.Columns {
		widths[i] = c.Width
		if widths[i] <= 0 {
			widths[i] = runewidth.StringWidth(c.Title) + 2
		}
		tableWidth += widths[i] * cellWidth
	}

	width := tableWidth + 2*padding
	height := titleHeight + rowHeight*(len(snap.Rows)+1) + 2*padding

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+svgBackground)
	canvas.Text(padding, padding+16, snap.Title, fmt.Sprintf("fill:%s;font-family:monospace;font-size:16px;font-weight:bold", svgAccent))

	top := padding + titleHeight
	canvas.Rect(padding, top, tableWidth, rowHeight, "fill:"+svgHeader)
	x := padding + checkboxCells*cellWidth
	for i, c := range snap.Columns {
		canvas.Text(x+4, top+textBaseline, fit(c.Title, widths[i]), textStyle(svgText, true))
		x += widths[i] * cellWidth
	}

	for i, r := range snap.Rows {
		y := top + rowHeight*(i+1)
		if snap.States[i] == grid.Checked {
			canvas.Rect(padding, y, tableWidth, rowHeight, "fill:"+svgSelected)
		}
		canvas.Line(padding, y, padding+tableWidth, y, "stroke:"+svgBorder+";stroke-width:0.5")
		canvas.Text(padding+4, y+textBaseline, Checkbox(snap.States[i]), textStyle(svgMuted, false))

		x := padding + checkboxCells*cellWidth
		for col := range snap.Columns {
			color := svgText
			if r.Depth > 0 && col > 0 {
				color = svgMuted
			}
			canvas.Text(x+4, y+textBaseline, fit(snap.Cell(i, col), widths[col]), textStyle(color, false))
			x += widths[col] * cellWidth
		}
	}

	canvas.Rect(padding, top, tableWidth, rowHeight*(len(snap.Rows)+1), "fill:none;stroke:"+svgBorder)
	canvas.End()
	return nil
}

func textStyle(color string, bold bool) string {
	style := "fill:" + color + ";font-family:monospace;font-size:13px;white-space:pre"
	if bold {
		style += ";font-weight:bold"
	}
	return style
}

// fit truncates s to the given number of terminal cells, leaving one cell
// of breathing room.
func fit(s string, cells int) string {
	if cells <= 1 {
		return ""
	}
	return runewidth.Truncate(s, cells-1, "…")
}

// SaveSVGToFile writes an SVG snapshot of s to a file
func SaveSVGToFile(s *grid.Session, title, filename string) error {
	var buf bytes.Buffer
	if err := WriteSVG(&buf, NewSnapshot(s, title)); err != nil {
		return err
	}
	return os.WriteFile(filename, buf.Bytes(), 0644)
}
