package document

import (
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// layoutConfig controls how positioned glyphs are grouped into cells and
// lines. Statement tables have tight row spacing and wide gutters between
// columns, so the defaults favor aggressive word merging within a row.
type layoutConfig struct {
	rowTolerance float64 // Y distance treated as the same row
	wordGap      float64 // multiple of font size treated as an intra-cell gap
	minWordGap   float64 // floor for the gap threshold in points
	columnGap    float64 // gap that separates two cells on the same row
}

func defaultLayoutConfig() layoutConfig {
	return layoutConfig{
		rowTolerance: 3.0,
		wordGap:      0.35,
		minWordGap:   2.0,
		columnGap:    8.0,
	}
}

// assemble turns one page's glyph stream into a RawPage: glyphs are grouped
// into rows by Y, merged into cells by X gaps, and rendered into plain lines.
func (lc layoutConfig) assemble(pageNum int, texts []pdf.Text) RawPage {
	raw := RawPage{Number: pageNum}

	filtered := texts[:0:0]
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return raw
	}

	rows := lc.groupIntoRows(filtered)
	for _, row := range rows {
		cells := lc.mergeRow(row)
		raw.Cells = append(raw.Cells, cells...)
		raw.Lines = append(raw.Lines, renderLine(cells))
	}
	return raw
}

// groupIntoRows buckets glyphs by Y coordinate within rowTolerance and
// returns the rows top-to-bottom (PDF Y grows upward, so higher Y first).
func (lc layoutConfig) groupIntoRows(texts []pdf.Text) [][]pdf.Text {
	type bucket struct {
		yMin, yMax float64
		texts      []pdf.Text
	}

	var buckets []bucket
	for _, t := range texts {
		placed := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-lc.rowTolerance && t.Y <= buckets[i].yMax+lc.rowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				if t.Y < buckets[i].yMin {
					buckets[i].yMin = t.Y
				}
				if t.Y > buckets[i].yMax {
					buckets[i].yMax = t.Y
				}
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		sort.SliceStable(b.texts, func(x, y int) bool {
			return b.texts[x].X < b.texts[y].X
		})
		rows[i] = b.texts
	}
	return rows
}

// mergeRow merges adjacent glyphs on one row into cells. A gap below the
// word threshold continues the current cell (inserting a space when it is
// wider than a glyph joint); a gap of columnGap or more starts a new cell.
func (lc layoutConfig) mergeRow(row []pdf.Text) []Cell {
	var cells []Cell
	var cur *Cell

	for _, t := range row {
		threshold := lc.wordGap * t.FontSize
		if threshold < lc.minWordGap {
			threshold = lc.minWordGap
		}

		if cur == nil {
			cells = append(cells, Cell{X: t.X, Y: t.Y, W: t.W, Text: t.S})
			cur = &cells[len(cells)-1]
			continue
		}

		gap := t.X - (cur.X + cur.W)
		switch {
		case gap >= lc.columnGap:
			cells = append(cells, Cell{X: t.X, Y: t.Y, W: t.W, Text: t.S})
			cur = &cells[len(cells)-1]
		case gap > threshold:
			cur.Text += " " + t.S
			cur.W = t.X + t.W - cur.X
		default:
			cur.Text += t.S
			cur.W = t.X + t.W - cur.X
		}
	}

	for i := range cells {
		cells[i].Text = strings.TrimSpace(cells[i].Text)
	}
	return cells
}

// renderLine joins a row's cells into a single text line, two spaces between
// cells so label/value pairs stay visually separable in dumps.
func renderLine(cells []Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Text
	}
	return strings.Join(parts, "  ")
}
