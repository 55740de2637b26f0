package bank

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/abenov/bankstmt/internal/domain/document"
	"github.com/abenov/bankstmt/internal/domain/normalizer"
)

// rowTolerance matches the loader's row grouping so table rows rebuilt
// here line up with the cells the loader produced.
const rowTolerance = 3.0

// tableColumn anchors one logical column at the X position of its header
// label cell.
type tableColumn struct {
	label string
	x     float64
}

// tableLayout is the column geometry recovered from a matched header row.
// It survives across continuation pages that repeat no header.
type tableLayout struct {
	cols []tableColumn
}

// tableSpec declares the table shape one bank prints. required[0] must be
// the date column; a data row with an empty date cell is treated as a
// wrapped continuation of the previous row's wrapLabel column.
type tableSpec struct {
	bank      string
	required  []string
	optional  []string
	stop      []string
	wrapLabel string

	// mapRow converts one mapped data row into a transaction. get returns
	// the joined cell text under a column label, "" when absent.
	mapRow func(page int, get func(label string) string) (RawTransaction, error)
}

// extractTable runs spec over all pages: locates the header row, maps data
// rows through the recovered column geometry, stitches continuation pages,
// and merges wrapped description rows. No matching header on any page is a
// layout mismatch.
func extractTable(spec tableSpec, pages []document.RawPage) ([]RawTransaction, error) {
	var (
		txs    []RawTransaction
		layout *tableLayout
	)

	for _, page := range pages {
		rows := splitRows(page.Cells)
		start := 0
		if idx, l := findHeaderRow(rows, spec); l != nil {
			layout = l
			start = idx + 1
		} else if layout == nil {
			// table may start on a later page
			continue
		}

		for i := start; i < len(rows); i++ {
			row := rows[i]
			if matchesAny(rowText(row), spec.stop) {
				return finish(txs, spec, layout)
			}

			get := layout.mapRow(row)
			if strings.TrimSpace(get(spec.required[0])) == "" {
				// wrapped description line or page furniture
				if frag := get(spec.wrapLabel); frag != "" && len(txs) > 0 {
					last := &txs[len(txs)-1]
					last.Description = normalizer.JoinWrapped([]string{last.Description, frag})
				}
				continue
			}

			tx, err := spec.mapRow(page.Number, get)
			if err != nil {
				return nil, err
			}
			tx.Page = page.Number
			txs = append(txs, tx)
		}
	}

	return finish(txs, spec, layout)
}

func finish(txs []RawTransaction, spec tableSpec, layout *tableLayout) ([]RawTransaction, error) {
	if layout == nil {
		return nil, &LayoutError{Bank: spec.bank, Anchor: strings.Join(spec.required, " | "), Page: 1}
	}
	return txs, nil
}

// findHeaderRow scans rows for one that contains every required column
// label. Longer labels claim cells first so "Дата" never steals the cell
// belonging to "Дата проведения операции".
func findHeaderRow(rows [][]document.Cell, spec tableSpec) (int, *tableLayout) {
	type cand struct {
		label    string
		required bool
	}
	cands := make([]cand, 0, len(spec.required)+len(spec.optional))
	for _, l := range spec.required {
		cands = append(cands, cand{l, true})
	}
	for _, l := range spec.optional {
		cands = append(cands, cand{l, false})
	}
	sort.SliceStable(cands, func(i, j int) bool { return len(cands[i].label) > len(cands[j].label) })

	for idx, row := range rows {
		claimed := make([]bool, len(row))
		var cols []tableColumn
		matched := 0
		for _, c := range cands {
			norm := normalizeLabel(c.label)
			for i, cell := range row {
				if claimed[i] || !strings.Contains(normalizeLabel(cell.Text), norm) {
					continue
				}
				claimed[i] = true
				cols = append(cols, tableColumn{label: c.label, x: cell.X})
				if c.required {
					matched++
				}
				break
			}
		}
		if matched == len(spec.required) {
			sort.Slice(cols, func(i, j int) bool { return cols[i].x < cols[j].x })
			return idx, &tableLayout{cols: cols}
		}
	}
	return 0, nil
}

// mapRow assigns each cell to the column with the nearest header anchor
// and returns an accessor over the joined per-column text.
func (t *tableLayout) mapRow(row []document.Cell) func(label string) string {
	vals := make(map[string][]string, len(t.cols))
	for _, cell := range row {
		best := ""
		bestDist := math.Inf(1)
		for _, col := range t.cols {
			if d := math.Abs(col.x - cell.X); d < bestDist {
				best, bestDist = col.label, d
			}
		}
		if best != "" {
			vals[best] = append(vals[best], cell.Text)
		}
	}
	return func(label string) string {
		return strings.TrimSpace(strings.Join(vals[label], " "))
	}
}

// splitRows groups a page's cells into visual rows, top to bottom, cells
// left to right within a row.
func splitRows(cells []document.Cell) [][]document.Cell {
	if len(cells) == 0 {
		return nil
	}
	sorted := make([]document.Cell, len(cells))
	copy(sorted, cells)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > rowTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows [][]document.Cell
	current := []document.Cell{sorted[0]}
	for _, c := range sorted[1:] {
		if math.Abs(c.Y-current[0].Y) > rowTolerance {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, c)
	}
	return append(rows, current)
}

func rowText(row []document.Cell) string {
	parts := make([]string, len(row))
	for i, c := range row {
		parts[i] = c.Text
	}
	return strings.Join(parts, " ")
}

func matchesAny(text string, labels []string) bool {
	norm := normalizeLabel(text)
	for _, l := range labels {
		if strings.Contains(norm, normalizeLabel(l)) {
			return true
		}
	}
	return false
}

func normalizeLabel(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// findSubmatch returns the submatches of the first line matching re,
// nil when no line matches.
func findSubmatch(lines []string, re *regexp.Regexp) []string {
	for _, ln := range lines {
		if m := re.FindStringSubmatch(ln); m != nil {
			return m
		}
	}
	return nil
}

// findSubmatchTail searches all pages back to front: statement footers
// live on the last populated page.
func findSubmatchTail(pages []document.RawPage, re *regexp.Regexp) []string {
	for i := len(pages) - 1; i >= 0; i-- {
		for j := len(pages[i].Lines) - 1; j >= 0; j-- {
			if m := re.FindStringSubmatch(pages[i].Lines[j]); m != nil {
				return m
			}
		}
	}
	return nil
}

// amountGroup is the regex fragment matching a printed amount: digits with
// optional sign, grouping spaces (incl. NBSP via \p{Zs}) and , or .
const amountGroup = `(-?\d[\d.,\p{Zs}]*)`
