package document

import (
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyph(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
}

func TestAssembleGroupsRowsTopToBottom(t *testing.T) {
	lc := defaultLayoutConfig()

	// Two rows: "Дата" header high on the page, an amount below it.
	texts := []pdf.Text{
		glyph("1", 300, 700, 5),
		glyph("2", 305, 700, 5),
		glyph("Д", 50, 760, 6),
		glyph("ата", 56, 760, 14),
	}

	raw := lc.assemble(1, texts)
	require.Len(t, raw.Lines, 2)
	assert.Equal(t, "Дата", raw.Lines[0], "higher Y renders first")
	assert.Equal(t, "12", raw.Lines[1])
}

func TestMergeRowSplitsOnColumnGap(t *testing.T) {
	lc := defaultLayoutConfig()

	// "01.02.24" then a wide gutter, then "5 000,00" in the credit column.
	row := []pdf.Text{
		glyph("01.02.24", 40, 500, 40),
		glyph("5", 200, 500, 5),
		glyph("000,00", 209.5, 500, 30),
	}

	cells := lc.mergeRow(row)
	require.Len(t, cells, 2)
	assert.Equal(t, "01.02.24", cells[0].Text)
	assert.Equal(t, "5 000,00", cells[1].Text, "sub-column gap becomes a space")
	assert.InDelta(t, 200.0, cells[1].X, 0.001, "cell keeps its column X origin")
}

func TestMergeRowJoinsTightGlyphs(t *testing.T) {
	lc := defaultLayoutConfig()

	row := []pdf.Text{
		glyph("Пок", 40, 500, 15),
		glyph("упка", 55.5, 500, 20),
	}

	cells := lc.mergeRow(row)
	require.Len(t, cells, 1)
	assert.Equal(t, "Покупка", cells[0].Text)
}

func TestAssembleEmptyPage(t *testing.T) {
	lc := defaultLayoutConfig()
	raw := lc.assemble(3, []pdf.Text{glyph("  ", 0, 0, 1)})
	assert.Equal(t, 3, raw.Number)
	assert.Empty(t, raw.Cells)
	assert.Empty(t, raw.Lines)
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"D:20240131120000+06'00'", time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)},
		{"D:20240131", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePDFDate(tt.in), tt.in)
	}
}
