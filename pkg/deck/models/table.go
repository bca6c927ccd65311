package models

// Table is a rectangular logical grid. Every Row covers exactly ColumnCount
// logical columns once spans are accounted for; the extractor pads sparse
// source rows to keep that invariant.
type Table struct {
	// Rows is the ordered row list.
	Rows []Row `json:"rows"`
	// HasHeader reports whether row 0 was detected as a header row.
	HasHeader bool `json:"has_header,omitempty"`
	// ColumnCount is the logical column count of the grid.
	ColumnCount int `json:"column_count"`
	// ColumnWidths holds declared column widths in EMU, nil when the source
	// declared no grid.
	ColumnWidths []int64 `json:"column_widths,omitempty"`
}

// Row is one table row.
type Row []Cell

// Cell is a grid cell. Spans are stored on the anchor cell only; covered
// positions are never materialized as cells.
type Cell struct {
	// Text is the cell content, possibly carrying tier color tags.
	Text string `json:"text"`
	// Formatted reports whether Text embeds color/style markup.
	Formatted bool `json:"formatted,omitempty"`
	// RowSpan is the number of rows this cell covers, >= 1.
	RowSpan int `json:"row_span,omitempty"`
	// ColSpan is the number of columns this cell covers, >= 1.
	ColSpan int `json:"col_span,omitempty"`
	// Style carries the cell-level style flags.
	Style CellStyle `json:"style,omitempty"`
}

// CellStyle holds the style flags the extractor models. Anything richer
// (gradients, borders) is dropped on round-trip.
type CellStyle struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
	// BackgroundColor is an RRGGBB hex value, empty for no explicit fill.
	BackgroundColor string `json:"background_color,omitempty"`
}

// EmptyCell returns a style-less span-1 cell, used for grid padding.
func EmptyCell() Cell {
	return Cell{RowSpan: 1, ColSpan: 1}
}

// Cell returns a pointer to the anchor cell at (row, col) counted over
// stored cells, not logical grid positions. The bool reports existence.
func (t *Table) Cell(row, col int) (*Cell, bool) {
	if row < 0 || row >= len(t.Rows) {
		return nil, false
	}
	if col < 0 || col >= len(t.Rows[row]) {
		return nil, false
	}
	return &t.Rows[row][col], true
}

// LogicalWidth returns the number of logical columns a row covers,
// span-weighted.
func (r Row) LogicalWidth() int {
	w := 0
	for _, c := range r {
		span := c.ColSpan
		if span < 1 {
			span = 1
		}
		w += span
	}
	return w
}
