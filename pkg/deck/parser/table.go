package parser

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// rawCell is a decoded a:tc before grid accounting. Merge continuations
// are kept here so the cursor logic can consume them, but they never
// become logical cells.
type rawCell struct {
	cell   models.Cell
	hMerge bool
	vMerge bool
}

// ExtractTables decodes every table element in a slide's XML, in document
// order. Tables with no rows are omitted.
func ExtractTables(slideXML []byte, palette alerts.Palette) []*models.Table {
	var tables []*models.Table
	decoder := xml.NewDecoder(strings.NewReader(string(slideXML)))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "tbl" {
			if t := parseTable(decoder, palette); t != nil {
				tables = append(tables, t)
			}
		}
	}
	return tables
}

// parseTable consumes an a:tbl element and builds a rectangular logical
// grid from it.
func parseTable(decoder *xml.Decoder, palette alerts.Palette) *models.Table {
	var widths []int64
	var rawRows [][]rawCell

	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "gridCol":
				for _, attr := range t.Attr {
					if attr.Name.Local == "w" {
						if w, err := strconv.ParseInt(attr.Value, 10, 64); err == nil {
							widths = append(widths, w)
						}
					}
				}
			case "tr":
				rawRows = append(rawRows, parseTableRow(decoder, palette))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	if len(rawRows) == 0 {
		return nil
	}

	columnCount := len(widths)
	if columnCount == 0 {
		// No declared grid: widest row wins, span-weighted.
		for _, row := range rawRows {
			w := 0
			for _, rc := range row {
				if rc.hMerge || rc.vMerge {
					continue
				}
				w += rc.cell.ColSpan
			}
			if w > columnCount {
				columnCount = w
			}
		}
	}

	table := &models.Table{
		ColumnCount:  columnCount,
		ColumnWidths: widths,
		Rows:         buildGrid(rawRows, columnCount),
	}
	table.HasHeader = detectHeader(table)
	return table
}

// buildGrid lays raw rows onto the logical grid: merge continuations are
// consumed, row spans from earlier rows claim their columns, and each row
// is padded with empty span-1 cells up to columnCount.
func buildGrid(rawRows [][]rawCell, columnCount int) []models.Row {
	rows := make([]models.Row, 0, len(rawRows))
	// pending[c] is the number of later rows still covered by a row-span
	// anchored above column c.
	pending := make([]int, columnCount)

	for _, rawRow := range rawRows {
		row := models.Row{}
		cursor := 0
		consume := func() {
			for cursor < columnCount && pending[cursor] > 0 {
				pending[cursor]--
				cursor++
			}
		}
		consume()
		for _, rc := range rawRow {
			if rc.hMerge || rc.vMerge {
				// Covered position; the anchor already advanced the cursor
				// (col spans) or claimed it via pending (row spans).
				continue
			}
			if cursor >= columnCount {
				break
			}
			cell := rc.cell
			if cell.ColSpan > columnCount-cursor {
				cell.ColSpan = columnCount - cursor
			}
			if cell.RowSpan > 1 {
				for c := cursor; c < cursor+cell.ColSpan && c < columnCount; c++ {
					pending[c] = cell.RowSpan - 1
				}
			}
			row = append(row, cell)
			cursor += cell.ColSpan
			consume()
		}
		for cursor < columnCount {
			if pending[cursor] > 0 {
				pending[cursor]--
				cursor++
				continue
			}
			row = append(row, models.EmptyCell())
			cursor++
		}
		rows = append(rows, row)
	}
	return rows
}

// parseTableRow consumes an a:tr element.
func parseTableRow(decoder *xml.Decoder, palette alerts.Palette) []rawCell {
	var cells []rawCell
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "tc" {
				cells = append(cells, parseTableCell(decoder, t, palette))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return cells
}

// parseTableCell consumes an a:tc element: spans, text body and fill.
func parseTableCell(decoder *xml.Decoder, start xml.StartElement, palette alerts.Palette) rawCell {
	rc := rawCell{cell: models.EmptyCell()}
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "gridSpan":
			if n, err := strconv.Atoi(attr.Value); err == nil && n > 1 {
				rc.cell.ColSpan = n
			}
		case "rowSpan":
			if n, err := strconv.Atoi(attr.Value); err == nil && n > 1 {
				rc.cell.RowSpan = n
			}
		case "hMerge":
			rc.hMerge = attr.Value == "1" || attr.Value == "true"
		case "vMerge":
			rc.vMerge = attr.Value == "1" || attr.Value == "true"
		}
	}

	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "txBody":
				body := decodeTextBody(decoder, palette)
				depth--
				rc.cell.Text = body.text
				rc.cell.Formatted = body.formatted
				rc.cell.Style.Bold = rc.cell.Style.Bold || body.style.Bold
				rc.cell.Style.Italic = rc.cell.Style.Italic || body.style.Italic
				rc.cell.Style.Underline = rc.cell.Style.Underline || body.style.Underline
			case "tcPr":
				if fill := readCellFill(decoder); fill != "" {
					rc.cell.Style.BackgroundColor = fill
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return rc
}

// readCellFill consumes a tcPr element and returns its solid-fill color.
func readCellFill(decoder *xml.Decoder) string {
	fill := ""
	depth := 1
	inFill := 0
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "solidFill":
				// Only a direct child of tcPr is the cell fill; deeper
				// fills belong to borders.
				if depth == 2 {
					inFill++
				}
			case "srgbClr":
				if inFill > 0 && fill == "" {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							fill = strings.ToUpper(attr.Value)
						}
					}
				}
			}
		case xml.EndElement:
			if t.Name.Local == "solidFill" && depth == 2 {
				inFill--
			}
			depth--
		}
	}
	return fill
}

// detectHeader flags row 0 as a header when any of its cells is bold or
// carries an explicit fill.
func detectHeader(t *models.Table) bool {
	if len(t.Rows) == 0 {
		return false
	}
	for _, c := range t.Rows[0] {
		if c.Style.Bold || c.Style.BackgroundColor != "" {
			return true
		}
	}
	return false
}
