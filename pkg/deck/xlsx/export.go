// Package xlsx exports a document's tables to an Excel workbook, one
// sheet per slide. Tier tags are stripped; spans become merged ranges.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// Export builds the workbook bytes. Slides without tables are skipped;
// a deck with no tables at all still yields a valid workbook with an
// empty summary sheet.
func Export(doc *models.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"44546A"}},
	})
	if err != nil {
		return nil, err
	}

	wrote := false
	for _, slide := range doc.Slides {
		tables := slideTables(slide)
		if len(tables) == 0 {
			continue
		}
		sheet := fmt.Sprintf("Slide %d", slide.ID)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		wrote = true

		rowCursor := 1
		if err := setCell(f, sheet, 1, rowCursor, slide.Title); err != nil {
			return nil, err
		}
		rowCursor += 2

		for _, t := range tables {
			if err := writeTable(f, sheet, t, rowCursor, headerStyle); err != nil {
				return nil, err
			}
			rowCursor += len(t.Rows) + 2
		}
	}

	if wrote {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func slideTables(slide *models.Slide) []*models.Table {
	var tables []*models.Table
	for _, item := range slide.Items {
		if item.Kind == models.KindTable {
			tables = append(tables, item.Table)
		}
	}
	return tables
}

// writeTable lays one table onto the sheet starting at startRow, row
// spans carried across rows the same way the extractor tracks them.
func writeTable(f *excelize.File, sheet string, t *models.Table, startRow, headerStyle int) error {
	pending := make([]int, t.ColumnCount)
	for r, row := range t.Rows {
		sheetRow := startRow + r
		cursor := 0
		consume := func() {
			for cursor < t.ColumnCount && pending[cursor] > 0 {
				pending[cursor]--
				cursor++
			}
		}
		consume()
		for _, cell := range row {
			if cursor >= t.ColumnCount {
				break
			}
			col := cursor + 1
			if err := setCell(f, sheet, col, sheetRow, alerts.Strip(cell.Text)); err != nil {
				return err
			}
			colSpan, rowSpan := spanOf(cell.ColSpan), spanOf(cell.RowSpan)
			if colSpan > 1 || rowSpan > 1 {
				start, _ := excelize.CoordinatesToCellName(col, sheetRow)
				end, _ := excelize.CoordinatesToCellName(col+colSpan-1, sheetRow+rowSpan-1)
				if err := f.MergeCell(sheet, start, end); err != nil {
					return err
				}
			}
			if rowSpan > 1 {
				for c := cursor; c < cursor+colSpan && c < t.ColumnCount; c++ {
					pending[c] = rowSpan - 1
				}
			}
			if r == 0 && t.HasHeader {
				name, _ := excelize.CoordinatesToCellName(col, sheetRow)
				if err := f.SetCellStyle(sheet, name, name, headerStyle); err != nil {
					return err
				}
			}
			cursor += colSpan
			consume()
		}
	}
	return nil
}

func spanOf(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, name, value)
}
