package writer

import (
	"fmt"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// gridRef identifies the anchor covering a logical grid position.
type gridRef struct {
	anchorRow, anchorCol int
	cell                 *models.Cell
}

// tableFrameXML emits a table item as a native table shape. The model's
// anchor-only span representation is expanded back into the hMerge/vMerge
// continuation cells the format requires.
func tableFrameXML(id int, t *models.Table, y int64, palette alerts.Palette) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/>`, id, id-1)
	b.WriteString(`<p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`)
	height := int64(len(t.Rows)) * rowHeight
	fmt.Fprintf(&b, `<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`,
		marginX, y, contentWidth, height)
	fmt.Fprintf(&b, `<a:graphic><a:graphicData uri=%q><a:tbl>`, tableGraphicURI)

	if t.HasHeader {
		b.WriteString(`<a:tblPr firstRow="1" bandRow="1"/>`)
	} else {
		b.WriteString(`<a:tblPr bandRow="1"/>`)
	}

	b.WriteString(`<a:tblGrid>`)
	for _, w := range columnWidths(t) {
		fmt.Fprintf(&b, `<a:gridCol w="%d"/>`, w)
	}
	b.WriteString(`</a:tblGrid>`)

	occ := occupancy(t)
	for r := range t.Rows {
		fmt.Fprintf(&b, `<a:tr h="%d">`, rowHeight)
		for c := 0; c < t.ColumnCount; c++ {
			b.WriteString(cellXML(occ, r, c, palette))
		}
		b.WriteString(`</a:tr>`)
	}

	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	return b.String()
}

// columnWidths returns the declared widths when they match the grid, an
// equal split of the content width otherwise.
func columnWidths(t *models.Table) []int64 {
	if len(t.ColumnWidths) == t.ColumnCount && t.ColumnCount > 0 {
		return t.ColumnWidths
	}
	n := t.ColumnCount
	if n == 0 {
		n = 1
	}
	widths := make([]int64, n)
	for i := range widths {
		widths[i] = int64(contentWidth) / int64(n)
	}
	return widths
}

// occupancy lays the anchor cells onto the logical grid, mirroring the
// extractor's cursor walk in the opposite direction.
func occupancy(t *models.Table) [][]gridRef {
	occ := make([][]gridRef, len(t.Rows))
	for r := range occ {
		occ[r] = make([]gridRef, t.ColumnCount)
	}
	for r := range t.Rows {
		c := 0
		for i := range t.Rows[r] {
			cell := &t.Rows[r][i]
			for c < t.ColumnCount && occ[r][c].cell != nil {
				c++
			}
			if c >= t.ColumnCount {
				break
			}
			rowSpan, colSpan := span(cell.RowSpan), span(cell.ColSpan)
			for dr := 0; dr < rowSpan && r+dr < len(t.Rows); dr++ {
				for dc := 0; dc < colSpan && c+dc < t.ColumnCount; dc++ {
					occ[r+dr][c+dc] = gridRef{anchorRow: r, anchorCol: c, cell: cell}
				}
			}
			c += colSpan
		}
	}
	return occ
}

func span(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// cellXML emits one a:tc: the anchor with its spans, text and fill, or a
// merge continuation for covered positions.
func cellXML(occ [][]gridRef, r, c int, palette alerts.Palette) string {
	ref := occ[r][c]
	if ref.cell == nil {
		return `<a:tc><a:txBody><a:bodyPr/><a:lstStyle/><a:p/></a:txBody><a:tcPr/></a:tc>`
	}
	if r != ref.anchorRow || c != ref.anchorCol {
		var attrs []string
		if ref.anchorCol < c {
			attrs = append(attrs, ` hMerge="1"`)
		}
		if ref.anchorRow < r {
			attrs = append(attrs, ` vMerge="1"`)
		}
		return fmt.Sprintf(`<a:tc%s><a:txBody><a:bodyPr/><a:lstStyle/><a:p/></a:txBody><a:tcPr/></a:tc>`,
			strings.Join(attrs, ""))
	}

	cell := ref.cell
	var b strings.Builder
	b.WriteString(`<a:tc`)
	if span(cell.ColSpan) > 1 {
		fmt.Fprintf(&b, ` gridSpan="%d"`, cell.ColSpan)
	}
	if span(cell.RowSpan) > 1 {
		fmt.Fprintf(&b, ` rowSpan="%d"`, cell.RowSpan)
	}
	b.WriteString(`><a:txBody><a:bodyPr/><a:lstStyle/>`)
	b.WriteString(paragraphsXML(cell.Text, cell.Style, palette))
	b.WriteString(`</a:txBody>`)
	if cell.Style.BackgroundColor != "" {
		fmt.Fprintf(&b, `<a:tcPr><a:solidFill><a:srgbClr val=%q/></a:solidFill></a:tcPr>`, cell.Style.BackgroundColor)
	} else {
		b.WriteString(`<a:tcPr/>`)
	}
	b.WriteString(`</a:tc>`)
	return b.String()
}

// paragraphsXML turns model text into a:p/a:r elements. Tier-tagged
// stretches become colored runs; newlines split paragraphs. Critical
// (red) runs are additionally bold, matching how the decks mark them.
func paragraphsXML(text string, base models.CellStyle, palette alerts.Palette) string {
	if palette == nil {
		palette = alerts.DefaultPalette()
	}
	type runSpec struct {
		text string
		tag  string
	}
	var paras [][]runSpec
	cur := []runSpec{}
	for _, seg := range alerts.Segments(text) {
		lines := strings.Split(seg.Text, "\n")
		for li, line := range lines {
			if li > 0 {
				paras = append(paras, cur)
				cur = []runSpec{}
			}
			if line != "" {
				cur = append(cur, runSpec{text: line, tag: seg.Tag})
			}
		}
	}
	paras = append(paras, cur)

	var b strings.Builder
	for _, para := range paras {
		if len(para) == 0 {
			b.WriteString(`<a:p><a:endParaRPr lang="en-US"/></a:p>`)
			continue
		}
		b.WriteString(`<a:p>`)
		for _, run := range para {
			b.WriteString(runXML(run.text, run.tag, base, palette))
		}
		b.WriteString(`</a:p>`)
	}
	return b.String()
}

func runXML(text, tag string, base models.CellStyle, palette alerts.Palette) string {
	var attrs strings.Builder
	if base.Bold || tag == alerts.TagRed {
		attrs.WriteString(` b="1"`)
	}
	if base.Italic {
		attrs.WriteString(` i="1"`)
	}
	if base.Underline {
		attrs.WriteString(` u="sng"`)
	}
	var b strings.Builder
	b.WriteString(`<a:r>`)
	if tag != "" {
		fmt.Fprintf(&b, `<a:rPr lang="en-US" dirty="0"%s><a:solidFill><a:srgbClr val=%q/></a:solidFill></a:rPr>`,
			attrs.String(), palette.Color(tag))
	} else {
		fmt.Fprintf(&b, `<a:rPr lang="en-US" dirty="0"%s/>`, attrs.String())
	}
	fmt.Fprintf(&b, `<a:t>%s</a:t></a:r>`, xmlEscape(text))
	return b.String()
}
