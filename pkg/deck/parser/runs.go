// Package parser turns slide XML into the structured document model.
package parser

import (
	"encoding/xml"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// textRun is one decoded a:r with the style facts the model keeps.
type textRun struct {
	text      string
	bold      bool
	italic    bool
	underline bool
	color     string // RRGGBB from the run's solid fill, empty for default
}

// decodedText is the result of flattening a text body.
type decodedText struct {
	// text has paragraphs joined by newlines; runs whose color maps to a
	// tier carry that tier's tags.
	text string
	// formatted reports whether any tier tag was emitted.
	formatted bool
	// style aggregates the run style flags over the whole body.
	style models.CellStyle
}

// decodeTextBody consumes a txBody element (slide shape or table cell) and
// flattens it. Colored runs matching the palette are wrapped in their tier
// tag so downstream classification is a pure pattern match.
func decodeTextBody(decoder *xml.Decoder, palette alerts.Palette) decodedText {
	var out decodedText
	var paragraphs []string
	depth := 1
	var para strings.Builder
	inPara := false

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "r", "fld":
				run := decodeRun(decoder)
				depth--
				out.style.Bold = out.style.Bold || run.bold
				out.style.Italic = out.style.Italic || run.italic
				out.style.Underline = out.style.Underline || run.underline
				if tag, ok := palette.TagForColor(run.color); ok && run.text != "" {
					para.WriteString("<" + tag + ">" + run.text + "</" + tag + ">")
					out.formatted = true
				} else {
					para.WriteString(run.text)
				}
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "p" && inPara {
				paragraphs = append(paragraphs, para.String())
				inPara = false
			}
		}
	}
	out.text = strings.TrimSpace(strings.Join(paragraphs, "\n"))
	return out
}

// decodeRun consumes an a:r element: its run properties and text.
func decodeRun(decoder *xml.Decoder) textRun {
	var run textRun
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
			case "rPr", "defRPr":
				readRunProps(decoder, t, &run)
				depth--
			case "t":
				if txt, err := readElementText(decoder); err == nil {
					run.text += txt
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return run
}

// readRunProps consumes an rPr element: bold/italic/underline attributes
// plus the first solid-fill color.
func readRunProps(decoder *xml.Decoder, start xml.StartElement, run *textRun) {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "b":
			run.bold = attr.Value == "1" || attr.Value == "true"
		case "i":
			run.italic = attr.Value == "1" || attr.Value == "true"
		case "u":
			run.underline = attr.Value != "" && attr.Value != "none"
		}
	}
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
				// The font color is the direct-child fill; fills nested in
				// ln or effects are not.
				if depth == 2 {
					inFill++
				}
			case "srgbClr":
				if inFill > 0 && run.color == "" {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							run.color = strings.ToUpper(attr.Value)
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
}

// readElementText consumes an element and returns its concatenated
// character data.
func readElementText(decoder *xml.Decoder) (string, error) {
	var text string
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text, err
		}
		switch t := token.(type) {
		case xml.CharData:
			text += string(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text, nil
}

// skipElement consumes an element without interpreting it.
func skipElement(decoder *xml.Decoder) {
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return
		}
		switch token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
}
