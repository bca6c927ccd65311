package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
	"github.com/openlabollioules/ACRA/pkg/deck/opc"
)

// shapeInfo is one decoded p:sp: its placeholder identity and text.
type shapeInfo struct {
	phType    string
	phIdx     string
	hasPh     bool
	text      string
	formatted bool
}

// slideEntry preserves document order between text shapes and tables.
type slideEntry struct {
	shape *shapeInfo
	table *models.Table
}

// ParseSlide decodes one slide part into the model. n is the 1-based slide
// number, rels the slide's own relationships (image references). A syntax
// error in the XML is returned as-is; the caller decides how to degrade.
func ParseSlide(slideXML []byte, rels []opc.Relationship, n int, palette alerts.Palette) (*models.Slide, error) {
	var entries []slideEntry
	slideName := ""

	decoder := xml.NewDecoder(strings.NewReader(string(slideXML)))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "cSld":
			for _, attr := range se.Attr {
				if attr.Name.Local == "name" && attr.Value != "" {
					slideName = attr.Value
				}
			}
		case "sp":
			info := parseShape(decoder, palette)
			entries = append(entries, slideEntry{shape: &info})
		case "tbl":
			if t := parseTable(decoder, palette); t != nil {
				entries = append(entries, slideEntry{table: t})
			}
		case "pic":
			// Image order and identity come from the relationship part.
			skipElement(decoder)
		}
	}

	slide := &models.Slide{ID: n}
	slide.Title = resolveTitle(slideName, entries, n)

	for _, e := range entries {
		switch {
		case e.table != nil:
			slide.Items = append(slide.Items, models.NewTableItem(e.table))
		case e.shape != nil:
			if isTitleShape(e.shape, slide.Title) || e.shape.text == "" {
				continue
			}
			slide.Items = append(slide.Items, models.NewTextItem(e.shape.text, e.shape.formatted))
		}
	}

	for _, rel := range rels {
		if rel.IsImage() {
			slide.Items = append(slide.Items, models.NewImageItem(rel.Target, rel.ID))
		}
	}
	return slide, nil
}

// resolveTitle applies the title precedence: explicit slide name, typed
// title placeholder, idx-0 placeholder, first non-empty text, then the
// numbered fallback.
func resolveTitle(slideName string, entries []slideEntry, n int) string {
	if slideName != "" {
		return slideName
	}
	for _, e := range entries {
		if e.shape != nil && isTitlePlaceholder(e.shape.phType) && e.shape.text != "" {
			return e.shape.text
		}
	}
	for _, e := range entries {
		if e.shape != nil && isIndexZero(e.shape) && e.shape.text != "" {
			return e.shape.text
		}
	}
	for _, e := range entries {
		if e.shape != nil && e.shape.text != "" {
			return e.shape.text
		}
	}
	return fmt.Sprintf("Slide %d", n)
}

func isTitlePlaceholder(phType string) bool {
	return phType == "title" || phType == "ctrTitle"
}

// isIndexZero reports whether the shape is the index-0 placeholder. A
// ph element with no idx attribute defaults to index 0.
func isIndexZero(s *shapeInfo) bool {
	return s.hasPh && (s.phIdx == "0" || s.phIdx == "")
}

// isTitleShape reports whether a shape duplicates the resolved title and
// must be kept out of the body: typed or idx-0 title placeholders and any
// shape whose text is exactly the title.
func isTitleShape(s *shapeInfo, title string) bool {
	if isTitlePlaceholder(s.phType) {
		return true
	}
	if isIndexZero(s) {
		return true
	}
	return s.text != "" && s.text == title
}

// parseShape consumes a p:sp element: placeholder identity plus text body.
func parseShape(decoder *xml.Decoder, palette alerts.Palette) shapeInfo {
	var info shapeInfo
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
			case "ph":
				info.hasPh = true
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "type":
						info.phType = attr.Value
					case "idx":
						info.phIdx = attr.Value
					}
				}
			case "txBody":
				body := decodeTextBody(decoder, palette)
				depth--
				info.text = body.text
				info.formatted = body.formatted
			}
		case xml.EndElement:
			depth--
		}
	}
	return info
}
