// Package output serializes documents and project payloads to JSON.
package output

import (
	"encoding/json"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// DeckStructure is the slide-structure payload for one deck.
type DeckStructure struct {
	// Name is the deck file name.
	Name string `json:"name,omitempty"`
	// TotalSlides is the slide count.
	TotalSlides int `json:"total_slides"`
	// Slides is the full structured slide list.
	Slides []*models.Slide `json:"slides"`
}

// Describe builds the structure payload for a document. When withColor is
// false, tier tags are stripped so the payload carries plain text only.
func Describe(doc *models.Document, withColor bool) DeckStructure {
	ds := DeckStructure{
		Name:        doc.Name,
		TotalSlides: len(doc.Slides),
		Slides:      doc.Slides,
	}
	if withColor {
		return ds
	}
	stripped := make([]*models.Slide, len(doc.Slides))
	for i, s := range doc.Slides {
		cp := &models.Slide{ID: s.ID, Title: s.Title}
		for _, item := range s.Items {
			cp.Items = append(cp.Items, stripItem(item))
		}
		stripped[i] = cp
	}
	ds.Slides = stripped
	return ds
}

func stripItem(item *models.ContentItem) *models.ContentItem {
	switch item.Kind {
	case models.KindText:
		return models.NewTextItem(alerts.Strip(item.Text.Content), false)
	case models.KindTable:
		t := &models.Table{
			HasHeader:    item.Table.HasHeader,
			ColumnCount:  item.Table.ColumnCount,
			ColumnWidths: item.Table.ColumnWidths,
		}
		for _, row := range item.Table.Rows {
			nr := make(models.Row, len(row))
			for i, c := range row {
				nr[i] = c
				nr[i].Text = alerts.Strip(c.Text)
				nr[i].Formatted = false
			}
			t.Rows = append(t.Rows, nr)
		}
		return models.NewTableItem(t)
	default:
		return item
	}
}

// ToJSON marshals a payload, optionally indented.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
