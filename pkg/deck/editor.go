package deck

import (
	"log/slog"
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
)

// Editor applies coordinate-addressed edits to a Document. Coordinates
// are resolved at call time against the current tree and become stale
// after any structural change; callers re-resolve after inserting or
// deleting slides or rows. Validation happens before any mutation, so a
// failed edit leaves the Document untouched.
type Editor struct {
	doc    *models.Document
	logger *slog.Logger
}

// NewEditor wraps a Document for editing.
func NewEditor(doc *models.Document, opts Options) *Editor {
	return &Editor{doc: doc, logger: opts.logger()}
}

// EditTitle replaces a slide's title. On the first slide the title is
// mirrored into the project metadata.
func (e *Editor) EditTitle(slideIndex int, newText string) error {
	slide, err := e.slide(slideIndex)
	if err != nil {
		return err
	}
	slide.Title = newText
	if slideIndex == 0 && e.doc.Projects != nil {
		e.doc.Projects.Metadata.Title = newText
	}
	return nil
}

// EditText replaces a Text item's content. formatted is the caller's
// claim about embedded markup and is stored as given.
func (e *Editor) EditText(slideIndex, itemIndex int, newText string, formatted bool) error {
	item, err := e.item(slideIndex, itemIndex)
	if err != nil {
		return err
	}
	if item.Kind != models.KindText {
		return &OutOfRangeError{Slide: slideIndex, Item: itemIndex, What: "item is not text"}
	}
	item.Text.Content = newText
	item.Text.Formatted = formatted
	return nil
}

// EditCell replaces a table cell's text. On the activity table the edit
// also updates the project payload, keyed by the cell's logical column:
// column 0 renames the project (the record moves, never duplicates),
// column 1 replaces its narrative and reclassifies the alert tiers,
// columns >= 2 on the first data row replace the upcoming events. Header
// row edits touch the grid only.
func (e *Editor) EditCell(slideIndex, itemIndex, row, col int, newText string, formatted bool) error {
	item, err := e.item(slideIndex, itemIndex)
	if err != nil {
		return err
	}
	if item.Kind != models.KindTable {
		return &OutOfRangeError{Slide: slideIndex, Item: itemIndex, Row: row, Col: col, What: "item is not a table"}
	}
	table := item.Table
	cell, ok := table.Cell(row, col)
	if !ok {
		return &OutOfRangeError{Slide: slideIndex, Item: itemIndex, Row: row, Col: col, What: "cell does not exist"}
	}

	oldText := cell.Text
	cell.Text = newText
	cell.Formatted = formatted

	if row > 0 && e.isActivityTable(slideIndex, itemIndex) {
		e.applyProjectSideEffects(table, row, col, oldText, newText)
	}
	return nil
}

// applyProjectSideEffects keeps the ProjectRecord in sync with a data-row
// cell edit. Classification runs synchronously so the record never
// diverges from the grid.
func (e *Editor) applyProjectSideEffects(table *models.Table, row, col int, oldText, newText string) {
	rec := e.doc.Projects
	logicalCol := logicalColumn(table.Rows[row], col)
	switch {
	case logicalCol == 0:
		oldName := plainName(oldText)
		newName := plainName(newText)
		if oldName == "" {
			// Row gained a name: register a fresh project entry.
			if newName != "" && rec.Activities[newName] == nil {
				info := rowInformation(table.Rows[row])
				rec.Activities[newName] = &models.Activity{Information: info, Alerts: alerts.Classify(info)}
				rec.Order = append(rec.Order, newName)
			}
			return
		}
		if !rec.Rename(oldName, newName) {
			e.logger.Warn("project rename target not found", "project", oldName)
		}
	case logicalCol == 1:
		name := plainName(cellTextAt(table.Rows[row], 0))
		if act, ok := rec.Activities[name]; ok {
			act.Information = strings.TrimSpace(newText)
			act.Alerts = alerts.Classify(newText)
		}
	case logicalCol >= 2 && row == 1:
		rec.UpcomingEvents = strings.TrimSpace(alerts.Strip(newText))
	}
}

// InjectAlerts rewrites an activity's narrative from plain text plus an
// alert set, re-injecting tier markup, and pushes the result back into
// the grid cell. Phrases not found verbatim stay unmarked and are
// reported through an UnresolvedAnnotationError after the text is
// applied.
func (e *Editor) InjectAlerts(slideIndex, itemIndex, row int, plain string, set alerts.Set) error {
	marked, missing := alerts.InjectMarkup(plain, set)
	if err := e.EditCell(slideIndex, itemIndex, row, 1, marked, alerts.HasMarkup(marked)); err != nil {
		return err
	}
	if len(missing) > 0 {
		uerr := &UnresolvedAnnotationError{Phrases: missing}
		e.logger.Warn("alert markup incomplete", "error", uerr.Error())
		return uerr
	}
	return nil
}

// isActivityTable reports whether the addressed item is the table the
// ProjectRecord was derived from: the first table on the first slide.
func (e *Editor) isActivityTable(slideIndex, itemIndex int) bool {
	if e.doc.Projects == nil || slideIndex != 0 {
		return false
	}
	for i, item := range e.doc.Slides[0].Items {
		if item.Kind == models.KindTable {
			return i == itemIndex
		}
	}
	return false
}

func (e *Editor) slide(slideIndex int) (*models.Slide, error) {
	if slideIndex < 0 || slideIndex >= len(e.doc.Slides) {
		return nil, &OutOfRangeError{Slide: slideIndex, What: "slide does not exist"}
	}
	return e.doc.Slides[slideIndex], nil
}

func (e *Editor) item(slideIndex, itemIndex int) (*models.ContentItem, error) {
	slide, err := e.slide(slideIndex)
	if err != nil {
		return nil, err
	}
	if itemIndex < 0 || itemIndex >= len(slide.Items) {
		return nil, &OutOfRangeError{Slide: slideIndex, Item: itemIndex, What: "item does not exist"}
	}
	return slide.Items[itemIndex], nil
}

// logicalColumn maps a stored cell index to its logical grid column,
// span-weighted over the preceding cells.
func logicalColumn(row models.Row, col int) int {
	logical := 0
	for i := 0; i < col && i < len(row); i++ {
		span := row[i].ColSpan
		if span < 1 {
			span = 1
		}
		logical += span
	}
	return logical
}

func cellTextAt(row models.Row, col int) string {
	if col < len(row) {
		return row[col].Text
	}
	return ""
}

func plainName(text string) string {
	return strings.TrimSpace(alerts.Strip(text))
}

func rowInformation(row models.Row) string {
	return strings.TrimSpace(cellTextAt(row, 1))
}
