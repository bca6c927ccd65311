package models

import (
	"strings"

	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
)

// ProjectRecord is the semantic payload behind the first slide's activity
// table: one entry per project row plus the shared upcoming-events column
// and the deck title. It is the contract exchanged with the upstream
// content generator and must round-trip losslessly through the table.
type ProjectRecord struct {
	// Activities maps project name to its narrative and alert tiers.
	// Project names are unique keys.
	Activities map[string]*Activity `json:"activities"`
	// UpcomingEvents is the shared events column content.
	UpcomingEvents string `json:"upcoming_events"`
	// Metadata carries deck-level fields.
	Metadata Metadata `json:"metadata"`

	// Order preserves table row order across the map, so regenerating the
	// table is deterministic. Not part of the external payload.
	Order []string `json:"-"`
}

// Activity is one project's narrative plus its classified alerts.
type Activity struct {
	// Information is the markup-bearing narrative text.
	Information string `json:"information"`
	// Alerts is derived from Information's tier tags and overwritten on
	// every information edit.
	Alerts alerts.Set `json:"alerts"`
}

// Metadata holds deck-level fields mirrored from the first slide.
type Metadata struct {
	Title string `json:"title"`
}

// ActivityTableHeader is the header row emitted when a ProjectRecord is
// turned back into a table.
var ActivityTableHeader = []string{"Project", "Information", "Upcoming events"}

// ProjectsFromTable reduces an activity table to its ProjectRecord. Row 0
// is the header and is skipped. Column 0 is the project name, column 1 the
// markup-bearing narrative (classified into alert tiers), column 2 feeds
// the shared upcoming-events field; distinct non-empty values are joined
// in row order. Rows with an empty name are dropped.
func ProjectsFromTable(t *Table, title string) *ProjectRecord {
	rec := &ProjectRecord{
		Activities: make(map[string]*Activity),
		Metadata:   Metadata{Title: title},
	}
	var events []string
	seenEvent := make(map[string]bool)

	for i, row := range t.Rows {
		if i == 0 {
			continue
		}
		name := strings.TrimSpace(alerts.Strip(cellText(row, 0)))
		if name == "" {
			continue
		}
		info := strings.TrimSpace(cellText(row, 1))
		if existing, ok := rec.Activities[name]; ok {
			// Duplicate row for the same project: fold the narrative in.
			if info != "" {
				if existing.Information != "" {
					existing.Information += "\n"
				}
				existing.Information += info
				existing.Alerts = alerts.Classify(existing.Information)
			}
		} else {
			rec.Activities[name] = &Activity{
				Information: info,
				Alerts:      alerts.Classify(info),
			}
			rec.Order = append(rec.Order, name)
		}
		if ev := strings.TrimSpace(alerts.Strip(cellText(row, 2))); ev != "" && !seenEvent[ev] {
			seenEvent[ev] = true
			events = append(events, ev)
		}
	}
	rec.UpcomingEvents = strings.Join(events, "\n")
	return rec
}

// Table regenerates the activity table from the record: a styled header
// row, one row per project in original order, and the upcoming-events
// text on the first data row.
func (r *ProjectRecord) Table() *Table {
	t := &Table{ColumnCount: len(ActivityTableHeader), HasHeader: true}
	header := make(Row, 0, len(ActivityTableHeader))
	for _, h := range ActivityTableHeader {
		header = append(header, Cell{
			Text:    h,
			RowSpan: 1,
			ColSpan: 1,
			Style:   CellStyle{Bold: true, BackgroundColor: "44546A"},
		})
	}
	t.Rows = append(t.Rows, header)

	for i, name := range r.Order {
		act := r.Activities[name]
		if act == nil {
			continue
		}
		row := Row{
			{Text: name, RowSpan: 1, ColSpan: 1},
			{Text: act.Information, Formatted: alerts.HasMarkup(act.Information), RowSpan: 1, ColSpan: 1},
			EmptyCell(),
		}
		if i == 0 {
			row[2].Text = r.UpcomingEvents
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Rename moves a project entry to a new key, preserving its narrative and
// alerts. When the new key already exists the two entries are merged, the
// way regrouping merges duplicate project rows. Renaming a missing key is
// a no-op returning false.
func (r *ProjectRecord) Rename(oldName, newName string) bool {
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	act, ok := r.Activities[oldName]
	if !ok || newName == "" || oldName == newName {
		return ok && oldName == newName
	}
	delete(r.Activities, oldName)
	if existing, exists := r.Activities[newName]; exists {
		if act.Information != "" {
			if existing.Information != "" {
				existing.Information += "\n"
			}
			existing.Information += act.Information
			existing.Alerts = alerts.Classify(existing.Information)
		}
		r.Order = removeName(r.Order, oldName)
	} else {
		r.Activities[newName] = act
		for i, n := range r.Order {
			if n == oldName {
				r.Order[i] = newName
				break
			}
		}
	}
	return true
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func cellText(row Row, col int) string {
	if col < len(row) {
		return row[col].Text
	}
	return ""
}
