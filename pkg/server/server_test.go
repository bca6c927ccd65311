package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlabollioules/ACRA/pkg/deck"
	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/models"
	"github.com/openlabollioules/ACRA/pkg/deck/writer"
	"github.com/openlabollioules/ACRA/pkg/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "registry.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := New(st, slog.New(slog.NewTextHandler(io.Discard, nil)), alerts.DefaultPalette())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// sampleDeck renders a two-slide deck with an activity table on slide 1.
func sampleDeck(t *testing.T) []byte {
	t.Helper()
	rec := &models.ProjectRecord{
		Activities: map[string]*models.Activity{
			"Alpha": {Information: "steady progress"},
			"Beta":  {Information: "<red>blocked on vendor</red>", Alerts: alerts.Classify("<red>blocked on vendor</red>")},
		},
		UpcomingEvents: "Review Friday",
		Metadata:       models.Metadata{Title: "Weekly Report"},
		Order:          []string{"Alpha", "Beta"},
	}
	doc := &models.Document{
		Slides: []*models.Slide{
			{ID: 1, Title: "Weekly Report", Items: []*models.ContentItem{models.NewTableItem(rec.Table())}},
			{ID: 2, Title: "Details", Items: []*models.ContentItem{models.NewTextItem("Body", false)}},
		},
		Projects: rec,
	}
	data, err := writer.Render(doc, nil)
	require.NoError(t, err)
	return data
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadAndDownload(t *testing.T) {
	ts := newTestServer(t)
	deckBytes := sampleDeck(t)

	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", deckBytes)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "report.pptx", created["filename"])
	assert.NotEmpty(t, created["id"])

	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/decks/report.pptx/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, deckBytes, buf.Bytes())
}

func TestUploadRejectsGarbage(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/bad.pptx", []byte("not a deck"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDownloadNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodGet, "/sessions/s1/decks/missing.pptx/download", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStructure(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", sampleDeck(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/structure", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Decks []struct {
			Name        string          `json:"name"`
			TotalSlides int             `json:"total_slides"`
			Slides      []*models.Slide `json:"slides"`
		} `json:"decks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Decks, 1)
	d := payload.Decks[0]
	assert.Equal(t, "report.pptx", d.Name)
	assert.Equal(t, 2, d.TotalSlides)
	require.Len(t, d.Slides, 2)
	assert.Equal(t, "Weekly Report", d.Slides[0].Title)

	// Without ?color=1 the tier tags are stripped.
	table := d.Slides[0].Items[0].Table
	require.NotNil(t, table)
	assert.Equal(t, "blocked on vendor", table.Rows[2][1].Text)
}

func TestProjects(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", sampleDeck(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]*models.ProjectRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	rec := payload["report.pptx"]
	require.NotNil(t, rec)
	assert.Equal(t, "Weekly Report", rec.Metadata.Title)
	require.Contains(t, rec.Activities, "Beta")
	assert.Equal(t, []string{"blocked on vendor"}, rec.Activities["Beta"].Alerts.CriticalAlerts)
	assert.Equal(t, "Review Friday", rec.UpcomingEvents)
}

func TestEdits(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", sampleDeck(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := json.Marshal(EditRequest{Edits: []EditOp{
		{Op: "title", Slide: 1, Text: "Appendix"},
		{Op: "cell", Slide: 0, Item: 0, Row: 1, Col: 1, Text: "Rescoped. <orange>timeline at risk</orange>", Formatted: true},
	}})
	require.NoError(t, err)

	resp = doRequest(t, ts, http.MethodPost, "/sessions/s1/decks/report.pptx/edits", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The stored deck now reflects the batch.
	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/decks/report.pptx/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	doc, err := deck.Parse(buf.Bytes(), deck.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Appendix", doc.Slides[1].Title)
	require.NotNil(t, doc.Projects)
	require.Contains(t, doc.Projects.Activities, "Alpha")
	assert.Equal(t, []string{"timeline at risk"}, doc.Projects.Activities["Alpha"].Alerts.MinorAlerts)
}

func TestEditsOutOfRange(t *testing.T) {
	ts := newTestServer(t)
	original := sampleDeck(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", original)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := json.Marshal(EditRequest{Edits: []EditOp{
		{Op: "cell", Slide: 0, Item: 0, Row: 99, Col: 99, Text: "x"},
	}})
	require.NoError(t, err)

	resp = doRequest(t, ts, http.MethodPost, "/sessions/s1/decks/report.pptx/edits", body)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// The stored bytes are untouched by the failed batch.
	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/decks/report.pptx/download", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, original, buf.Bytes())
}

func TestEditsUnknownOp(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", sampleDeck(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := []byte(`{"edits":[{"op":"rotate","slide":0}]}`)
	resp = doRequest(t, ts, http.MethodPost, "/sessions/s1/decks/report.pptx/edits", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t)
	resp := doRequest(t, ts, http.MethodPut, "/sessions/s1/decks/report.pptx", sampleDeck(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, ts, http.MethodDelete, "/sessions/s1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var payload map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, 1, payload["deleted"])

	resp = doRequest(t, ts, http.MethodGet, "/sessions/s1/decks/report.pptx/download", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
