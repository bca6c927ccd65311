package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/openlabollioules/ACRA/pkg/deck"
	"github.com/openlabollioules/ACRA/pkg/deck/alerts"
	"github.com/openlabollioules/ACRA/pkg/deck/output"
	"github.com/openlabollioules/ACRA/pkg/deck/writer"
	"github.com/openlabollioules/ACRA/pkg/store"
)

// maxDeckSize caps uploaded deck bodies (32 MiB).
const maxDeckSize = 32 << 20

// Server serves the session deck API.
type Server struct {
	store   *store.Store
	logger  *slog.Logger
	palette alerts.Palette
}

// New builds a Server.
func New(st *store.Store, logger *slog.Logger, palette alerts.Palette) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if palette == nil {
		palette = alerts.DefaultPalette()
	}
	return &Server{store: st, logger: logger, palette: palette}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/sessions/{session}", func(r chi.Router) {
		r.Put("/decks/{name}", s.handleUpload)
		r.Get("/decks/{name}/download", s.handleDownload)
		r.Post("/decks/{name}/edits", s.handleEdits)
		r.Get("/structure", s.handleStructure)
		r.Get("/projects", s.handleProjects)
		r.Delete("/", s.handleDeleteSession)
	})
	return r
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	name := chi.URLParam(r, "name")
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDeckSize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	// Reject bodies that are not loadable packages up front.
	if _, err := deck.Parse(data, deck.Options{Palette: s.palette, SkipMedia: true, Logger: s.logger}); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	d, err := s.store.SaveDeck(r.Context(), session, name, data)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.logger.Info("deck uploaded", "session", session, "deck", d.Filename, "bytes", len(data))
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": d.ID, "filename": d.Filename})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	data, d, err := s.store.ReadDeck(r.Context(), chi.URLParam(r, "session"), chi.URLParam(r, "name"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	w.Header().Set("Content-Disposition", `attachment; filename="`+d.Filename+`"`)
	w.Write(data)
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	withColor := r.URL.Query().Get("color") == "1"
	decks, err := s.store.ListDecks(r.Context(), session)
	if err != nil {
		s.storeError(w, err)
		return
	}
	payload := make([]output.DeckStructure, 0, len(decks))
	for _, d := range decks {
		data, _, err := s.store.ReadDeck(r.Context(), session, d.Filename)
		if err != nil {
			s.storeError(w, err)
			return
		}
		doc, err := deck.Parse(data, deck.Options{Palette: s.palette, SkipMedia: true, Logger: s.logger})
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		doc.Name = d.Filename
		payload = append(payload, output.Describe(doc, withColor))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"decks": payload})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	decks, err := s.store.ListDecks(r.Context(), session)
	if err != nil {
		s.storeError(w, err)
		return
	}
	payload := make(map[string]any, len(decks))
	for _, d := range decks {
		data, _, err := s.store.ReadDeck(r.Context(), session, d.Filename)
		if err != nil {
			s.storeError(w, err)
			return
		}
		doc, err := deck.Parse(data, deck.Options{Palette: s.palette, SkipMedia: true, Logger: s.logger})
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		if doc.Projects != nil {
			payload[d.Filename] = doc.Projects
		}
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// EditRequest is the batch edit payload.
type EditRequest struct {
	Edits []EditOp `json:"edits"`
}

// EditOp is one coordinate-addressed edit command.
type EditOp struct {
	// Op is "title", "text" or "cell".
	Op        string `json:"op"`
	Slide     int    `json:"slide"`
	Item      int    `json:"item"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Text      string `json:"text"`
	Formatted bool   `json:"formatted"`
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	name := chi.URLParam(r, "name")

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	data, d, err := s.store.ReadDeck(r.Context(), session, name)
	if err != nil {
		s.storeError(w, err)
		return
	}
	doc, err := deck.Parse(data, deck.Options{Palette: s.palette, Logger: s.logger})
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	// Apply the batch to a copy so a failing edit leaves the stored deck
	// as it was.
	working, err := doc.Clone()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	editor := deck.NewEditor(working, deck.Options{Palette: s.palette, Logger: s.logger})
	for i, op := range req.Edits {
		var err error
		switch op.Op {
		case "title":
			err = editor.EditTitle(op.Slide, op.Text)
		case "text":
			err = editor.EditText(op.Slide, op.Item, op.Text, op.Formatted)
		case "cell":
			err = editor.EditCell(op.Slide, op.Item, op.Row, op.Col, op.Text, op.Formatted)
		default:
			s.writeError(w, http.StatusBadRequest, errors.New("unknown op "+op.Op))
			return
		}
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, deck.ErrOutOfRange) {
				status = http.StatusUnprocessableEntity
			}
			s.logger.Warn("edit rejected", "session", session, "deck", name, "edit", i, "error", err)
			s.writeError(w, status, err)
			return
		}
	}

	rendered, err := writer.Render(working, s.palette)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := s.store.SaveDeck(r.Context(), session, d.Filename, rendered); err != nil {
		s.storeError(w, err)
		return
	}
	s.logger.Info("deck edited", "session", session, "deck", name, "edits", len(req.Edits))
	working.Name = d.Filename
	s.writeJSON(w, http.StatusOK, output.Describe(working, true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session := chi.URLParam(r, "session")
	n, err := s.store.DeleteSession(r.Context(), session)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.logger.Info("session deleted", "session", session, "decks", n)
	s.writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrEmptySession), errors.Is(err, store.ErrInvalidSession):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrDeckNotFound):
		s.writeError(w, http.StatusNotFound, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
