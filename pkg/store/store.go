// Package store persists uploaded decks per session: file bytes under a
// per-session data directory, metadata in SQLite. Session identifiers
// are opaque strings supplied by the chat sidecar, but they name a
// directory under the data root, so they must be a single plain path
// element: no separators, no "." or "..".
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrEmptySession indicates a request with an empty session identifier.
var ErrEmptySession = errors.New("empty session id")

// ErrInvalidSession indicates a session identifier that is not a plain
// path element and would escape the data directory.
var ErrInvalidSession = errors.New("invalid session id")

// ErrDeckNotFound indicates the session has no deck by that name.
var ErrDeckNotFound = errors.New("deck not found")

// Deck is one stored presentation file.
type Deck struct {
	ID         string
	SessionID  string
	Filename   string
	Path       string
	UploadedAt time.Time
}

// Store is the session deck registry.
type Store struct {
	db      *sql.DB
	dataDir string
}

// Open opens (and migrates) the registry database and ensures the data
// directory exists.
func Open(dbPath, dataDir string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		db.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{db: db, dataDir: dataDir}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    filename TEXT NOT NULL,
    path TEXT NOT NULL,
    uploaded_at TIMESTAMP NOT NULL,
    UNIQUE(session_id, filename)
);
CREATE INDEX IF NOT EXISTS idx_session_decks ON decks(session_id);
`

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// checkSession validates a session identifier. The id becomes a
// directory name under the data root, so anything that is not a single
// clean path element is rejected before it touches the filesystem.
func checkSession(sessionID string) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	if sessionID == "." || sessionID == ".." ||
		strings.ContainsAny(sessionID, `/\`) || sessionID != filepath.Base(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	return nil
}

// SaveDeck writes the deck bytes under the session's directory and
// upserts its registry row. Re-uploading a filename replaces the file.
func (s *Store) SaveDeck(ctx context.Context, sessionID, filename string, data []byte) (*Deck, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	filename = filepath.Base(filename)
	dir := filepath.Join(s.dataDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write deck: %w", err)
	}

	deck := &Deck{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Filename:   filename,
		Path:       path,
		UploadedAt: time.Now().UTC(),
	}
	// On a filename re-upload the conflict clause keeps the existing row's
	// id, so read the id back instead of trusting the generated one.
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO decks (id, session_id, filename, path, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, filename)
		DO UPDATE SET path = excluded.path, uploaded_at = excluded.uploaded_at
		RETURNING id
	`, deck.ID, deck.SessionID, deck.Filename, deck.Path, deck.UploadedAt).Scan(&deck.ID)
	if err != nil {
		return nil, fmt.Errorf("register deck: %w", err)
	}
	return deck, nil
}

// ListDecks returns the session's decks ordered by filename.
func (s *Store) ListDecks(ctx context.Context, sessionID string) ([]Deck, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, filename, path, uploaded_at
		FROM decks WHERE session_id = ? ORDER BY filename
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Filename, &d.Path, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// ReadDeck returns a deck's bytes and metadata.
func (s *Store) ReadDeck(ctx context.Context, sessionID, filename string) ([]byte, *Deck, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, nil, err
	}
	var d Deck
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, filename, path, uploaded_at
		FROM decks WHERE session_id = ? AND filename = ?
	`, sessionID, filepath.Base(filename)).
		Scan(&d.ID, &d.SessionID, &d.Filename, &d.Path, &d.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup deck: %w", err)
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read deck file: %w", err)
	}
	return data, &d, nil
}

// DeleteSession removes every deck of a session, files included, and
// returns how many were deleted.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	if err := checkSession(sessionID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete decks: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := os.RemoveAll(filepath.Join(s.dataDir, sessionID)); err != nil {
		return int(n), fmt.Errorf("remove session dir: %w", err)
	}
	return int(n), nil
}
