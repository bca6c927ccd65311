package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "registry.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndReadDeck(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveDeck(ctx, "sess-1", "report.pptx", []byte("deck bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "report.pptx", saved.Filename)

	data, d, err := s.ReadDeck(ctx, "sess-1", "report.pptx")
	require.NoError(t, err)
	assert.Equal(t, []byte("deck bytes"), data)
	assert.Equal(t, saved.Path, d.Path)
}

func TestSaveDeckUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.SaveDeck(ctx, "sess-1", "report.pptx", []byte("v1"))
	require.NoError(t, err)
	second, err := s.SaveDeck(ctx, "sess-1", "report.pptx", []byte("v2"))
	require.NoError(t, err)

	// The registry row keeps its id across re-uploads, and the returned
	// metadata matches the stored row.
	assert.Equal(t, first.ID, second.ID)

	data, _, err := s.ReadDeck(ctx, "sess-1", "report.pptx")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	decks, err := s.ListDecks(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, second.ID, decks[0].ID)
}

func TestSaveDeckStripsPath(t *testing.T) {
	s := openTestStore(t)
	saved, err := s.SaveDeck(context.Background(), "sess-1", "../../etc/passwd", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", saved.Filename)
	assert.Equal(t, filepath.Join(s.dataDir, "sess-1", "passwd"), saved.Path)
}

func TestListDecksOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"b.pptx", "a.pptx", "c.pptx"} {
		_, err := s.SaveDeck(ctx, "sess-1", name, []byte(name))
		require.NoError(t, err)
	}
	_, err := s.SaveDeck(ctx, "other", "z.pptx", []byte("z"))
	require.NoError(t, err)

	decks, err := s.ListDecks(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, decks, 3)
	assert.Equal(t, "a.pptx", decks[0].Filename)
	assert.Equal(t, "b.pptx", decks[1].Filename)
	assert.Equal(t, "c.pptx", decks[2].Filename)
}

func TestReadDeckNotFound(t *testing.T) {
	s := openTestStore(t)
	_, _, err := s.ReadDeck(context.Background(), "sess-1", "missing.pptx")
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestEmptySession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveDeck(ctx, "", "a.pptx", nil)
	assert.ErrorIs(t, err, ErrEmptySession)
	_, err = s.ListDecks(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySession)
	_, _, err = s.ReadDeck(ctx, "", "a.pptx")
	assert.ErrorIs(t, err, ErrEmptySession)
	_, err = s.DeleteSession(ctx, "")
	assert.ErrorIs(t, err, ErrEmptySession)
}

func TestSessionIDMustBePlainElement(t *testing.T) {
	base := t.TempDir()
	s, err := Open(filepath.Join(base, "registry.db"), filepath.Join(base, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// A sibling of the data directory that a traversing id would reach.
	victim := filepath.Join(base, "victim")
	require.NoError(t, os.MkdirAll(victim, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(victim, "keep.txt"), []byte("keep"), 0o644))

	ctx := context.Background()
	for _, id := range []string{"../victim", "..", ".", "a/b", `a\b`, "nested/../victim"} {
		_, err := s.SaveDeck(ctx, id, "x.pptx", []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidSession, "SaveDeck(%q)", id)
		_, err = s.ListDecks(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidSession, "ListDecks(%q)", id)
		_, _, err = s.ReadDeck(ctx, id, "x.pptx")
		assert.ErrorIs(t, err, ErrInvalidSession, "ReadDeck(%q)", id)
		_, err = s.DeleteSession(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidSession, "DeleteSession(%q)", id)
	}

	// Nothing escaped the data directory in either direction.
	_, err = os.Stat(filepath.Join(victim, "x.pptx"))
	assert.True(t, os.IsNotExist(err), "deck written outside the data dir")
	data, err := os.ReadFile(filepath.Join(victim, "keep.txt"))
	require.NoError(t, err, "sibling directory was deleted")
	assert.Equal(t, []byte("keep"), data)

	// A plain id still works.
	_, err = s.SaveDeck(ctx, "sess-1", "x.pptx", []byte("x"))
	assert.NoError(t, err)
}

func TestDeleteSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveDeck(ctx, "sess-1", "a.pptx", []byte("a"))
	require.NoError(t, err)
	_, err = s.SaveDeck(ctx, "sess-1", "b.pptx", []byte("b"))
	require.NoError(t, err)
	_, err = s.SaveDeck(ctx, "keep", "c.pptx", []byte("c"))
	require.NoError(t, err)

	n, err := s.DeleteSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, _, err = s.ReadDeck(ctx, "sess-1", "a.pptx")
	assert.ErrorIs(t, err, ErrDeckNotFound)
	_, statErr := os.Stat(saved.Path)
	assert.True(t, os.IsNotExist(statErr), "session file still on disk")

	decks, err := s.ListDecks(ctx, "keep")
	require.NoError(t, err)
	assert.Len(t, decks, 1)
}
