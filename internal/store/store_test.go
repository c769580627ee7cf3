package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

func TestRebind(t *testing.T) {
	sqlite := &Store{}
	pg := &Store{postgres: true}

	q := `UPDATE t SET a = ?, b = ? WHERE id = ?`
	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE id = $3`, pg.rebind(q))
}

func TestOpen_ReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.db")

	s, err := Open(path)
	require.NoError(t, err)
	lib, err := s.CreateLibrary(context.Background(), "u1", "Reading")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetLibrary(context.Background(), lib.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reading", got.Name)
}

func TestLibraryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	lib, err := s.CreateLibrary(ctx, "user-1", "Favourites")
	require.NoError(t, err)
	assert.NotEmpty(t, lib.ID)
	assert.Empty(t, lib.Mangas)

	item, err := s.AddItem(ctx, lib.ID, "one-piece", "weebcentral", 0)
	require.NoError(t, err)
	assert.Equal(t, lib.ID, item.LibraryID)

	got, err := s.GetLibrary(ctx, lib.ID)
	require.NoError(t, err)
	require.Len(t, got.Mangas, 1)
	assert.Equal(t, "one-piece", got.Mangas[0].Slug)

	updated, err := s.UpdateItem(ctx, item.ID, ItemUpdate{Progress: intPtr(42)})
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Progress)
	assert.Equal(t, "one-piece", updated.Slug)

	libs, err := s.ListLibraries(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, 42, libs[0].Mangas[0].Progress)

	require.NoError(t, s.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, item.ID), ErrNotFound)

	got, err = s.GetLibrary(ctx, lib.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Mangas)
}

func TestLibrary_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetLibrary(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddItem(ctx, "missing", "slug", "weebcentral", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateItem(ctx, "missing", ItemUpdate{Slug: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	libs, err := s.ListLibraries(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, libs)
	assert.Empty(t, libs)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, created, err := s.GetOrCreatePreference(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, DefaultTheme, p.Theme)
	assert.Equal(t, DefaultLanguage, p.Language)
	assert.Equal(t, DefaultNotifications, p.Notifications)

	_, created, err = s.GetOrCreatePreference(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = s.CreatePreference(ctx, "u1", PreferenceInput{})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	p, err = s.UpdatePreference(ctx, "u1", PreferenceInput{Theme: strPtr("dark"), Notifications: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "dark", p.Theme)
	assert.False(t, p.Notifications)

	p, err = s.GetPreference(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "dark", p.Theme)
	assert.Equal(t, DefaultLanguage, p.Language)
	assert.False(t, p.Notifications)

	require.NoError(t, s.DeletePreference(ctx, "u1"))
	assert.ErrorIs(t, s.DeletePreference(ctx, "u1"), ErrNotFound)

	_, err = s.UpdatePreference(ctx, "u1", PreferenceInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertPreference(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.UpsertPreference(ctx, "u2", PreferenceInput{Language: strPtr("fr")})
	require.NoError(t, err)
	assert.Equal(t, "fr", p.Language)
	assert.Equal(t, DefaultTheme, p.Theme)

	p, err = s.UpsertPreference(ctx, "u2", PreferenceInput{Theme: strPtr("light")})
	require.NoError(t, err)
	assert.Equal(t, "fr", p.Language)
	assert.Equal(t, "light", p.Theme)
}
