package pagestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "data", "pages.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	page, err := store.Create(ctx, "My First Page", "# Hello")
	require.NoError(t, err)
	assert.Positive(t, page.ID)

	got, err := store.Get(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "My First Page", got.Title)
	assert.Equal(t, "# Hello", got.Content)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = store.Create(ctx, "my first page", "dup")
	require.ErrorIs(t, err, ErrDuplicateTitle)

	_, err = store.Create(ctx, "  ", "x")
	require.Error(t, err)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPageByTitleIgnoresCase(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	created, err := store.Create(ctx, "My First Page", "")
	require.NoError(t, err)

	ref, found, err := store.PageByTitle("my FIRST page")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.ID, ref.ID)
	assert.Equal(t, "My First Page", ref.Title)

	_, found, err = store.PageByTitle("Other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveUpserts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, err := store.Save(ctx, "Home", "v1")
	require.NoError(t, err)
	second, err := store.Save(ctx, "home", "v2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Content)
	assert.Equal(t, "Home", second.Title)

	_, err = store.Save(ctx, "Zeta", "")
	require.NoError(t, err)
	pages, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Home", pages[0].Title)
}
