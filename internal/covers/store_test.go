package covers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveReadRemove(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	require.NoError(t, store.Save("1.jpg", []byte("jpegdata")))
	assert.True(t, store.Exists("1.jpg"))

	data, err := store.Read("1.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)

	require.NoError(t, store.Remove("1.jpg"))
	assert.False(t, store.Exists("1.jpg"))

	_, err = store.Read("1.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing twice is fine.
	assert.NoError(t, store.Remove("1.jpg"))
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save("2.jpg", []byte("old")))
	require.NoError(t, store.Save("2.jpg", []byte("new")))

	data, err := store.Read("2.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"2.jpg"}, names)
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.jpg", "a/b.jpg", ".."} {
		assert.Error(t, store.Save(name, []byte("x")), name)
		assert.False(t, store.Exists(name), name)
	}

	_, err = os.Stat(filepath.Join(dir, "escape.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_EmptyData(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save("3.jpg", nil))
}

func TestStoredPaths(t *testing.T) {
	assert.Equal(t, "12.jpg", FileName(12))
	assert.Equal(t, "uploads/12.jpg", StoredPath(12))
	assert.Equal(t, "12.jpg", NameFromStoredPath("uploads/12.jpg"))
	assert.Equal(t, "", NameFromStoredPath(""))
}
