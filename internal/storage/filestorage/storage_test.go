package filestorage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"parish_portal/internal/storage/filestorage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFileStorage(t *testing.T) (*filestorage.LocalFileStorage, string) {
	t.Helper()

	tempDir := t.TempDir()

	fs, err := filestorage.NewLocalFileStorage(tempDir, "http://test.local/")
	require.NoError(t, err)

	return fs, tempDir
}

func TestLocalFileStorage_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("successful write", func(t *testing.T) {
		fs, dir := setupFileStorage(t)

		filePath, size, err := fs.Write(ctx, "sitemap.xml", strings.NewReader("<urlset/>"))
		require.NoError(t, err)
		assert.Equal(t, "sitemap.xml", filePath)
		assert.Equal(t, int64(9), size)

		data, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
		require.NoError(t, err)
		assert.Equal(t, "<urlset/>", string(data))
	})

	t.Run("replaces existing file without leftovers", func(t *testing.T) {
		fs, dir := setupFileStorage(t)

		_, _, err := fs.Write(ctx, "backups/registrations.json", strings.NewReader("[1]"))
		require.NoError(t, err)
		_, _, err = fs.Write(ctx, "backups/registrations.json", strings.NewReader("[]"))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "backups", "registrations.json"))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))

		entries, err := os.ReadDir(filepath.Join(dir, "backups"))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp files are renamed away")
	})

	t.Run("context cancellation", func(t *testing.T) {
		fs, dir := setupFileStorage(t)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := fs.Write(cancelled, "sitemap.xml", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)

		_, statErr := os.Stat(filepath.Join(dir, "sitemap.xml"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("path traversal", func(t *testing.T) {
		fs, _ := setupFileStorage(t)

		for _, p := range []string{"../escape.txt", "/etc/passwd", "", "a/../../b"} {
			_, _, err := fs.Write(ctx, p, strings.NewReader("x"))
			assert.ErrorIs(t, err, filestorage.ErrOutsideBaseDir, p)
		}
	})
}

func TestLocalFileStorage_Delete(t *testing.T) {
	ctx := context.Background()
	fs, dir := setupFileStorage(t)

	_, _, err := fs.Write(ctx, "old.json", strings.NewReader("{}"))
	require.NoError(t, err)

	assert.NoError(t, fs.Delete(ctx, "old.json"))
	_, err = os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, fs.Delete(ctx, "old.json"))
	assert.ErrorIs(t, fs.Delete(ctx, "../old.json"), filestorage.ErrOutsideBaseDir)
}

func TestLocalFileStorage_Paths(t *testing.T) {
	fs, dir := setupFileStorage(t)

	assert.Equal(t, filepath.Join(dir, "public", "sitemap.xml"), fs.GetFullPath(filepath.Join("public", "sitemap.xml")))
	assert.Equal(t, "http://test.local", fs.BaseURL())
	assert.Equal(t, dir, fs.GetBaseDir())
}

func TestNewLocalFileStorage(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "public")

		fs, err := filestorage.NewLocalFileStorage(dir, "http://test.local")
		require.NoError(t, err)
		assert.NotNil(t, fs)
		assert.DirExists(t, dir)
	})

	t.Run("invalid path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, nil, 0o644))

		_, err := filestorage.NewLocalFileStorage(filepath.Join(file, "sub"), "http://test.local")
		assert.Error(t, err)
	})
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	fs, dir := setupFileStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := fs.Write(ctx, "sitemap.xml", strings.NewReader(fmt.Sprintf("<urlset id=\"%d\"/>", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<urlset id="), "file is always complete")
}
