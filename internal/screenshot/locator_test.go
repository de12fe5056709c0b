package screenshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFindLatestPicksNewest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/selenium-screenshot-1.png", base)
	writeShot(t, fs, "/out/selenium-screenshot-2.png", base.Add(time.Minute))

	path, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-2.png"), path)
}

func TestFindLatestIgnoresListingOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/selenium-screenshot-10.png", base.Add(time.Hour))
	writeShot(t, fs, "/out/selenium-screenshot-9.png", base)

	path, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-10.png"), path)
}

func TestFindLatestEmptyPatternMatchesAnyPNG(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/login-1.png", base.Add(time.Hour))
	writeShot(t, fs, "/out/selenium-screenshot-1.png", base)
	writeShot(t, fs, "/out/notes.txt", base.Add(2*time.Hour))

	path, err := NewLocator(fs).FindLatest("/out", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "login-1.png"), path)
}

func TestFindLatestEqualModTimeKeepsFirstListed(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/selenium-screenshot-b.png", base)
	writeShot(t, fs, "/out/selenium-screenshot-a.png", base)

	path, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-a.png"), path)
}

func TestFindLatestFiltersPrefix(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/other-1.png", base.Add(time.Hour))
	writeShot(t, fs, "/out/selenium-screenshot-3.png", base)

	path, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-3.png"), path)
}

func TestFindLatestFiltersExtensionAndCase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/selenium-screenshot-1.jpg", base.Add(time.Hour))
	writeShot(t, fs, "/out/selenium-screenshot-2.PNG", base.Add(time.Hour))
	writeShot(t, fs, "/out/Selenium-Screenshot-3.png", base.Add(time.Hour))
	writeShot(t, fs, "/out/selenium-screenshot-4.png", base)

	path, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "selenium-screenshot-4.png"), path)
}

func TestFindLatestIsNotRecursive(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/nested/selenium-screenshot-1.png", base)
	require.NoError(t, fs.MkdirAll("/out/selenium-screenshot-dir.png", 0o755))

	_, err := NewLocator(fs).FindLatest("/out", DefaultPattern)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "/out", notFound.Directory)
}

func TestFindLatestEmptyDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	_, err := NewLocator(fs).FindLatest("/empty", DefaultPattern)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFindLatestCustomPattern(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeShot(t, fs, "/out/selenium-screenshot-1.png", base.Add(time.Hour))
	writeShot(t, fs, "/out/login-failure-1.png", base)

	path, err := NewLocator(fs).FindLatest("/out", "login-")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "login-failure-1.png"), path)
}

func TestFindLatestMissingDirectory(t *testing.T) {
	_, err := NewLocator(afero.NewMemMapFs()).FindLatest("/nope", DefaultPattern)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFindLatestOnDisk(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "selenium-screenshot-1.png")
	newer := filepath.Join(dir, "selenium-screenshot-2.png")
	require.NoError(t, os.WriteFile(older, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("b"), 0o644))
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Second), base.Add(time.Second)))

	path, err := FindLatest(dir, DefaultPattern)
	require.NoError(t, err)
	assert.Equal(t, newer, path)
}

func writeShot(t *testing.T, fs afero.Fs, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte("png"), 0o644))
	require.NoError(t, fs.Chtimes(path, modTime, modTime))
}
