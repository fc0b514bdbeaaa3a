package maif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ljp-projects/maif/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	m := newTestMAIF(t)
	dir := t.TempDir()

	writeImage(t, filepath.Join(dir, "one.maif"), 1, 1, image.Pixel{})
	writeImage(t, filepath.Join(dir, "sub", "two.MAIF"), 2, 1, image.Pixel{}, image.Pixel{})
	writeImage(t, filepath.Join(dir, "sub", "deeper", "three.maif"), 1, 1)
	writeImage(t, filepath.Join(dir, ".hidden", "four.maif"), 1, 1, image.Pixel{})
	writeImage(t, filepath.Join(dir, ".five.maif"), 1, 1, image.Pixel{})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))

	require.NoError(t, m.Scan(dir))

	entries, err := m.Catalog().List()
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "one.maif"),
		filepath.Join(dir, "sub", "deeper", "three.maif"),
		filepath.Join(dir, "sub", "two.MAIF"),
	}, paths)

	// Rescanning updates rather than duplicates
	require.NoError(t, m.Scan(dir))
	entries, err = m.Catalog().List()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestScanMissing(t *testing.T) {
	m := newTestMAIF(t)
	assert.Error(t, m.Scan(filepath.Join(t.TempDir(), "missing")))
}

func TestImport(t *testing.T) {
	m := newTestMAIF(t)
	dir := t.TempDir()

	writeImage(t, filepath.Join(dir, "a.maif"), 1, 1, image.Pixel{})
	writeImage(t, filepath.Join(dir, "b.maif"), 3, 3)

	require.NoError(t, m.Import(filepath.Join(dir, "a.maif"), filepath.Join(dir, "b.maif")))

	e, err := m.Catalog().Find(filepath.Join(dir, "b.maif"))
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Mismatched())

	assert.Error(t, m.Import(filepath.Join(dir, "c.maif")))
}
