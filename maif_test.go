package maif

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/ljp-projects/maif/image"
	"github.com/stretchr/testify/require"
)

const testTimestamp = "2024-01-01T00:00:00.000Z"

func writeImage(t *testing.T, file string, w, h uint8, pixels ...image.Pixel) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	_, err = image.New(image.Header{Width: w, Height: h, Timestamp: testTimestamp}, pixels).WriteTo(f)
	require.NoError(t, err)
}

func newTestMAIF(t *testing.T) *MAIF {
	t.Helper()

	m, err := New(filepath.Join(t.TempDir(), "maif.db"), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}
