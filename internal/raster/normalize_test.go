package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRaw(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestNormalizePages_ZeroIndexedUnpadded(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		writeRaw(t, dir, fmt.Sprintf("raw-%d.jpg", i), fmt.Sprint(i))
	}

	n, err := NormalizePages(dir)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	// raw-10 sorts numerically, not lexically
	data, err := os.ReadFile(filepath.Join(dir, "page-11.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "10", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "page-1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "0", string(data))
}

func TestNormalizePages_OneIndexedPadded(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "raw-001.jpg", "a")
	writeRaw(t, dir, "raw-002.jpg", "b")
	writeRaw(t, dir, "raw-003.jpg", "c")

	n, err := NormalizePages(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for i, want := range []string{"a", "b", "c"} {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("page-%d.jpg", i+1)))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
	_, err = os.Stat(filepath.Join(dir, "raw-001.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestNormalizePages_GapsBecomeContiguous(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "raw-2.jpg", "x")
	writeRaw(t, dir, "raw-7.jpg", "y")

	n, err := NormalizePages(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dir, "page-1.jpg"))
	assert.FileExists(t, filepath.Join(dir, "page-2.jpg"))
}

func TestNormalizePages_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, dir, "notes.txt", "")
	writeRaw(t, dir, "raw-x.jpg", "")

	n, err := NormalizePages(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNormalizePages_MissingDir(t *testing.T) {
	_, err := NormalizePages(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
