package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_Priority(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("EPAPER_A=base\nEPAPER_B=base\nEPAPER_C=base\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("EPAPER_B=local\n"), 0o600))
	t.Setenv("EPAPER_C", "process")
	t.Setenv("APP_ENV", "")
	t.Cleanup(func() {
		os.Unsetenv("EPAPER_A")
		os.Unsetenv("EPAPER_B")
	})

	files := LoadDotEnv(dir)
	assert.Len(t, files, 2)
	assert.Equal(t, "base", os.Getenv("EPAPER_A"))
	assert.Equal(t, "local", os.Getenv("EPAPER_B"))
	assert.Equal(t, "process", os.Getenv("EPAPER_C"))
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	assert.Empty(t, LoadDotEnv(t.TempDir()))
}
