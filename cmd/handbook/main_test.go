package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "handbook.yaml")

	// missing configuration is a config error
	assert.Equal(t, 7, run([]string{"-c", cfg, "build"}))

	require.Equal(t, 0, run([]string{"-c", cfg, "init"}))
	assert.Equal(t, 0, run([]string{"-c", cfg, "build"}))
	assert.FileExists(t, filepath.Join(dir, "build", "index.html"))
	assert.Equal(t, 0, run([]string{"-c", cfg, "check", "--quiet"}))

	// history is disabled in the scaffold
	assert.Equal(t, 7, run([]string{"-c", cfg, "history"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sidebars.yaml"), []byte("handbook:\n  - intro\n  - gone\n"), 0o600))
	assert.Equal(t, 2, run([]string{"-c", cfg, "build"}))
	assert.Equal(t, 2, run([]string{"-c", cfg, "check"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.Equal(t, 1, run([]string{"publish"}))
}
