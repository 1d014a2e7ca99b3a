package preview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/config"
)

func TestShouldIgnoreEvent(t *testing.T) {
	assert.True(t, shouldIgnoreEvent("/tmp/.hidden.md"))
	assert.True(t, shouldIgnoreEvent("/tmp/#foo#"))
	assert.True(t, shouldIgnoreEvent("/tmp/foo.swp"))
	assert.True(t, shouldIgnoreEvent("/tmp/intro.md~"))
	assert.True(t, shouldIgnoreEvent("/tmp/.DS_Store"))
	assert.False(t, shouldIgnoreEvent("/tmp/visible.md"))
}

func TestWatchSet(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"docs/sql", "static/img", "build"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	cfg, err := config.Parse([]byte("title: T\nurl: https://example.com\n"))
	require.NoError(t, err)
	cfg.Root = root
	configPath := filepath.Join(root, "handbook.yaml")

	ws := newWatchSet(cfg, configPath)
	assert.Equal(t, []string{filepath.Join(root, "docs"), filepath.Join(root, "static")}, ws.trees)

	relevant := []string{
		"docs/intro.md",
		"docs/sql",
		"docs/sql/basics.md",
		"static/img/logo.png",
		"sidebars.yaml",
		"handbook.yaml",
	}
	for _, rel := range relevant {
		assert.True(t, ws.relevant(filepath.Join(root, rel)), rel)
	}
	for _, rel := range []string{"build/index.html", "build", "notes.txt", "docs/.intro.md.swp", "docsx/a.md"} {
		assert.False(t, ws.relevant(filepath.Join(root, rel)), rel)
	}

	assert.True(t, ws.isConfig(configPath, configPath))
	assert.False(t, ws.isConfig(filepath.Join(root, "sidebars.yaml"), configPath))
	assert.False(t, ws.isConfig(configPath, ""))
}
