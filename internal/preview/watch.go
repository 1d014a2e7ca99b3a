package preview

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/handbook/internal/config"
)

// watchSet describes the inputs of a build: directory trees watched
// recursively and single files watched through their parent directory.
type watchSet struct {
	trees []string
	files map[string]bool
}

// newWatchSet collects the docs, i18n and static trees plus the sidebar
// and configuration files. Missing trees are skipped.
func newWatchSet(cfg *config.Config, configPath string) *watchSet {
	ws := &watchSet{files: map[string]bool{}}
	for _, dir := range []string{cfg.DocsDir(), cfg.Resolve("i18n"), cfg.Resolve(cfg.StaticDir)} {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			ws.trees = append(ws.trees, filepath.Clean(dir))
		}
	}
	ws.files[filepath.Clean(cfg.SidebarFile())] = true
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			ws.files[abs] = true
		}
	}
	return ws
}

// add registers every tree directory and the parent directories of the
// single files with w.
func (ws *watchSet) add(w *fsnotify.Watcher) error {
	for _, dir := range ws.trees {
		if err := addDirsRecursive(w, dir); err != nil {
			return err
		}
	}
	parents := map[string]bool{}
	for f := range ws.files {
		parents[filepath.Dir(f)] = true
	}
	for dir := range parents {
		if err := w.Add(dir); err != nil {
			slog.Warn("watch add failed", "dir", dir, "error", err)
		}
	}
	return nil
}

// relevant reports whether a change to path affects the build. Parent
// directories of single files see unrelated traffic, such as the output
// directory being rewritten, which is filtered out here.
func (ws *watchSet) relevant(path string) bool {
	if shouldIgnoreEvent(path) {
		return false
	}
	path = filepath.Clean(path)
	if ws.files[path] {
		return true
	}
	for _, dir := range ws.trees {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// isConfig reports whether path is the configuration file.
func (ws *watchSet) isConfig(path, configPath string) bool {
	if configPath == "" {
		return false
	}
	abs, err := filepath.Abs(configPath)
	return err == nil && filepath.Clean(path) == abs
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	// editor temp and swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
