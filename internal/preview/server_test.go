package preview

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/config"
)

const previewConfig = `title: Preview Handbook
url: https://preview.example.com
`

// newPreviewProject writes a one page handbook and returns its loaded
// configuration and the config file path.
func newPreviewProject(t *testing.T, extra string, files map[string]string) (*config.Config, string) {
	t.Helper()
	root := t.TempDir()
	all := map[string]string{
		"handbook.yaml": previewConfig + extra,
		"docs/intro.md": "# Intro\n\nHello preview.\n",
		"sidebars.yaml": "handbook:\n  - intro\n",
	}
	for name, body := range files {
		all[name] = body
	}
	for name, body := range all {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
	configPath := filepath.Join(root, "handbook.yaml")
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	return cfg, configPath
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServer_ServesBuiltSite(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", nil)
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)
	require.NotEmpty(t, s.Hub().Hash())
	h := s.Handler()

	page := get(t, h, "/docs/intro/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Hello preview.")
	assert.Contains(t, page.Body.String(), LiveReloadPath)

	redirect := get(t, h, "/docs/intro")
	assert.Equal(t, http.StatusMovedPermanently, redirect.Code)
	assert.Equal(t, "/docs/intro/", redirect.Header().Get("Location"))

	css := get(t, h, "/assets/css/styles.css")
	assert.Equal(t, http.StatusOK, css.Code)

	missing := get(t, h, "/docs/nope/")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Contains(t, missing.Body.String(), "Page Not Found")

	m := get(t, h, MetricsPath)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `handbook_preview_rebuilds_total{trigger="initial"} 1`)
	assert.Contains(t, m.Body.String(), "handbook_pages 3")
}

func TestServer_FailedRebuildKeepsLastSite(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", nil)
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)
	hash := s.Hub().Hash()

	sidebar := filepath.Join(cfg.Root, "sidebars.yaml")
	require.NoError(t, os.WriteFile(sidebar, []byte("handbook:\n  - intro\n  - missing\n"), 0o600))
	s.rebuild(t.Context(), TriggerWatch)

	assert.Equal(t, hash, s.Hub().Hash())
	good, err := s.status.get()
	assert.True(t, good)
	require.Error(t, err)

	page := get(t, s.Handler(), "/docs/intro/")
	assert.Equal(t, http.StatusOK, page.Code)
}

func TestServer_ErrorPageBeforeFirstGoodBuild(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", map[string]string{
		"sidebars.yaml": "handbook:\n  - <missing>\n",
	})
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)
	assert.Empty(t, s.Hub().Hash())

	rec := get(t, s.Handler(), "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Build Failed")
	assert.Contains(t, body, "&lt;missing&gt;")
	assert.NotContains(t, body, "<missing>")
}

func TestServer_BaseURL(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "base_url: /handbook/\n", nil)
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)
	h := s.Handler()

	root := get(t, h, "/")
	assert.Equal(t, http.StatusFound, root.Code)
	assert.Equal(t, "/handbook/", root.Header().Get("Location"))

	page := get(t, h, "/handbook/docs/intro/")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Hello preview.")

	assert.Equal(t, http.StatusOK, get(t, h, "/handbook/").Code)
}

func TestServer_ConfigReload(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", nil)
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)

	require.NoError(t, os.WriteFile(configPath, []byte("title: Renamed\nurl: https://preview.example.com\n"), 0o600))
	s.rebuild(t.Context(), TriggerConfig)
	assert.Equal(t, "Renamed", s.Config().Title)
	assert.Contains(t, get(t, s.Handler(), "/docs/intro/").Body.String(), "Renamed")

	require.NoError(t, os.WriteFile(configPath, []byte("title: Moved\nurl: https://preview.example.com\nbase_url: /moved/\n"), 0o600))
	s.rebuild(t.Context(), TriggerConfig)
	assert.Equal(t, "Renamed", s.Config().Title)
	_, err := s.status.get()
	require.Error(t, err)
}

func TestServer_RunRebuildsOnChange(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", nil)
	s := New(cfg, Options{Addr: "127.0.0.1:0", ConfigPath: configPath})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(ctx, 10*time.Second)
	defer addrCancel()
	addr, err := s.Addr(addrCtx)
	require.NoError(t, err)
	first := s.Hub().Hash()
	require.NotEmpty(t, first)

	doc := filepath.Join(cfg.Root, "docs", "intro.md")
	require.NoError(t, os.WriteFile(doc, []byte("# Intro\n\nChanged content.\n"), 0o600))
	require.Eventually(t, func() bool { return s.Hub().Hash() != first }, 10*time.Second, 20*time.Millisecond)

	resp, err := http.Get("http://" + addr + "/docs/intro/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Changed content.")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDebouncer(t *testing.T) {
	var mu sync.Mutex
	var fired []string
	d := newDebouncer(20*time.Millisecond, func(trigger string) {
		mu.Lock()
		defer mu.Unlock()
		fired = append(fired, trigger)
	})
	defer d.stop()

	d.fire(TriggerWatch)
	d.fire(TriggerConfig)
	d.fire(TriggerWatch)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{TriggerConfig}, fired)
}

func TestServer_ConfigReloadNotLostBehindPendingRebuild(t *testing.T) {
	cfg, configPath := newPreviewProject(t, "", nil)
	s := New(cfg, Options{ConfigPath: configPath})
	s.rebuild(t.Context(), TriggerInitial)

	s.request(TriggerWatch)
	require.NoError(t, os.WriteFile(configPath, []byte(previewConfig+"tagline: Learn it live\n"), 0o600))
	s.request(TriggerConfig)
	s.request(TriggerPoll)

	trigger, ok := s.next()
	require.True(t, ok)
	assert.Equal(t, TriggerConfig, trigger)
	_, ok = s.next()
	assert.False(t, ok, "requests fold into one rebuild")

	s.rebuild(t.Context(), trigger)
	assert.Equal(t, "Learn it live", s.Config().Tagline)
}
