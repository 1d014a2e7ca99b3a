package preview

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/handbook/internal/metrics"
)

type clientGauge struct {
	metrics.NoopRecorder
	mu     sync.Mutex
	values []int
}

func (g *clientGauge) SetLiveReloadClients(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = append(g.values, n)
}

func (g *clientGauge) snapshot() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.values...)
}

// connect opens an SSE stream against hub and returns a reader over its
// body. The stream is closed at test cleanup.
func connect(t *testing.T, hub *LiveReloadHub) *bufio.Reader {
	t.Helper()
	server := httptest.NewServer(hub)
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	t.Cleanup(func() {
		_ = resp.Body.Close()
		cancel()
		server.Close()
	})
	return bufio.NewReader(resp.Body)
}

// nextData returns the payload of the next data line.
func nextData(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			return strings.TrimSpace(payload)
		}
	}
}

func TestLiveReload_ConnectSendsCurrentHash(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	defer hub.Shutdown()
	hub.Broadcast("abc123")

	r := connect(t, hub)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	assert.JSONEq(t, `{"hash":"abc123"}`, nextData(t, r))
}

func TestLiveReload_BroadcastsHashesAndErrors(t *testing.T) {
	gauge := &clientGauge{}
	hub := NewLiveReloadHub(gauge)
	defer hub.Shutdown()

	r := connect(t, hub)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast("one")
	hub.Broadcast("one")
	hub.BroadcastError("sidebar: document \"x\" not found")
	hub.Broadcast("two")

	assert.JSONEq(t, `{"hash":"one"}`, nextData(t, r))
	assert.JSONEq(t, `{"error":"sidebar: document \"x\" not found"}`, nextData(t, r))
	assert.JSONEq(t, `{"hash":"two"}`, nextData(t, r))
	assert.Equal(t, "two", hub.Hash())
	assert.Equal(t, 1, gauge.snapshot()[0])
}

func TestLiveReload_Shutdown(t *testing.T) {
	gauge := &clientGauge{}
	hub := NewLiveReloadHub(gauge)

	r := connect(t, hub)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Shutdown()
	_, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Zero(t, hub.Clients())
	values := gauge.snapshot()
	assert.Equal(t, 0, values[len(values)-1])

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, LiveReloadPath, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// broadcasting after shutdown is a no-op
	hub.Broadcast("late")
	hub.BroadcastError("late")
}
