package preview

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/handbook/internal/metrics"
)

// LiveReloadPath is the SSE endpoint pages subscribe to.
const LiveReloadPath = "/__livereload"

const pingInterval = 30 * time.Second

// event is the data payload of one SSE message. Exactly one field is set.
type event struct {
	Hash  string `json:"hash,omitempty"`
	Error string `json:"error,omitempty"`
}

// LiveReloadHub manages SSE clients for output hash broadcasts.
type LiveReloadHub struct {
	mu       sync.Mutex
	nextID   int
	clients  map[int]*lrClient
	recorder metrics.Recorder
	closed   bool
	lastHash string
}

type lrClient struct {
	ch   chan []byte
	done chan struct{}
}

// NewLiveReloadHub returns an empty hub. A nil recorder disables client
// gauges.
func NewLiveReloadHub(rec metrics.Recorder) *LiveReloadHub {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &LiveReloadHub{clients: map[int]*lrClient{}, recorder: rec}
}

// ServeHTTP streams events to one client until it disconnects or the hub
// shuts down. The current hash, if any, is sent right after connecting.
func (h *LiveReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	client := &lrClient{ch: make(chan []byte, 8), done: make(chan struct{})}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	id := h.nextID
	h.nextID++
	h.clients[id] = client
	current := h.lastHash
	h.recorder.SetLiveReloadClients(len(h.clients))
	h.mu.Unlock()
	defer h.removeClient(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			slog.Debug("livereload write", "error", err)
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	greeting := ": connected\n\n"
	if current != "" {
		greeting += "data: " + string(encode(event{Hash: current})) + "\n\n"
	}
	if !send(greeting) {
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-ping.C:
			if !send(": ping\n\n") {
				return
			}
		case data := <-client.ch:
			if !send("data: " + string(data) + "\n\n") {
				return
			}
		}
	}
}

func (h *LiveReloadHub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
		h.recorder.SetLiveReloadClients(len(h.clients))
	}
}

// Broadcast sends a new output hash to all clients. Repeating the last
// hash is a no-op so unchanged rebuilds do not reload pages.
func (h *LiveReloadHub) Broadcast(hash string) {
	h.mu.Lock()
	if hash == "" || hash == h.lastHash {
		h.mu.Unlock()
		return
	}
	h.lastHash = hash
	h.mu.Unlock()
	h.send(encode(event{Hash: hash}))
}

// BroadcastError tells clients that a rebuild failed; pages stay as they
// are.
func (h *LiveReloadHub) BroadcastError(msg string) {
	h.send(encode(event{Error: msg}))
}

// send delivers data to every client, dropping clients whose buffers are
// full.
func (h *LiveReloadHub) send(data []byte) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	snapshot := make(map[int]*lrClient, len(h.clients))
	for id, c := range h.clients {
		snapshot[id] = c
	}
	h.mu.Unlock()

	dropped := 0
	for id, c := range snapshot {
		select {
		case c.ch <- data:
		default:
			dropped++
			h.removeClient(id)
		}
	}
	slog.Debug("livereload broadcast", "clients", len(snapshot), "dropped", dropped)
}

// Hash returns the last broadcast output hash.
func (h *LiveReloadHub) Hash() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHash
}

// Clients returns the number of connected clients.
func (h *LiveReloadHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects all clients and rejects new ones.
func (h *LiveReloadHub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*lrClient{}
	h.recorder.SetLiveReloadClients(0)
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

func encode(e event) []byte {
	data, _ := json.Marshal(e)
	return data
}
