// Package preview serves a built handbook locally and rebuilds it when its
// inputs change.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/handbook/internal/config"
	herrors "git.home.luguber.info/inful/handbook/internal/errors"
	"git.home.luguber.info/inful/handbook/internal/history"
	"git.home.luguber.info/inful/handbook/internal/logfields"
	"git.home.luguber.info/inful/handbook/internal/metrics"
	"git.home.luguber.info/inful/handbook/internal/site"
)

// MetricsPath serves the Prometheus registry.
const MetricsPath = "/metrics"

// Rebuild triggers, used as metric labels.
const (
	TriggerInitial = "initial"
	TriggerWatch   = "watch"
	TriggerConfig  = "config"
	TriggerPoll    = "poll"
)

const (
	debounceDelay   = 300 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. "localhost:3000".
	Addr string
	// ConfigPath is watched and reloaded on change when set.
	ConfigPath string
	// PollInterval schedules periodic full rebuilds when positive.
	PollInterval time.Duration
	History      history.Store
	Logger       *slog.Logger
}

// buildStatus tracks the current build state for error display.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (hasGoodBuild bool, err error) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.hasGoodBuild, bs.lastError
}

// Server is the preview server: one build worker, a file watcher, an
// optional rebuild schedule and an HTTP server for the output directory.
type Server struct {
	opts     Options
	logger   *slog.Logger
	registry *prom.Registry
	recorder *metrics.PrometheusRecorder
	hub      *LiveReloadHub
	status   buildStatus

	mu  sync.RWMutex
	cfg *config.Config

	// queued is the trigger of the pending rebuild; wake signals the worker.
	queueMu sync.Mutex
	queued  string
	wake    chan struct{}

	addr chan string
}

// New creates a preview server for cfg.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:3000"
	}
	reg := metrics.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	return &Server{
		opts:     opts,
		logger:   opts.Logger,
		registry: reg,
		recorder: rec,
		hub:      NewLiveReloadHub(rec),
		cfg:      cfg,
		wake:     make(chan struct{}, 1),
		addr:     make(chan string, 1),
	}
}

// Config returns the configuration the next build uses.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Hub returns the live reload hub.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Addr blocks until the server listens and returns its address.
func (s *Server) Addr(ctx context.Context) (string, error) {
	select {
	case a := <-s.addr:
		s.addr <- a
		return a, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run builds the site, serves it and rebuilds on change until ctx is
// done. A failed build is reported to the browser and the last good
// output keeps being served.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx, TriggerInitial)

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	// no write timeout: SSE connections are long lived
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second, IdleTimeout: 300 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.addr <- ln.Addr().String()
	s.logger.Info("Preview server listening",
		slog.String("url", "http://"+ln.Addr().String()+s.Config().BaseURL))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = srv.Close()
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	ws := newWatchSet(s.Config(), s.opts.ConfigPath)
	if err := ws.add(watcher); err != nil {
		_ = srv.Close()
		return err
	}

	var scheduler gocron.Scheduler
	if s.opts.PollInterval > 0 {
		scheduler, err = s.schedulePoll()
		if err != nil {
			_ = srv.Close()
			return err
		}
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.worker(ctx)
	}()

	trigger := newDebouncer(debounceDelay, s.request)
	loopErr := s.watchLoop(ctx, watcher, ws, trigger, serveErr)
	trigger.stop()

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			s.logger.Warn("scheduler shutdown", logfields.Error(err))
		}
	}
	s.hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	<-workerDone
	return loopErr
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, ws *watchSet, trigger *debouncer, serveErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down preview server")
			return nil
		case err, ok := <-serveErr:
			if ok && err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			serveErr = nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ws.relevant(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addDirsRecursive(watcher, ev.Name)
				}
			}
			s.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if ws.isConfig(ev.Name, s.opts.ConfigPath) {
				trigger.fire(TriggerConfig)
			} else {
				trigger.fire(TriggerWatch)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) schedulePoll() (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(s.opts.PollInterval),
		gocron.NewTask(s.request, TriggerPoll),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	scheduler.Start()
	s.logger.Info("Periodic rebuild scheduled", slog.Duration("interval", s.opts.PollInterval))
	return scheduler, nil
}

// request queues a rebuild. While one is already pending the request is
// folded into it, and a pending config reload is never downgraded.
func (s *Server) request(trigger string) {
	s.queueMu.Lock()
	if s.queued != TriggerConfig {
		s.queued = trigger
	}
	s.queueMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next takes the pending rebuild trigger, if any.
func (s *Server) next() (string, bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	t := s.queued
	s.queued = ""
	return t, t != ""
}

// worker runs queued rebuilds one at a time.
func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			if trigger, ok := s.next(); ok {
				s.rebuild(ctx, trigger)
			}
		}
	}
}

// rebuild runs one build and notifies browsers of the outcome.
func (s *Server) rebuild(ctx context.Context, trigger string) {
	s.recorder.IncRebuild(trigger)
	if trigger == TriggerConfig {
		if err := s.reloadConfig(); err != nil {
			s.fail(err)
			return
		}
	}

	b := site.NewBuilder(s.Config()).
		WithLogger(s.logger).
		WithRecorder(s.recorder).
		WithLiveReload(LiveReloadPath)
	if s.opts.History != nil {
		b = b.WithHistory(s.opts.History)
	}
	if trigger != TriggerInitial {
		s.logger.Info("Change detected; rebuilding site", slog.String("trigger", trigger))
	}
	report, err := b.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.fail(err)
		return
	}
	s.status.setSuccess()
	s.hub.Broadcast(report.OutputHash)
}

func (s *Server) fail(err error) {
	s.logger.Warn("rebuild failed", logfields.Error(err))
	s.status.setError(err)
	s.hub.BroadcastError(herrors.Details(err))
}

// reloadConfig swaps in the configuration file's current content. The
// listen address and base URL of the running server stay as they were.
func (s *Server) reloadConfig() error {
	cfg, err := config.Load(s.opts.ConfigPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.BaseURL != s.cfg.BaseURL || cfg.OutputDir() != s.cfg.OutputDir() {
		return herrors.ConfigInvalid("base_url", "base_url and output.directory changes need a restart of serve")
	}
	s.cfg = cfg
	s.logger.Info("Configuration reloaded", logfields.Path(s.opts.ConfigPath))
	return nil
}

// Handler routes live reload, metrics and the site.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(LiveReloadPath, s.hub)
	mux.Handle(MetricsPath, metrics.HTTPHandler(s.registry))

	base := s.Config().BaseURL
	mux.Handle(base, http.HandlerFunc(s.serveSite))
	if base != "/" {
		mux.Handle("/", http.RedirectHandler(base, http.StatusFound))
	}
	return mux
}

// serveSite serves files of the output directory below base_url. Unknown
// paths get 404.html with status 404; before any successful build the
// last build error is shown instead.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	if good, err := s.status.get(); err != nil && !good {
		serveBuildErrorPage(w, err)
		return
	}

	cfg := s.Config()
	out := cfg.OutputDir()
	rel := strings.TrimPrefix(path.Clean("/"+r.URL.Path), strings.TrimSuffix(cfg.BaseURL, "/"))
	file := filepath.Join(out, filepath.FromSlash(rel))
	if st, err := os.Stat(file); err == nil && st.IsDir() {
		if !strings.HasSuffix(r.URL.Path, "/") {
			http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
			return
		}
		file = filepath.Join(file, "index.html")
	}
	if st, err := os.Stat(file); err != nil || st.IsDir() {
		notFound(w, r, filepath.Join(out, "404.html"))
		return
	}
	http.ServeFile(w, r, file)
}

func notFound(w http.ResponseWriter, r *http.Request, page string) {
	data, err := os.ReadFile(page) // #nosec G304 -- page is inside the output directory
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}

func serveBuildErrorPage(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	page := `<!doctype html><html><head><meta charset="utf-8"><title>Build Failed</title>` +
		`<script>new EventSource("` + LiveReloadPath + `").onmessage=function(e){if(JSON.parse(e.data).hash){location.reload()}}</script>` +
		`</head><body><h1>Build Failed</h1><p>The handbook failed to build.</p>` +
		`<h2>Error Details:</h2><pre>` + html.EscapeString(herrors.Details(buildErr)) + `</pre></body></html>`
	_, _ = w.Write([]byte(page))
}

// debouncer fires fn once a burst of events has been quiet for delay.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func(trigger string)
	// config wins over watch within one burst
	pending string
}

func newDebouncer(delay time.Duration, fn func(string)) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) fire(trigger string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != TriggerConfig {
		d.pending = trigger
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		t := d.pending
		d.pending = ""
		d.mu.Unlock()
		d.fn(t)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
