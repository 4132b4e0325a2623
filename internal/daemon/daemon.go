// Package daemon wires the ytdlpd components together and owns their
// lifecycle.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/dispatch"
	"git.home.luguber.info/inful/ytdlpd/internal/download"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/metrics"
	"git.home.luguber.info/inful/ytdlpd/internal/notify"
	"git.home.luguber.info/inful/ytdlpd/internal/server/httpserver"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
	"git.home.luguber.info/inful/ytdlpd/internal/version"
)

// Status represents the current state of the daemon
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Option customizes daemon construction.
type Option func(*Daemon)

// WithRunner replaces the yt-dlp launcher.
func WithRunner(r download.Runner) Option {
	return func(d *Daemon) { d.runner = r }
}

// Daemon represents the main daemon service
type Daemon struct {
	config    *config.Config
	status    atomic.Value // Status
	startTime time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex

	configs    *store.ConfigStore
	cookies    *store.CookieStore
	runner     download.Runner
	dispatcher *dispatch.Dispatcher

	registry *prom.Registry
	recorder metrics.Recorder

	eventStore eventstore.Store
	projection *eventstore.HistoryProjection
	publisher  *notify.Publisher

	httpServer    *httpserver.Server
	scheduler     *Scheduler
	configWatcher *ConfigWatcher
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("configuration is required").Build()
	}

	d := &Daemon{
		config:   cfg,
		stopChan: make(chan struct{}),
		recorder: metrics.NoopRecorder{},
	}
	d.status.Store(StatusStopped)
	for _, opt := range opts {
		opt(d)
	}

	if cfg.Monitoring.Metrics.Enabled {
		d.registry = metrics.NewRegistry()
		d.recorder = metrics.NewPrometheusRecorder(d.registry)
	}

	d.configs = store.NewConfigStore(cfg.Paths.Configs, cfg.NewNormalizer(), d.recorder)
	d.cookies = store.NewCookieStore(cfg.Paths.Cookies)
	if d.runner == nil {
		d.runner = download.NewLauncher(cfg.YtDlp)
	}

	d.dispatcher = dispatch.New(d.runner, d.configs, d.cookies)
	d.dispatcher.ConfigureRetry(cfg.YtDlp)
	d.dispatcher.SetHistorySize(cfg.Storage.HistorySize)
	d.dispatcher.SetRecorder(d.recorder)

	var sinks dispatch.FanOut
	if cfg.Storage.EventsDB != "" {
		if err := d.openEventStore(); err != nil {
			return nil, err
		}
		sinks = append(sinks, eventstore.NewEmitter(d.eventStore, d.projection))
	}
	if cfg.Notify.NATS.Enabled {
		pub, err := notify.Connect(cfg.Notify.NATS)
		if err != nil {
			d.closeEventStore()
			return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to initialize NATS publisher").
				WithContext("url", cfg.Notify.NATS.URL).Build()
		}
		d.publisher = pub
		sinks = append(sinks, pub)
	}
	if len(sinks) > 0 {
		d.dispatcher.SetEventEmitter(sinks)
	}

	serverOpts := httpserver.Options{
		Runtime:    d,
		Dispatcher: d.dispatcher,
		Configs:    d.configs,
		Cookies:    d.cookies,
		Recorder:   d.recorder,
	}
	if d.registry != nil {
		serverOpts.Gatherer = d.registry
	}
	if d.eventStore != nil {
		serverOpts.History = d.projection
		serverOpts.Events = d.eventStore
	}
	d.httpServer = httpserver.New(cfg, serverOpts)

	if err := d.initScheduler(); err != nil {
		d.closeSinks()
		return nil, err
	}

	if cfg.Watch.Enabled {
		w, err := NewConfigWatcher(cfg.Paths.Configs, d.configs, cfg.Watch.DebounceDuration())
		if err != nil {
			d.closeSinks()
			return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create config watcher").Build()
		}
		d.configWatcher = w
	}

	return d, nil
}

func (d *Daemon) openEventStore() error {
	path := d.config.Storage.EventsDB
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create event store directory").
				WithContext("path", dir).Build()
		}
	}
	st, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	d.eventStore = st
	d.projection = eventstore.NewHistoryProjection(st, d.config.Storage.HistorySize)

	// Non-fatal: the projection starts empty.
	if err := d.projection.Rebuild(context.Background()); err != nil {
		slog.Warn("Failed to rebuild job history projection", logfields.Error(err))
	}
	return nil
}

func (d *Daemon) initScheduler() error {
	sweep := d.config.Schedule.ConfigSweepInterval()
	prune := d.config.Schedule.RetentionPruneInterval()
	retention := d.config.Storage.EventRetentionDuration()
	if sweep <= 0 && (prune <= 0 || d.eventStore == nil) {
		return nil
	}

	s, err := NewScheduler()
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Build()
	}
	if sweep > 0 {
		if _, err := s.ScheduleConfigSweep(sweep, d.configs); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule config sweep").Build()
		}
	}
	if prune > 0 && d.eventStore != nil {
		if retention <= 0 {
			slog.Warn("Retention prune scheduled without retention, skipping", logfields.ScheduleName(jobRetentionPrune))
		} else if _, err := s.ScheduleRetentionPrune(prune, retention, d.eventStore); err != nil {
			return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule retention prune").Build()
		}
	}
	d.scheduler = s
	return nil
}

// Start starts the daemon and all its components, then blocks until ctx is
// canceled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if s := d.getStatus(); s != StatusStopped {
		d.mu.Unlock()
		return errors.DaemonError("daemon is not in stopped state").WithContext("status", string(s)).Build()
	}

	d.status.Store(StatusStarting)
	d.startTime = time.Now()
	slog.Info("Starting ytdlpd daemon", slog.String("version", version.Version))

	for _, dir := range []string{d.config.Paths.Configs, d.config.Paths.Cookies} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			slog.Warn("Failed to create directory", logfields.Path(dir), logfields.Error(err))
		}
	}

	if err := d.httpServer.Start(ctx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	if d.configWatcher != nil {
		if err := d.configWatcher.Start(ctx); err != nil {
			slog.Error("Failed to start config watcher", logfields.Error(err))
		}
	}

	d.status.Store(StatusRunning)
	slog.Info("ytdlpd daemon started successfully",
		slog.String("addr", d.Addr().String()),
		slog.String("configs_dir", d.config.Paths.Configs),
		slog.String("downloads_dir", d.config.Paths.Downloads),
		slog.String("archive_dir", d.config.Paths.Archive),
		slog.String("cookies_dir", d.config.Paths.Cookies),
		slog.Bool("event_store", d.eventStore != nil),
		slog.Bool("nats", d.publisher != nil),
		slog.Bool("watch", d.configWatcher != nil))

	// Release lock before blocking so status reads are not held up.
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		slog.Info("Daemon stopped by context cancellation")
	case <-d.stopChan:
		slog.Info("Daemon stopped by stop signal")
	}
	return nil
}

// Stop gracefully shuts down the daemon. Running downloads are canceled.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.getStatus() {
	case StatusStopping:
		return nil
	case StatusStopped:
		// Never started or already stopped; release stores opened by NewDaemon.
		d.closeSinks()
		return nil
	}

	d.status.Store(StatusStopping)
	slog.Info("Stopping ytdlpd daemon")
	d.stopOnce.Do(func() { close(d.stopChan) })

	// Stop components in reverse order
	if d.configWatcher != nil {
		if err := d.configWatcher.Stop(); err != nil {
			slog.Error("Failed to stop config watcher", logfields.Error(err))
		}
	}

	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Error("Failed to stop scheduler", logfields.Error(err))
		}
	}

	if err := d.httpServer.Stop(ctx); err != nil {
		slog.Error("Failed to stop HTTP server", logfields.Error(err))
	}

	var stopErr error
	if err := d.dispatcher.Stop(ctx); err != nil {
		slog.Error("Downloads did not finish before shutdown deadline", logfields.Error(err))
		stopErr = err
	}

	d.closeSinks()
	d.status.Store(StatusStopped)

	slog.Info("ytdlpd daemon stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return stopErr
}

func (d *Daemon) closeSinks() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			slog.Error("Failed to close NATS publisher", logfields.Error(err))
		}
		d.publisher = nil
	}
	d.closeEventStore()
}

func (d *Daemon) closeEventStore() {
	if d.eventStore != nil {
		if err := d.eventStore.Close(); err != nil {
			slog.Error("Failed to close event store", logfields.Error(err))
		}
		d.eventStore = nil
	}
}

func (d *Daemon) getStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStatus returns the current daemon status
func (d *Daemon) GetStatus() string { return string(d.getStatus()) }

// GetStartTime returns the daemon start time
func (d *Daemon) GetStartTime() time.Time { return d.startTime }

// ActiveDownloads returns the number of unfinished download jobs.
func (d *Daemon) ActiveDownloads() int { return d.dispatcher.ActiveCount() }

// Ready reports whether downloads can be accepted.
func (d *Daemon) Ready() error {
	if s := d.getStatus(); s != StatusRunning {
		return errors.DaemonError("daemon is not running").WithContext("status", string(s)).Build()
	}
	info, err := os.Stat(d.config.Paths.Configs)
	if err != nil || !info.IsDir() {
		return errors.DaemonError("configs directory is not available").
			WithContext("path", d.config.Paths.Configs).Build()
	}
	return nil
}

// Addr returns the bound HTTP address, or nil before Start.
func (d *Daemon) Addr() net.Addr { return d.httpServer.Addr() }

// Dispatcher exposes the job dispatcher.
func (d *Daemon) Dispatcher() *dispatch.Dispatcher { return d.dispatcher }
