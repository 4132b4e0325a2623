// Package httpserver wires the ytdlpd HTTP API: routes, middleware and the
// listener lifecycle.
package httpserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"golang.org/x/net/netutil"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/metrics"
	"git.home.luguber.info/inful/ytdlpd/internal/server/handlers"
	smw "git.home.luguber.info/inful/ytdlpd/internal/server/middleware"
)

// Server manages the API endpoint.
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *errors.HTTPErrorAdapter

	monitoringHandlers *handlers.MonitoringHandlers
	apiHandlers        *handlers.APIHandlers
	downloadHandlers   *handlers.DownloadHandlers
	configHandlers     *handlers.ConfigHandlers
	cookieHandlers     *handlers.CookieHandlers

	mchain func(http.Handler) http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}

	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.Runtime)
	s.apiHandlers = handlers.NewAPIHandlers(cfg, opts.Runtime)
	s.downloadHandlers = handlers.NewDownloadHandlers(opts.Dispatcher, opts.History, opts.Events)
	s.configHandlers = handlers.NewConfigHandlers(opts.Configs)
	s.cookieHandlers = handlers.NewCookieHandlers(opts.Cookies)

	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, smw.Options{
		Recorder: opts.Recorder,
		CORS:     cfg.HTTP.CORSEnabled(),
	})
	return s
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler() http.Handler {
	return s.mchain(s.routes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/downloads/download", s.downloadHandlers.HandleDownload)
	mux.HandleFunc("GET /api/downloads", s.downloadHandlers.HandleList)
	mux.HandleFunc("GET /api/downloads/{id}", s.downloadHandlers.HandleGet)
	mux.HandleFunc("DELETE /api/downloads/{id}", s.downloadHandlers.HandleCancel)
	mux.HandleFunc("GET /api/downloads/{id}/events", s.downloadHandlers.HandleEvents)

	mux.HandleFunc("GET /api/configs", s.configHandlers.HandleList)
	mux.HandleFunc("POST /api/configs/normalize", s.configHandlers.HandlePreview)
	mux.HandleFunc("POST /api/configs/normalize-all", s.configHandlers.HandleNormalizeAll)
	mux.HandleFunc("GET /api/configs/{name}", s.configHandlers.HandleGet)
	mux.HandleFunc("POST /api/configs/{name}", s.configHandlers.HandleCreate)
	mux.HandleFunc("PUT /api/configs/{name}", s.configHandlers.HandleUpdate)
	mux.HandleFunc("DELETE /api/configs/{name}", s.configHandlers.HandleDelete)
	mux.HandleFunc("POST /api/configs/{name}/normalize", s.configHandlers.HandleNormalize)

	mux.HandleFunc("GET /api/cookies", s.cookieHandlers.HandleList)
	mux.HandleFunc("GET /api/cookies/{name}", s.cookieHandlers.HandleGet)
	mux.HandleFunc("POST /api/cookies/{name}", s.cookieHandlers.HandleCreate)
	mux.HandleFunc("PUT /api/cookies/{name}", s.cookieHandlers.HandleUpdate)
	mux.HandleFunc("DELETE /api/cookies/{name}", s.cookieHandlers.HandleDelete)

	mux.HandleFunc("GET /api/daemon/status", s.apiHandlers.HandleDaemonStatus)

	healthPath := s.cfg.Monitoring.Health.Path
	mux.HandleFunc("GET "+healthPath, s.monitoringHandlers.HandleHealthCheck)
	if healthPath != "/healthz" {
		mux.HandleFunc("GET /healthz", s.monitoringHandlers.HandleHealthCheck) // Kubernetes-style alias
	}
	mux.HandleFunc("GET /ready", s.monitoringHandlers.HandleReadiness)
	mux.HandleFunc("GET /readyz", s.monitoringHandlers.HandleReadiness)

	if s.cfg.Monitoring.Metrics.Enabled {
		mux.Handle("GET "+s.cfg.Monitoring.Metrics.Path, metrics.HTTPHandler(s.opts.Gatherer))
	}
	return mux
}

// Start binds the configured address and serves in the background. Bind
// errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.HTTP.Host, strconv.Itoa(s.cfg.HTTP.Port))
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "http startup failed").
			WithContext("addr", addr).
			Build()
	}
	return s.Serve(ln)
}

// Serve runs the API on an existing listener, capped to http.max_connections
// concurrent connections when configured.
func (s *Server) Serve(ln net.Listener) error {
	if limit := s.cfg.HTTP.MaxConnections; limit > 0 {
		ln = netutil.LimitListener(ln, limit)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.HTTP.ReadTimeoutDuration(),
		WriteTimeout: s.cfg.HTTP.WriteTimeoutDuration(),
		IdleTimeout:  s.cfg.HTTP.IdleTimeoutDuration(),
		ErrorLog:     slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", logfields.Error(err))
		}
	}()
	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()),
		slog.Int("max_connections", s.cfg.HTTP.MaxConnections))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "api server shutdown").Build()
	}
	slog.Info("HTTP server stopped")
	return nil
}
