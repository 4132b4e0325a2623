package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
	"git.home.luguber.info/inful/ytdlpd/internal/version"
)

// DaemonInterface defines the daemon methods needed by monitoring handlers.
type DaemonInterface interface {
	GetStatus() string
	GetStartTime() time.Time
	ActiveDownloads() int
	// Ready returns nil when downloads can be accepted.
	Ready() error
}

// MonitoringHandlers contains health and readiness handlers.
type MonitoringHandlers struct {
	daemon       DaemonInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(daemon DaemonInterface) *MonitoringHandlers {
	return &MonitoringHandlers{
		daemon:       daemon,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleHealthCheck handles the liveness endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
	}
	if h.daemon != nil {
		health.Uptime = time.Since(h.daemon.GetStartTime()).Seconds()
		health.DaemonStatus = h.daemon.GetStatus()
		health.ActiveDownloads = h.daemon.ActiveDownloads()
	}
	respond(h.errorAdapter, w, r, http.StatusOK, health)
}

// HandleReadiness reports 200 once the daemon is running and its
// directories are usable, 503 otherwise.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	if h.daemon == nil {
		respond(h.errorAdapter, w, r, http.StatusServiceUnavailable, &responses.ReadinessResponse{Reason: "daemon not initialized"})
		return
	}
	if err := h.daemon.Ready(); err != nil {
		reason := err.Error()
		if ce, ok := errors.AsClassified(err); ok {
			reason = ce.Message()
		}
		respond(h.errorAdapter, w, r, http.StatusServiceUnavailable, &responses.ReadinessResponse{Reason: reason})
		return
	}
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.ReadinessResponse{Ready: true})
}
