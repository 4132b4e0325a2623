package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
	"git.home.luguber.info/inful/ytdlpd/internal/version"
)

// APIHandlers contains daemon-level API handlers.
type APIHandlers struct {
	config       *config.Config
	daemon       DaemonInterface
	errorAdapter *errors.HTTPErrorAdapter
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(cfg *config.Config, daemon DaemonInterface) *APIHandlers {
	return &APIHandlers{
		config:       cfg,
		daemon:       daemon,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleDaemonStatus handles GET /api/daemon/status.
func (h *APIHandlers) HandleDaemonStatus(w http.ResponseWriter, r *http.Request) {
	cfg := h.config
	status := &responses.DaemonStatusResponse{
		Status:          h.daemon.GetStatus(),
		Version:         version.Version,
		Uptime:          time.Since(h.daemon.GetStartTime()).Seconds(),
		StartTime:       h.daemon.GetStartTime(),
		ActiveDownloads: h.daemon.ActiveDownloads(),
		Config: responses.DaemonConfigSummary{
			ConfigsDir:     cfg.Paths.Configs,
			DownloadsDir:   cfg.Paths.Downloads,
			ArchiveDir:     cfg.Paths.Archive,
			CookiesDir:     cfg.Paths.Cookies,
			Binary:         cfg.YtDlp.Binary,
			MaxRetries:     cfg.YtDlp.MaxRetries,
			StrictPrefix:   cfg.Normalizer.StrictPrefix,
			ConfineCookies: cfg.Normalizer.ConfineCookies,
			EventStore:     cfg.Storage.EventsDB != "",
			NATS:           cfg.Notify.NATS.Enabled,
			Watch:          cfg.Watch.Enabled,
		},
	}
	respond(h.errorAdapter, w, r, http.StatusOK, status)
}
