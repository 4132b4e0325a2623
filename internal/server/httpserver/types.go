package httpserver

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/ytdlpd/internal/metrics"
	"git.home.luguber.info/inful/ytdlpd/internal/server/handlers"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// Options carries the runtime dependencies of the HTTP API.
type Options struct {
	Runtime    handlers.DaemonInterface
	Dispatcher handlers.Dispatcher
	Configs    *store.ConfigStore
	Cookies    *store.CookieStore

	// Optional: event store backed job history.
	History handlers.JobHistory
	Events  handlers.EventReader

	// Optional: request metrics and the registry served on the metrics path.
	Recorder metrics.Recorder
	Gatherer prom.Gatherer
}
