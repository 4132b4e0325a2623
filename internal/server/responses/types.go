// Package responses defines API response types used by ytdlpd HTTP handlers.
package responses

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/confnorm"
	"git.home.luguber.info/inful/ytdlpd/internal/dispatch"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
)

// DownloadAcceptedResponse is returned once a download job runs in the background.
type DownloadAcceptedResponse struct {
	Message       string `json:"message"`
	URL           string `json:"url"`
	Config        string `json:"config"`
	Cookie        string `json:"cookie,omitempty"`
	JobID         string `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
}

// DownloadListResponse lists active and recently finished jobs.
type DownloadListResponse struct {
	Count     int             `json:"count"`
	Active    int             `json:"active"`
	Jobs      []*dispatch.Job `json:"jobs"`
	Timestamp time.Time       `json:"timestamp"`
}

// DownloadStatusResponse describes one job. Exactly one of Job and Summary
// is set: Summary is used for jobs only known from the event store.
type DownloadStatusResponse struct {
	Job     *dispatch.Job          `json:"job,omitempty"`
	Summary *eventstore.JobSummary `json:"summary,omitempty"`
}

// JobEventsResponse lists the persisted events of one job.
type JobEventsResponse struct {
	JobID  string      `json:"job_id"`
	Events []EventInfo `json:"events"`
}

// EventInfo is the API view of a stored event.
type EventInfo struct {
	ID        int64             `json:"id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NameListResponse lists stored config or cookie names.
type NameListResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// FileResponse carries the content of a stored config or cookie file.
type FileResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// NormalizeResponse reports the result of normalizing config text.
type NormalizeResponse struct {
	Name    string          `json:"name,omitempty"`
	Changed bool            `json:"changed"`
	Content string          `json:"content"`
	Lines   []confnorm.Line `json:"lines,omitempty"`
}

// NormalizeAllResponse reports a sweep over every stored config.
type NormalizeAllResponse struct {
	Results []NormalizeResponse `json:"results"`
	Changed int                 `json:"changed"`
	Errors  []string            `json:"errors,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Version         string    `json:"version"`
	Uptime          float64   `json:"uptime"`
	DaemonStatus    string    `json:"daemon_status,omitempty"`
	ActiveDownloads int       `json:"active_downloads"`
}

// ReadinessResponse reports whether the daemon can accept downloads.
type ReadinessResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// DaemonStatusResponse represents the daemon's operational status.
type DaemonStatusResponse struct {
	Status          string              `json:"status"`
	Version         string              `json:"version"`
	Uptime          float64             `json:"uptime"`
	StartTime       time.Time           `json:"start_time"`
	ActiveDownloads int                 `json:"active_downloads"`
	Config          DaemonConfigSummary `json:"config"`
}

// DaemonConfigSummary represents a summary of daemon configuration.
type DaemonConfigSummary struct {
	ConfigsDir     string `json:"configs_dir"`
	DownloadsDir   string `json:"downloads_dir"`
	ArchiveDir     string `json:"archive_dir"`
	CookiesDir     string `json:"cookies_dir"`
	Binary         string `json:"binary"`
	MaxRetries     int    `json:"max_retries"`
	StrictPrefix   bool   `json:"strict_prefix"`
	ConfineCookies bool   `json:"confine_cookies"`
	EventStore     bool   `json:"event_store"`
	NATS           bool   `json:"nats"`
	Watch          bool   `json:"watch"`
}
