package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/dispatch"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/server/middleware"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
)

// Dispatcher is the job API used by download handlers.
type Dispatcher interface {
	Submit(job *dispatch.Job) error
	Snapshot(id string) (*dispatch.Job, bool)
	List() []*dispatch.Job
	Cancel(id string) bool
	ActiveCount() int
}

// JobHistory resolves jobs that are no longer held by the dispatcher.
type JobHistory interface {
	Get(jobID string) (eventstore.JobSummary, bool)
}

// EventReader reads persisted job events.
type EventReader interface {
	GetByJobID(ctx context.Context, jobID string) ([]eventstore.Event, error)
}

// DownloadHandlers serves /api/downloads.
type DownloadHandlers struct {
	dispatcher   Dispatcher
	history      JobHistory
	events       EventReader
	errorAdapter *errors.HTTPErrorAdapter
}

// NewDownloadHandlers creates download handlers. history and events may be
// nil when the event store is disabled.
func NewDownloadHandlers(dispatcher Dispatcher, history JobHistory, events EventReader) *DownloadHandlers {
	return &DownloadHandlers{
		dispatcher:   dispatcher,
		history:      history,
		events:       events,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleDownload accepts POST /api/downloads/download?confName=&cookieName=.
// The body is the URL as a JSON string, a {"url": ...} object or plain text.
func (h *DownloadHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	correlationID := middleware.CorrelationID(r.Context())
	q := r.URL.Query()
	confName := firstNonEmpty(q.Get("confName"), q.Get("config"))
	cookieName := firstNonEmpty(q.Get("cookieName"), q.Get("cookie"))

	url, err := decodeText(r, "url")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	url = strings.TrimSpace(url)

	slog.Info("Download request received",
		logfields.CorrelationID(correlationID),
		logfields.URL(url),
		logfields.Config(confName),
		logfields.Cookie(cookieName))

	job := &dispatch.Job{URL: url, Config: confName, Cookie: cookieName, CorrelationID: correlationID}
	if err := h.dispatcher.Submit(job); err != nil {
		slog.Warn("Download validation failed", logfields.CorrelationID(correlationID), logfields.Error(err))
		h.errorAdapter.WriteErrorResponse(w, r, errorWithCorrelation(err, correlationID))
		return
	}

	respond(h.errorAdapter, w, r, http.StatusAccepted, &responses.DownloadAcceptedResponse{
		Message:       "Download started in background",
		URL:           job.URL,
		Config:        job.Config,
		Cookie:        job.Cookie,
		JobID:         job.ID,
		CorrelationID: correlationID,
	})
}

// HandleList serves GET /api/downloads.
func (h *DownloadHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs := h.dispatcher.List()
	respond(h.errorAdapter, w, r, http.StatusOK, &responses.DownloadListResponse{
		Count:     len(jobs),
		Active:    h.dispatcher.ActiveCount(),
		Jobs:      jobs,
		Timestamp: time.Now().UTC(),
	})
}

// HandleGet serves GET /api/downloads/{id}.
func (h *DownloadHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if job, ok := h.dispatcher.Snapshot(id); ok {
		respond(h.errorAdapter, w, r, http.StatusOK, &responses.DownloadStatusResponse{Job: job})
		return
	}
	if h.history != nil {
		if summary, ok := h.history.Get(id); ok {
			respond(h.errorAdapter, w, r, http.StatusOK, &responses.DownloadStatusResponse{Summary: &summary})
			return
		}
	}
	h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("download job not found").WithContext("job_id", id).Build())
}

// HandleCancel serves DELETE /api/downloads/{id}.
func (h *DownloadHandlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.dispatcher.Cancel(id) {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("no running download job").WithContext("job_id", id).Build())
		return
	}
	respond(h.errorAdapter, w, r, http.StatusAccepted, &responses.MessageResponse{Message: "Download cancellation requested"})
}

// HandleEvents serves GET /api/downloads/{id}/events.
func (h *DownloadHandlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NewError(errors.CategoryRuntime, "event store is disabled").Build())
		return
	}
	id := r.PathValue("id")
	events, err := h.events.GetByJobID(r.Context(), id)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if len(events) == 0 {
		if _, ok := h.dispatcher.Snapshot(id); !ok {
			h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("download job not found").WithContext("job_id", id).Build())
			return
		}
	}

	out := &responses.JobEventsResponse{JobID: id, Events: make([]responses.EventInfo, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, responses.EventInfo{
			ID:        e.ID(),
			Type:      e.Type(),
			Timestamp: e.Timestamp().UTC(),
			Payload:   e.Payload(),
			Metadata:  e.Metadata(),
		})
	}
	respond(h.errorAdapter, w, r, http.StatusOK, out)
}

func errorWithCorrelation(err error, correlationID string) error {
	if ce, ok := errors.AsClassified(err); ok && correlationID != "" {
		return ce.WithContext("correlation_id", correlationID)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
