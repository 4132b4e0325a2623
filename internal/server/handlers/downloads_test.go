package handlers

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/ytdlpd/internal/dispatch"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/server/responses"
)

func TestHandleDownload_Accepted(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json string", "application/json", `"https://example.com/watch?v=1"`},
		{"json object", "application/json", `{"url": "https://example.com/watch?v=1"}`},
		{"plain text", "text/plain", "https://example.com/watch?v=1\n"},
		{"no content type", "", `"https://example.com/watch?v=1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDispatcher()
			h := NewDownloadHandlers(d, nil, nil)

			rec := serve(t, "POST /api/downloads/download", h.HandleDownload,
				http.MethodPost, "/api/downloads/download?confName=music&cookieName=yt.txt", tt.contentType, tt.body)
			require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

			resp := decode[responses.DownloadAcceptedResponse](t, rec)
			require.Equal(t, "https://example.com/watch?v=1", resp.URL)
			require.Equal(t, "music", resp.Config)
			require.Equal(t, "yt.txt", resp.Cookie)
			require.NotEmpty(t, resp.JobID)

			job, ok := d.Snapshot(resp.JobID)
			require.True(t, ok)
			require.Equal(t, "music", job.Config)
		})
	}
}

func TestHandleDownload_AliasQueryParams(t *testing.T) {
	d := newFakeDispatcher()
	h := NewDownloadHandlers(d, nil, nil)

	rec := serve(t, "POST /api/downloads/download", h.HandleDownload,
		http.MethodPost, "/api/downloads/download?config=video", "text/plain", "https://example.com/v")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "video", decode[responses.DownloadAcceptedResponse](t, rec).Config)
}

func TestHandleDownload_Rejected(t *testing.T) {
	d := newFakeDispatcher()
	d.submitErr = errors.ValidationError("config not found").WithContext("config", "nope").Build()
	h := NewDownloadHandlers(d, nil, nil)

	rec := serve(t, "POST /api/downloads/download", h.HandleDownload,
		http.MethodPost, "/api/downloads/download?confName=nope", "text/plain", "https://example.com/v")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errors.HTTPErrorResponse](t, rec)
	require.Equal(t, "config not found", resp.Error)
	require.Equal(t, string(errors.CategoryValidation), resp.Code)
}

func TestHandleDownload_MalformedJSON(t *testing.T) {
	h := NewDownloadHandlers(newFakeDispatcher(), nil, nil)

	rec := serve(t, "POST /api/downloads/download", h.HandleDownload,
		http.MethodPost, "/api/downloads/download?confName=music", "application/json", `{"link": "x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListGetCancel(t *testing.T) {
	d := newFakeDispatcher()
	require.NoError(t, d.Submit(&dispatch.Job{URL: "https://example.com/a", Config: "music"}))
	h := NewDownloadHandlers(d, nil, nil)

	rec := serve(t, "GET /api/downloads", h.HandleList, http.MethodGet, "/api/downloads", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[responses.DownloadListResponse](t, rec)
	require.Equal(t, 1, list.Count)
	require.Equal(t, 1, list.Active)

	rec = serve(t, "GET /api/downloads/{id}", h.HandleGet, http.MethodGet, "/api/downloads/job-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[responses.DownloadStatusResponse](t, rec)
	require.NotNil(t, status.Job)
	require.Equal(t, "job-1", status.Job.ID)

	rec = serve(t, "GET /api/downloads/{id}", h.HandleGet, http.MethodGet, "/api/downloads/missing", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, "DELETE /api/downloads/{id}", h.HandleCancel, http.MethodDelete, "/api/downloads/job-1", "", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = serve(t, "DELETE /api/downloads/{id}", h.HandleCancel, http.MethodDelete, "/api/downloads/job-1", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGet_FallsBackToHistory(t *testing.T) {
	st, err := eventstore.NewSQLiteStore(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	projection := eventstore.NewHistoryProjection(st, 10)
	emitter := eventstore.NewEmitter(st, projection)
	require.NoError(t, emitter.EmitDownloadStarted(t.Context(), "old-job", eventstore.DownloadStartedMeta{
		URL:    "https://example.com/old",
		Config: "music",
	}))
	require.NoError(t, emitter.EmitDownloadCompleted(t.Context(), "old-job", eventstore.DownloadCompletedMeta{Attempts: 1}))

	h := NewDownloadHandlers(newFakeDispatcher(), projection, st)

	rec := serve(t, "GET /api/downloads/{id}", h.HandleGet, http.MethodGet, "/api/downloads/old-job", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[responses.DownloadStatusResponse](t, rec)
	require.Nil(t, status.Job)
	require.NotNil(t, status.Summary)
	require.Equal(t, "https://example.com/old", status.Summary.URL)

	rec = serve(t, "GET /api/downloads/{id}/events", h.HandleEvents, http.MethodGet, "/api/downloads/old-job/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[responses.JobEventsResponse](t, rec)
	require.Len(t, events.Events, 2)
	require.Equal(t, eventstore.TypeDownloadStarted, events.Events[0].Type)
	require.Equal(t, eventstore.TypeDownloadCompleted, events.Events[1].Type)

	rec = serve(t, "GET /api/downloads/{id}/events", h.HandleEvents, http.MethodGet, "/api/downloads/unknown/events", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleEvents_Disabled(t *testing.T) {
	h := NewDownloadHandlers(newFakeDispatcher(), nil, nil)

	rec := serve(t, "GET /api/downloads/{id}/events", h.HandleEvents, http.MethodGet, "/api/downloads/x/events", "", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
