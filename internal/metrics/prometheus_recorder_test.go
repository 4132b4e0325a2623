package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncDownloadStarted()
	pr.IncDownloadOutcome(OutcomeSuccess)
	pr.IncDownloadOutcome(OutcomeFailed)
	pr.ObserveDownloadDuration(3 * time.Second)
	pr.IncDownloadRetry()
	pr.SetActiveDownloads(2)
	pr.ObserveNormalization(true)
	pr.ObserveNormalization(false)
	pr.ObserveHTTPRequest(http.MethodPost, "/api/downloads/download", http.StatusAccepted, 5*time.Millisecond)

	require.InDelta(t, 1, testutil.ToFloat64(pr.downloadsStarted), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.downloadOutcome.WithLabelValues("failed")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(pr.activeDownloads), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.normalizations.WithLabelValues("changed")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.httpRequests.WithLabelValues("POST", "/api/downloads/download", "202")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncDownloadStarted()
	pr.ObserveNormalization(true)
	pr.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
}

func TestHTTPHandler(t *testing.T) {
	reg := NewRegistry()
	NewPrometheusRecorder(reg).IncDownloadStarted()

	w := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.True(t, strings.Contains(body, "ytdlpd_downloads_started_total"), body)
	require.Contains(t, body, "go_goroutines")
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
