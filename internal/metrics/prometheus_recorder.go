package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "ytdlpd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	downloadsStarted prom.Counter
	downloadOutcome  *prom.CounterVec
	downloadDuration prom.Histogram
	downloadRetries  prom.Counter
	activeDownloads  prom.Gauge
	normalizations   *prom.CounterVec
	httpRequests     *prom.CounterVec
	httpDuration     *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		downloadsStarted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_started_total",
			Help:      "Download jobs launched",
		}),
		downloadOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "download_outcomes_total",
			Help:      "Download jobs by final status",
		}, []string{"outcome"}),
		downloadDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Wall time of download jobs including retries",
			Buckets:   prom.ExponentialBuckets(1, 2, 14),
		}),
		downloadRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "download_retries_total",
			Help:      "Download attempts retried after a failure",
		}),
		activeDownloads: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "active_downloads",
			Help:      "Download jobs currently running",
		}),
		normalizations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "config_normalizations_total",
			Help:      "Config normalizations by whether content changed",
		}, []string{"result"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(pr.downloadsStarted, pr.downloadOutcome, pr.downloadDuration, pr.downloadRetries,
		pr.activeDownloads, pr.normalizations, pr.httpRequests, pr.httpDuration)
	return pr
}

func (p *PrometheusRecorder) IncDownloadStarted() {
	if p == nil {
		return
	}
	p.downloadsStarted.Inc()
}

func (p *PrometheusRecorder) IncDownloadOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.downloadOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveDownloadDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.downloadDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDownloadRetry() {
	if p == nil {
		return
	}
	p.downloadRetries.Inc()
}

func (p *PrometheusRecorder) SetActiveDownloads(n int) {
	if p == nil {
		return
	}
	p.activeDownloads.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveNormalization(changed bool) {
	if p == nil {
		return
	}
	res := "unchanged"
	if changed {
		res = "changed"
	}
	p.normalizations.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
