// Package metrics provides the observability hooks used by the download
// dispatcher, the config store and the HTTP layer.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites. When
// monitoring.metrics.enabled is set the daemon injects a PrometheusRecorder
// and serves its registry through HTTPHandler.
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
