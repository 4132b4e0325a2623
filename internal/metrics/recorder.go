package metrics

import "time"

// OutcomeLabel enumerates final download job states for counters.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks. Implementations must be safe for
// concurrent use.
type Recorder interface {
	IncDownloadStarted()
	IncDownloadOutcome(outcome OutcomeLabel)
	ObserveDownloadDuration(d time.Duration)
	IncDownloadRetry()
	SetActiveDownloads(n int)
	ObserveNormalization(changed bool)
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncDownloadStarted()                                      {}
func (NoopRecorder) IncDownloadOutcome(OutcomeLabel)                          {}
func (NoopRecorder) ObserveDownloadDuration(time.Duration)                    {}
func (NoopRecorder) IncDownloadRetry()                                        {}
func (NoopRecorder) SetActiveDownloads(int)                                   {}
func (NoopRecorder) ObserveNormalization(bool)                                {}
func (NoopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
