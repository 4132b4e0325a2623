package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// Event type names as stored in the event_type column.
const (
	TypeDownloadStarted   = "DownloadStarted"
	TypeDownloadRetried   = "DownloadRetried"
	TypeDownloadCompleted = "DownloadCompleted"
	TypeDownloadFailed    = "DownloadFailed"
)

// DownloadStartedMeta describes the request behind a download job.
type DownloadStartedMeta struct {
	URL           string `json:"url"`
	Config        string `json:"config"`
	Cookie        string `json:"cookie,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	// ConfigChanged reports whether the config was rewritten before launch.
	ConfigChanged bool `json:"config_changed"`
}

// DownloadRetriedMeta describes a retry scheduled after a failed attempt.
type DownloadRetriedMeta struct {
	Attempt  int           `json:"attempt"`
	Delay    time.Duration `json:"delay_ms"`
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error"`
}

// DownloadCompletedMeta describes a successful download.
type DownloadCompletedMeta struct {
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration_ms"`
}

// DownloadFailedMeta describes a failed or canceled download.
type DownloadFailedMeta struct {
	Status   string        `json:"status"` // failed|canceled
	Attempts int           `json:"attempts"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration_ms"`
	Error    string        `json:"error"`
	Stderr   string        `json:"stderr,omitempty"`
}

// DownloadStarted is emitted when the dispatcher launches a job.
type DownloadStarted struct {
	BaseEvent
	Meta DownloadStartedMeta `json:"meta"`
}

// NewDownloadStarted creates a DownloadStarted event.
func NewDownloadStarted(jobID string, meta DownloadStartedMeta) (*DownloadStarted, error) {
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, marshalError(TypeDownloadStarted, jobID, err)
	}
	return &DownloadStarted{
		BaseEvent: newBase(jobID, TypeDownloadStarted, payload, map[string]string{
			"config": meta.Config,
		}),
		Meta: meta,
	}, nil
}

// DownloadRetried is emitted before the dispatcher sleeps ahead of another attempt.
type DownloadRetried struct {
	BaseEvent
	Meta DownloadRetriedMeta `json:"meta"`
}

// NewDownloadRetried creates a DownloadRetried event.
func NewDownloadRetried(jobID string, meta DownloadRetriedMeta) (*DownloadRetried, error) {
	payload, err := json.Marshal(map[string]any{
		"attempt":   meta.Attempt,
		"delay_ms":  meta.Delay.Milliseconds(),
		"exit_code": meta.ExitCode,
		"error":     meta.Error,
	})
	if err != nil {
		return nil, marshalError(TypeDownloadRetried, jobID, err)
	}
	return &DownloadRetried{BaseEvent: newBase(jobID, TypeDownloadRetried, payload, nil), Meta: meta}, nil
}

// DownloadCompleted is emitted when yt-dlp exits successfully.
type DownloadCompleted struct {
	BaseEvent
	Meta DownloadCompletedMeta `json:"meta"`
}

// NewDownloadCompleted creates a DownloadCompleted event.
func NewDownloadCompleted(jobID string, meta DownloadCompletedMeta) (*DownloadCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"attempts":    meta.Attempts,
		"duration_ms": meta.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, marshalError(TypeDownloadCompleted, jobID, err)
	}
	return &DownloadCompleted{BaseEvent: newBase(jobID, TypeDownloadCompleted, payload, nil), Meta: meta}, nil
}

// DownloadFailed is emitted when a job ends without success.
type DownloadFailed struct {
	BaseEvent
	Meta DownloadFailedMeta `json:"meta"`
}

// NewDownloadFailed creates a DownloadFailed event.
func NewDownloadFailed(jobID string, meta DownloadFailedMeta) (*DownloadFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"status":      meta.Status,
		"attempts":    meta.Attempts,
		"exit_code":   meta.ExitCode,
		"duration_ms": meta.Duration.Milliseconds(),
		"error":       meta.Error,
		"stderr":      meta.Stderr,
	})
	if err != nil {
		return nil, marshalError(TypeDownloadFailed, jobID, err)
	}
	return &DownloadFailed{
		BaseEvent: newBase(jobID, TypeDownloadFailed, payload, map[string]string{"status": meta.Status}),
		Meta:      meta,
	}, nil
}

func newBase(jobID, eventType string, payload []byte, metadata map[string]string) BaseEvent {
	return BaseEvent{
		EventJobID:     jobID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
		EventMetadata:  metadata,
	}
}

func marshalError(eventType, jobID string, err error) error {
	return errors.EventStoreError("failed to marshal "+eventType+" payload").
		WithCause(err).
		WithContext("job_id", jobID).
		Build()
}
