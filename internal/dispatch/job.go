// Package dispatch runs download jobs in the background. Every submitted
// job gets its own goroutine; the caller is answered before yt-dlp starts.
package dispatch

import (
	"context"
	"time"
)

// Status represents the current status of a download job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Job represents a single download job.
type Job struct {
	ID            string        `json:"id"`
	URL           string        `json:"url"`
	Config        string        `json:"config"`
	Cookie        string        `json:"cookie,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	Attempts      int           `json:"attempts"`
	ExitCode      int           `json:"exit_code"`
	ConfigChanged bool          `json:"config_changed"`
	Error         string        `json:"error,omitempty"`

	cancel context.CancelFunc
}
