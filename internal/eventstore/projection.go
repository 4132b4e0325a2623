// Package eventstore persists download job lifecycle events in SQLite and
// projects them into job summaries that survive daemon restarts.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	jobStatusRunning   = "running"
	jobStatusCompleted = "completed"
	jobStatusFailed    = "failed"
)

// JobSummary is a read model of one download job.
type JobSummary struct {
	JobID         string        `json:"job_id"`
	Status        string        `json:"status"`
	URL           string        `json:"url,omitempty"`
	Config        string        `json:"config,omitempty"`
	Cookie        string        `json:"cookie,omitempty"`
	CorrelationID string        `json:"correlation_id,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	Attempts      int           `json:"attempts"`
	ExitCode      int           `json:"exit_code"`
	Error         string        `json:"error,omitempty"`
}

// HistoryProjection maintains an in-memory view of recent jobs,
// reconstructed from the event store.
type HistoryProjection struct {
	mu       sync.RWMutex
	store    Store
	jobs     map[string]*JobSummary
	history  []*JobSummary // finished jobs, newest first
	maxSize  int
	lastSync time.Time
}

// NewHistoryProjection creates a new projection backed by the given store.
func NewHistoryProjection(store Store, maxHistorySize int) *HistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &HistoryProjection{
		store:   store,
		jobs:    make(map[string]*JobSummary),
		history: make([]*JobSummary, 0, maxHistorySize),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from all events in the store.
func (p *HistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.jobs = make(map[string]*JobSummary)
	p.history = make([]*JobSummary, 0, p.maxSize)
	for _, event := range events {
		p.applyEventLocked(event)
	}

	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneJobsLocked()

	p.lastSync = time.Now()
	return nil
}

// Apply processes a single event as it is emitted.
func (p *HistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *HistoryProjection) applyEventLocked(event Event) {
	jobID := event.JobID()
	if jobID == "" {
		return
	}

	summary, exists := p.jobs[jobID]
	if !exists {
		summary = &JobSummary{JobID: jobID, Status: jobStatusRunning, StartedAt: event.Timestamp()}
		p.jobs[jobID] = summary
	}

	switch event.Type() {
	case TypeDownloadStarted:
		var meta DownloadStartedMeta
		if err := json.Unmarshal(event.Payload(), &meta); err == nil {
			summary.URL = meta.URL
			summary.Config = meta.Config
			summary.Cookie = meta.Cookie
			summary.CorrelationID = meta.CorrelationID
		}
		summary.StartedAt = event.Timestamp()
		summary.Status = jobStatusRunning
		summary.Attempts = 1

	case TypeDownloadRetried:
		var payload struct {
			Attempt int `json:"attempt"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Attempts = payload.Attempt + 1
		}

	case TypeDownloadCompleted:
		p.finishLocked(summary, event.Timestamp())
		summary.Status = jobStatusCompleted
		var payload struct {
			Attempts int `json:"attempts"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil && payload.Attempts > 0 {
			summary.Attempts = payload.Attempts
		}
		p.addToHistoryLocked(summary)

	case TypeDownloadFailed:
		p.finishLocked(summary, event.Timestamp())
		summary.Status = jobStatusFailed
		var payload struct {
			Status   string `json:"status"`
			Attempts int    `json:"attempts"`
			ExitCode int    `json:"exit_code"`
			Error    string `json:"error"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if payload.Status != "" {
				summary.Status = payload.Status
			}
			if payload.Attempts > 0 {
				summary.Attempts = payload.Attempts
			}
			summary.ExitCode = payload.ExitCode
			summary.Error = payload.Error
		}
		p.addToHistoryLocked(summary)
	}
}

func (p *HistoryProjection) finishLocked(summary *JobSummary, at time.Time) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
}

func (p *HistoryProjection) addToHistoryLocked(summary *JobSummary) {
	for _, h := range p.history {
		if h.JobID == summary.JobID {
			return
		}
	}
	p.history = append([]*JobSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	p.pruneJobsLocked()
}

// pruneJobsLocked drops finished jobs that fell out of the bounded history.
func (p *HistoryProjection) pruneJobsLocked() {
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.JobID] = struct{}{}
	}
	for id, summary := range p.jobs {
		if summary.Status == jobStatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.jobs, id)
		}
	}
}

// History returns finished jobs, newest first.
func (p *HistoryProjection) History() []JobSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]JobSummary, len(p.history))
	for i, h := range p.history {
		out[i] = *h
	}
	return out
}

// Get returns a copy of the summary for jobID.
func (p *HistoryProjection) Get(jobID string) (JobSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.jobs[jobID]
	if !ok {
		return JobSummary{}, false
	}
	return *summary, true
}

// LastSyncTime returns when the projection was last rebuilt.
func (p *HistoryProjection) LastSyncTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
