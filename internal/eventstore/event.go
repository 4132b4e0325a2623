package eventstore

import "time"

// Event represents a single recorded step in a download job's lifecycle.
type Event interface {
	// ID returns the unique identifier for this event.
	ID() int64
	// JobID returns the download job this event belongs to.
	JobID() string
	// Type returns the event type name.
	Type() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
	// Payload returns the event data as bytes.
	Payload() []byte
	// Metadata returns optional event metadata.
	Metadata() map[string]string
}

// BaseEvent provides a default implementation of Event.
type BaseEvent struct {
	EventID        int64             `json:"id"`
	EventJobID     string            `json:"job_id"`
	EventType      string            `json:"type"`
	EventTimestamp time.Time         `json:"timestamp"`
	EventPayload   []byte            `json:"-"`
	EventMetadata  map[string]string `json:"metadata,omitempty"`
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) JobID() string               { return e.EventJobID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
