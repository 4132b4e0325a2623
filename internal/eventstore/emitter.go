package eventstore

import (
	"context"
	"fmt"
)

// Emitter persists download lifecycle events and keeps a projection current.
// A nil store turns every call into a no-op so the daemon can run without
// an events database.
type Emitter struct {
	store      Store
	projection *HistoryProjection
}

// NewEmitter creates an Emitter. projection may be nil.
func NewEmitter(store Store, projection *HistoryProjection) *Emitter {
	return &Emitter{store: store, projection: projection}
}

// EmitEvent persists an event and applies it to the projection.
func (e *Emitter) EmitEvent(ctx context.Context, event Event) error {
	if e == nil || e.store == nil {
		return nil
	}
	if err := e.store.Append(ctx, event.JobID(), event.Type(), event.Payload(), event.Metadata()); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}
	if e.projection != nil {
		e.projection.Apply(event)
	}
	return nil
}

func (e *Emitter) EmitDownloadStarted(ctx context.Context, jobID string, meta DownloadStartedMeta) error {
	event, err := NewDownloadStarted(jobID, meta)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}

func (e *Emitter) EmitDownloadRetried(ctx context.Context, jobID string, meta DownloadRetriedMeta) error {
	event, err := NewDownloadRetried(jobID, meta)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}

func (e *Emitter) EmitDownloadCompleted(ctx context.Context, jobID string, meta DownloadCompletedMeta) error {
	event, err := NewDownloadCompleted(jobID, meta)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}

func (e *Emitter) EmitDownloadFailed(ctx context.Context, jobID string, meta DownloadFailedMeta) error {
	event, err := NewDownloadFailed(jobID, meta)
	if err != nil {
		return err
	}
	return e.EmitEvent(ctx, event)
}
