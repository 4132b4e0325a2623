package dispatch

import (
	"context"
	stderrors "errors"

	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
)

// EventEmitter receives download lifecycle events. Emission failures are
// logged by the dispatcher and never change a job's outcome.
type EventEmitter interface {
	EmitDownloadStarted(ctx context.Context, jobID string, meta eventstore.DownloadStartedMeta) error
	EmitDownloadRetried(ctx context.Context, jobID string, meta eventstore.DownloadRetriedMeta) error
	EmitDownloadCompleted(ctx context.Context, jobID string, meta eventstore.DownloadCompletedMeta) error
	EmitDownloadFailed(ctx context.Context, jobID string, meta eventstore.DownloadFailedMeta) error
}

// FanOut forwards every event to each emitter in order, joining failures.
type FanOut []EventEmitter

func (f FanOut) EmitDownloadStarted(ctx context.Context, jobID string, meta eventstore.DownloadStartedMeta) error {
	return f.each(func(e EventEmitter) error { return e.EmitDownloadStarted(ctx, jobID, meta) })
}

func (f FanOut) EmitDownloadRetried(ctx context.Context, jobID string, meta eventstore.DownloadRetriedMeta) error {
	return f.each(func(e EventEmitter) error { return e.EmitDownloadRetried(ctx, jobID, meta) })
}

func (f FanOut) EmitDownloadCompleted(ctx context.Context, jobID string, meta eventstore.DownloadCompletedMeta) error {
	return f.each(func(e EventEmitter) error { return e.EmitDownloadCompleted(ctx, jobID, meta) })
}

func (f FanOut) EmitDownloadFailed(ctx context.Context, jobID string, meta eventstore.DownloadFailedMeta) error {
	return f.each(func(e EventEmitter) error { return e.EmitDownloadFailed(ctx, jobID, meta) })
}

func (f FanOut) each(fn func(EventEmitter) error) error {
	var errs []error
	for _, e := range f {
		if e == nil {
			continue
		}
		if err := fn(e); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
