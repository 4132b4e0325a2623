package eventstore

// Sentinel errors for event store operations. Wrapped causes carry the
// driver detail; callers match with errors.Is.

import (
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open event store database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize event store schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.EventStoreError("failed to append event to store").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.EventStoreError("failed to query events from store").Build()

	// ErrEventPruneFailed indicates deleting expired events failed.
	ErrEventPruneFailed = errors.EventStoreError("failed to prune events").Build()
)
