package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore creates a new SQLite-based event store.
// Use ":memory:" for in-memory database, or a file path for persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err, dbPath)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, wrap(ErrInitializeSchemaFailed, err, dbPath)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_job_id ON events(job_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp_ms);
	CREATE INDEX IF NOT EXISTS idx_event_type ON events(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, jobID, eventType string, payload []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return wrap(ErrEventAppendFailed, err, jobID)
		}
	}
	if payload == nil {
		payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (job_id, event_type, timestamp_ms, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		jobID, eventType, s.now().UnixMilli(), payload, metadataJSON,
	)
	if err != nil {
		return wrap(ErrEventAppendFailed, err, jobID)
	}

	return nil
}

// GetByJobID retrieves all events for a specific download job.
func (s *SQLiteStore) GetByJobID(ctx context.Context, jobID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, job_id, event_type, timestamp_ms, payload, metadata FROM events WHERE job_id = ? ORDER BY id",
		jobID,
	)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err, jobID)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// GetRange retrieves events within a time range.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, job_id, event_type, timestamp_ms, payload, metadata FROM events WHERE timestamp_ms >= ? AND timestamp_ms <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli(),
	)
	if err != nil {
		return nil, wrap(ErrEventQueryFailed, err, "")
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// Prune deletes events recorded strictly before olderThan.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE timestamp_ms < ?", olderThan.UnixMilli())
	if err != nil {
		return 0, wrap(ErrEventPruneFailed, err, "")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap(ErrEventPruneFailed, err, "")
	}
	return n, nil
}

func (s *SQLiteStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e BaseEvent
		var timestampMs int64
		var metadataJSON []byte

		err := rows.Scan(&e.EventID, &e.EventJobID, &e.EventType, &timestampMs, &e.EventPayload, &metadataJSON)
		if err != nil {
			return nil, wrap(ErrEventQueryFailed, err, "")
		}

		e.EventTimestamp = time.UnixMilli(timestampMs)

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.EventMetadata); err != nil {
				return nil, wrap(ErrEventQueryFailed, err, e.EventJobID)
			}
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap(ErrEventQueryFailed, err, "")
	}

	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// wrap attaches cause to a copy of sentinel so errors.Is still matches it.
func wrap(sentinel *errors.ClassifiedError, cause error, jobID string) error {
	b := errors.WrapError(cause, sentinel.Category(), sentinel.Message())
	if jobID != "" {
		b = b.WithContext("job_id", jobID)
	}
	return b.Build()
}
