// Package notify publishes download lifecycle events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/ytdlpd/internal/config"
	"git.home.luguber.info/inful/ytdlpd/internal/eventstore"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
)

// Event names appended to the subject prefix.
const (
	EventDownloadStarted   = "download.started"
	EventDownloadRetried   = "download.retried"
	EventDownloadCompleted = "download.completed"
	EventDownloadFailed    = "download.failed"
)

// Conn is the subset of *nats.Conn used by the publisher.
type Conn interface {
	Publish(subject string, data []byte) error
	Close()
}

// Message is the JSON envelope published for every event.
type Message struct {
	Event     string    `json:"event"`
	JobID     string    `json:"job_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Publisher sends lifecycle events to <prefix>.<event>. Publish failures
// are logged and swallowed so a broker outage never fails a download.
type Publisher struct {
	conn   Conn
	prefix string
}

// Connect dials the configured NATS server. The connection keeps retrying
// in the background when the server is not reachable yet.
func Connect(cfg config.NATSConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("nats notifications are disabled")
	}
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", logfields.URL(c.ConnectedUrl()))
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS publisher initialized", logfields.URL(cfg.URL), slog.String("subject_prefix", cfg.SubjectPrefix))
	return NewPublisher(conn, cfg.SubjectPrefix), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string) *Publisher {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = config.DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject returns the full subject for an event name.
func (p *Publisher) Subject(event string) string {
	return p.prefix + "." + event
}

func (p *Publisher) EmitDownloadStarted(ctx context.Context, jobID string, meta eventstore.DownloadStartedMeta) error {
	p.publish(ctx, EventDownloadStarted, jobID, meta)
	return nil
}

func (p *Publisher) EmitDownloadRetried(ctx context.Context, jobID string, meta eventstore.DownloadRetriedMeta) error {
	p.publish(ctx, EventDownloadRetried, jobID, map[string]any{
		"attempt":   meta.Attempt,
		"delay_ms":  meta.Delay.Milliseconds(),
		"exit_code": meta.ExitCode,
		"error":     meta.Error,
	})
	return nil
}

func (p *Publisher) EmitDownloadCompleted(ctx context.Context, jobID string, meta eventstore.DownloadCompletedMeta) error {
	p.publish(ctx, EventDownloadCompleted, jobID, map[string]any{
		"attempts":    meta.Attempts,
		"duration_ms": meta.Duration.Milliseconds(),
	})
	return nil
}

func (p *Publisher) EmitDownloadFailed(ctx context.Context, jobID string, meta eventstore.DownloadFailedMeta) error {
	p.publish(ctx, EventDownloadFailed, jobID, map[string]any{
		"status":      meta.Status,
		"attempts":    meta.Attempts,
		"exit_code":   meta.ExitCode,
		"duration_ms": meta.Duration.Milliseconds(),
		"error":       meta.Error,
	})
	return nil
}

func (p *Publisher) publish(ctx context.Context, event, jobID string, data any) {
	if p == nil || p.conn == nil || ctx.Err() != nil {
		return
	}
	subject := p.Subject(event)
	payload, err := json.Marshal(Message{Event: event, JobID: jobID, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		slog.Warn("Failed to marshal NATS event", logfields.Subject(subject), logfields.JobID(jobID), logfields.Error(err))
		return
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		slog.Warn("Failed to publish NATS event", logfields.Subject(subject), logfields.JobID(jobID), logfields.Error(err))
		return
	}
	slog.Debug("Published NATS event", logfields.Subject(subject), logfields.JobID(jobID))
}

// Close closes the NATS connection.
func (p *Publisher) Close() error {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
	return nil
}
