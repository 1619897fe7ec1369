package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// StatusEvent announces that a meeting moved to a new status
type StatusEvent struct {
	MeetingID  uuid.UUID `json:"meeting_id"`
	UserID     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Conn is the NATS connection surface the publisher needs
type Conn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// Connect opens a NATS connection that keeps reconnecting in the background
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("meeting-intelligence"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if logger != nil && err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

// StatusPublisher sends StatusEvents to <prefix>.<status>
type StatusPublisher struct {
	conn   Conn
	prefix string
	logger *zap.Logger
}

// NewStatusPublisher creates a publisher. An empty prefix uses meetings.status.
func NewStatusPublisher(conn Conn, prefix string, logger *zap.Logger) *StatusPublisher {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = "meetings.status"
	}
	return &StatusPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject a status is published on
func (p *StatusPublisher) Subject(status string) string {
	return p.prefix + "." + status
}

// PublishStatus marshals and sends the event
func (p *StatusPublisher) PublishStatus(_ context.Context, event StatusEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	subject := p.Subject(event.Status)
	if err := p.conn.Publish(subject, data); err != nil {
		if p.logger != nil {
			p.logger.Error("error sending message to NATS", zap.String("subject", subject), zap.Error(err))
		}
		return err
	}
	if p.logger != nil {
		p.logger.Debug("sent message to NATS", zap.String("subject", subject))
	}
	return nil
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

// PublishStatus implements the publisher interface
func (NopPublisher) PublishStatus(context.Context, StatusEvent) error { return nil }
