// Package events publishes payment lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"

	"github.com/mstgnz/paybridge/infra/logger"
)

// Event is the envelope of every published message
type Event struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"type"`
	Version    int             `json:"version"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// NewEvent wraps data in a fresh envelope
func NewEvent(eventType string, data any) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		Version:    1,
		OccurredAt: time.Now().UTC(),
		Data:       dataBytes,
	}, nil
}

// DecodeData decodes the event data into v
func (e *Event) DecodeData(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Config holds NATS configuration
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements provider.EventPublisher over a NATS connection
type Publisher struct {
	nc     conn
	prefix string
}

// Connect dials NATS and returns a publisher plus the connection to close
func Connect(cfg Config) (*Publisher, *nats.Conn, error) {
	if cfg.Name == "" {
		cfg.Name = "paybridge"
	}
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			logger.Warn("NATS disconnected", logger.LogContext{Fields: map[string]any{"error": fmt.Sprint(err)}})
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", logger.LogContext{Fields: map[string]any{"url": c.ConnectedUrl()}})
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	logger.Info("NATS connection established", logger.LogContext{Fields: map[string]any{"url": nc.ConnectedUrl()}})
	return NewPublisher(nc, cfg.SubjectPrefix), nc, nil
}

// NewPublisher publishes on nc under subjects "<prefix>.<type>"
func NewPublisher(nc conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = "paybridge"
	}
	return &Publisher{nc: nc, prefix: prefix}
}

// Subject is the NATS subject of an event type
func (p *Publisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish wraps payload in an Event and publishes it
func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event, err := NewEvent(eventType, payload)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	subject := p.Subject(eventType)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	logger.Debug("event published", logger.LogContext{Fields: map[string]any{
		"event_id": event.ID,
		"type":     event.Type,
		"subject":  subject,
	}})
	return nil
}
