// Package nats publishes domain events to a NATS subject per event type.
//
// Subject: <prefix>.<event type>, e.g. "vowdesk.events.partner.reviewed".
// Body: events.Message as JSON.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/Haleralex/vowdesk/internal/application/ports"
	domainErrors "github.com/Haleralex/vowdesk/internal/domain/errors"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// DefaultSubjectPrefix is used when Config.SubjectPrefix is empty.
const DefaultSubjectPrefix = "vowdesk.events"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher реализует ports.EventPublisher поверх NATS core.
type Publisher struct {
	conn   Conn
	prefix string
}

// NewPublisher creates a publisher. An empty prefix means DefaultSubjectPrefix.
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

// Publish sends one event and flushes so the caller knows it reached the server.
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if err := p.send(event); err != nil {
		return err
	}
	return p.flush(ctx)
}

// PublishBatch sends all events and flushes once.
func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := p.send(event); err != nil {
			return err
		}
	}
	return p.flush(ctx)
}

func (p *Publisher) send(event events.DomainEvent) error {
	data, err := events.Encode(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.Subject(event.EventType()), data); err != nil {
		return domainErrors.External("event broker", fmt.Errorf("publish %s: %w", event.EventType(), err))
	}
	return nil
}

func (p *Publisher) flush(ctx context.Context) error {
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return domainErrors.External("event broker", fmt.Errorf("flush: %w", err))
	}
	return nil
}

// Config - настройки подключения.
type Config struct {
	URL           string
	Name          string
	SubjectPrefix string
	ConnectWait   time.Duration
}

// Connect opens a connection that reconnects forever and logs state changes.
func Connect(cfg Config, logger *slog.Logger) (*natsgo.Conn, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats: url is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ConnectWait
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := natsgo.Connect(cfg.URL,
		natsgo.Name(cfg.Name),
		natsgo.Timeout(timeout),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrlRedacted()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}

// Pinger adapts a connection to the readiness check contract.
type Pinger struct {
	Conn Conn
}

// Name implements the readiness check contract.
func (p Pinger) Name() string { return "nats" }

// Ping round-trips a PING to the server.
func (p Pinger) Ping(ctx context.Context) error {
	return p.Conn.FlushWithContext(ctx)
}
