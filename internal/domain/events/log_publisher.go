package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the log instead of a broker.
// Used when NATS is not configured (local runs, tests).
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger falls back to slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With(slog.String("component", "events"))}
}

// Publish logs one event.
func (p *LogPublisher) Publish(ctx context.Context, event DomainEvent) error {
	payload, err := Payload(event)
	if err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "Domain event",
		slog.String("event_id", event.EventID().String()),
		slog.String("event_type", event.EventType()),
		slog.String("aggregate_id", event.AggregateID().String()),
		slog.String("payload", string(payload)),
	)
	return nil
}

// PublishBatch logs events in order and stops at the first failure.
func (p *LogPublisher) PublishBatch(ctx context.Context, batch []DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
