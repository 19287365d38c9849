// Package messaging moves domain events from the outbox table to the broker.
package messaging

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Haleralex/vowdesk/internal/application/ports"
)

var relayedEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vowdesk",
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by the relay, by result",
	},
	[]string{"result"},
)

// RelayConfig - настройки relay.
type RelayConfig struct {
	Interval  time.Duration // пауза между опросами
	BatchSize int
}

// DefaultRelayConfig returns a 1s interval with batches of 100.
func DefaultRelayConfig() RelayConfig {
	return RelayConfig{Interval: time.Second, BatchSize: 100}
}

// Relay polls the outbox and forwards events to the sink.
//
// Each batch runs in one transaction: rows stay locked (SKIP LOCKED) while
// they are being published, so several replicas can relay concurrently.
// A failed publish is recorded and retried on the next poll.
type Relay struct {
	outbox ports.OutboxRepository
	uow    ports.UnitOfWork
	sink   ports.EventPublisher
	cfg    RelayConfig
	logger *slog.Logger
}

// NewRelay creates a Relay. Zero config fields take the defaults.
func NewRelay(outbox ports.OutboxRepository, uow ports.UnitOfWork, sink ports.EventPublisher, cfg RelayConfig, logger *slog.Logger) *Relay {
	def := DefaultRelayConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		outbox: outbox,
		uow:    uow,
		sink:   sink,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "outbox_relay")),
	}
}

// Run polls until ctx is cancelled. Full batches are drained without waiting.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("Outbox relay started",
		slog.Duration("interval", r.cfg.Interval),
		slog.Int("batch_size", r.cfg.BatchSize),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return nil
		case <-timer.C:
		}

		n, err := r.Flush(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("Outbox relay batch failed", slog.String("error", err.Error()))
		}

		wait := r.cfg.Interval
		if err == nil && n == r.cfg.BatchSize {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Flush relays one batch and returns how many events were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	published := 0

	err := r.uow.Execute(ctx, func(txCtx context.Context) error {
		pending, err := r.outbox.FindUnpublished(txCtx, r.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, event := range pending {
			id := event.EventID().String()

			if err := r.sink.Publish(ctx, event); err != nil {
				relayedEvents.WithLabelValues("failed").Inc()
				r.logger.Warn("Outbox event publish failed",
					slog.String("event_id", id),
					slog.String("event_type", event.EventType()),
					slog.String("error", err.Error()),
				)
				if err := r.outbox.MarkFailed(txCtx, id, err.Error()); err != nil {
					return err
				}
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, id); err != nil {
				return err
			}
			relayedEvents.WithLabelValues("published").Inc()
			published++
		}
		return nil
	})

	return published, err
}
