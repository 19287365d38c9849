// Package ports - EventPublisher для публикации domain events.
//
// Pattern: Publisher/Subscriber + Transactional Outbox
package ports

import (
	"context"

	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// EventPublisher определяет контракт для публикации domain events.
//
// Реализации:
// - postgres.OutboxRepository (use cases, внутри транзакции)
// - nats.Publisher (relay, доставка в брокер)
// - events.LogPublisher (локально, без брокера)
type EventPublisher interface {
	// Publish публикует одно событие.
	// At-least-once: consumers должны быть идемпотентными.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch публикует несколько событий за один вызов.
	// Первая ошибка прерывает batch.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// OutboxRepository - хранилище для Transactional Outbox Pattern.
//
// 1. В той же БД-транзакции, что и изменение партнёра, событие пишется в outbox
// 2. Relay читает outbox и публикует в брокер
// 3. После успешной публикации событие помечается как published
type OutboxRepository interface {
	// Save сохраняет событие в outbox таблицу.
	// Должно выполняться в той же транзакции, что и бизнес-операция!
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished возвращает события, которые ещё не опубликованы.
	FindUnpublished(ctx context.Context, limit int) ([]events.DomainEvent, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID string) error

	// MarkFailed помечает событие как failed.
	MarkFailed(ctx context.Context, eventID string, reason string) error
}
