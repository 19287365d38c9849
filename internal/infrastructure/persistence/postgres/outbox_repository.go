// Package postgres - OutboxRepository для Transactional Outbox Pattern.
//
// 1. В той же транзакции, что и изменение партнёра, событие пишется в outbox
// 2. messaging.Relay читает PENDING события и публикует в брокер
// 3. После публикации событие помечается PUBLISHED
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/vowdesk/internal/application/ports"
	domainErrors "github.com/Haleralex/vowdesk/internal/domain/errors"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// Compile-time check
var _ ports.OutboxRepository = (*OutboxRepository)(nil)
var _ ports.EventPublisher = (*OutboxRepository)(nil) // use cases публикуют через outbox

// DefaultMaxAttempts - после стольких неудачных публикаций событие становится FAILED.
const DefaultMaxAttempts = 5

// OutboxRepository реализует ports.OutboxRepository.
type OutboxRepository struct {
	pool        *pgxpool.Pool
	observer    QueryObserver
	maxAttempts int
}

// NewOutboxRepository создаёт новый OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool, observer QueryObserver) *OutboxRepository {
	return &OutboxRepository{pool: pool, observer: observer, maxAttempts: DefaultMaxAttempts}
}

func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save сохраняет событие в outbox таблицу.
// Должно выполняться в той же транзакции, что и бизнес-операция!
func (r *OutboxRepository) Save(ctx context.Context, event events.DomainEvent) error {
	defer observe(r.observer, "outbox_insert")()

	payload, err := events.Payload(event)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'PENDING', $6)
	`

	_, err = r.getQuerier(ctx).Exec(ctx, query,
		event.EventID(),
		aggregateType(event.EventType()),
		event.AggregateID(),
		event.EventType(),
		payload,
		event.OccurredAt(),
	)
	if err != nil {
		return domainErrors.Database("insert outbox", err)
	}
	return nil
}

// FindUnpublished возвращает PENDING события в порядке создания.
// FOR UPDATE SKIP LOCKED: вызывать внутри транзакции, чтобы несколько relay не
// публиковали одно и то же.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]events.DomainEvent, error) {
	defer observe(r.observer, "outbox_select")()

	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.getQuerier(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, domainErrors.Database("select outbox", err)
	}
	defer rows.Close()

	var pending []events.DomainEvent
	for rows.Next() {
		var (
			id, aggregateID uuid.UUID
			eventType       string
			payload         []byte
			createdAt       time.Time
		)
		if err := rows.Scan(&id, &aggregateID, &eventType, &payload, &createdAt); err != nil {
			return nil, domainErrors.Database("scan outbox", err)
		}
		pending = append(pending, events.NewRaw(id, eventType, aggregateID, createdAt, payload))
	}
	if err := rows.Err(); err != nil {
		return nil, domainErrors.Database("select outbox", err)
	}

	return pending, nil
}

// Publish реализует EventPublisher: в Outbox pattern это Save.
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	return r.Save(ctx, event)
}

// PublishBatch сохраняет несколько событий, первая ошибка прерывает batch.
func (r *OutboxRepository) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := r.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// MarkPublished помечает событие как опубликованное.
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	defer observe(r.observer, "outbox_update")()

	id, err := uuid.Parse(eventID)
	if err != nil {
		return domainErrors.InvalidInput("invalid event ID")
	}

	tag, err := r.getQuerier(ctx).Exec(ctx,
		`UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1 AND status = 'PENDING'`,
		id, time.Now().UTC())
	if err != nil {
		return domainErrors.Database("update outbox", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.NotFound("Outbox event", eventID)
	}
	return nil
}

// MarkFailed записывает неудачную попытку. Событие остаётся PENDING, пока
// не исчерпан лимит попыток, затем становится FAILED.
func (r *OutboxRepository) MarkFailed(ctx context.Context, eventID string, reason string) error {
	defer observe(r.observer, "outbox_update")()

	id, err := uuid.Parse(eventID)
	if err != nil {
		return domainErrors.InvalidInput("invalid event ID")
	}

	query := `
		UPDATE outbox SET
			retry_count = retry_count + 1,
			last_error = $3,
			failed_at = $2,
			status = CASE WHEN retry_count + 1 >= $4 THEN 'FAILED' ELSE 'PENDING' END
		WHERE id = $1
	`

	if _, err := r.getQuerier(ctx).Exec(ctx, query, id, time.Now().UTC(), reason, r.maxAttempts); err != nil {
		return domainErrors.Database("update outbox", err)
	}
	return nil
}

// aggregateType: "partner.reviewed" -> "Partner".
func aggregateType(eventType string) string {
	head, _, _ := strings.Cut(eventType, ".")
	if head == "" {
		return "Unknown"
	}
	return strings.ToUpper(head[:1]) + head[1:]
}
