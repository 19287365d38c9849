// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Haleralex/vowdesk/internal/domain/entities"
)

// PartnerRepository определяет контракт для хранения партнёров.
//
// Все методы tenant-scoped: партнёр другого тенанта считается не найденным.
type PartnerRepository interface {
	// Create вставляет нового партнёра.
	// Дубликат (tenant, contact email) -> errors.AlreadyExists.
	Create(ctx context.Context, partner *entities.Partner) error

	// Update сохраняет профиль и статус существующего партнёра.
	Update(ctx context.Context, partner *entities.Partner) error

	// FindByID загружает партнёра. Не найден -> errors.NotFound.
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*entities.Partner, error)

	// List возвращает страницу партнёров и общее количество по фильтру.
	List(ctx context.Context, filter PartnerFilter, offset, limit int) ([]*entities.Partner, int, error)

	// Delete удаляет партнёра. Не найден -> errors.NotFound.
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
}

// PartnerFilter определяет критерии фильтрации для партнёров.
type PartnerFilter struct {
	TenantID string                    // Обязательный row filter
	Status   *entities.PartnerStatus   // Фильтр по статусу
	Category *entities.PartnerCategory // Фильтр по категории
}
