package partner

import (
	"context"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
)

// Page size bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListPartnersUseCase - use case для получения списка партнёров с фильтрацией.
type ListPartnersUseCase struct {
	partners ports.PartnerRepository
}

// NewListPartnersUseCase создаёт новый use case.
func NewListPartnersUseCase(partners ports.PartnerRepository) *ListPartnersUseCase {
	return &ListPartnersUseCase{partners: partners}
}

// Execute возвращает страницу партнёров тенанта.
// Page < 1 становится 1, Limit вне [1, MaxPageSize] приводится к границам.
func (uc *ListPartnersUseCase) Execute(ctx context.Context, query dtos.ListPartnersQuery) (*dtos.PartnerPage, error) {
	filter := ports.PartnerFilter{TenantID: query.TenantID}

	if query.Status != "" {
		status, err := entities.ParsePartnerStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	if query.Category != "" {
		category, err := entities.ParsePartnerCategory(query.Category)
		if err != nil {
			return nil, err
		}
		filter.Category = &category
	}

	page := max(query.Page, 1)
	limit := query.Limit
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	partners, total, err := uc.partners.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	return &dtos.PartnerPage{
		Items: dtos.ToPartnerDTOList(partners),
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}
