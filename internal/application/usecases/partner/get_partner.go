package partner

import (
	"context"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
)

// GetPartnerUseCase - use case для получения партнёра по ID.
type GetPartnerUseCase struct {
	partners ports.PartnerRepository
}

// NewGetPartnerUseCase создаёт новый use case.
func NewGetPartnerUseCase(partners ports.PartnerRepository) *GetPartnerUseCase {
	return &GetPartnerUseCase{partners: partners}
}

// Execute возвращает партнёра текущего тенанта.
func (uc *GetPartnerUseCase) Execute(ctx context.Context, query dtos.GetPartnerQuery) (*dtos.PartnerDTO, error) {
	id, err := parsePartnerID(query.PartnerID)
	if err != nil {
		return nil, err
	}

	partner, err := uc.partners.FindByID(ctx, query.TenantID, id)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToPartnerDTO(partner)
	return &dto, nil
}
