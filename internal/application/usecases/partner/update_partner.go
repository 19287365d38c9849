package partner

import (
	"context"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
)

// UpdatePartnerUseCase - use case для частичного обновления профиля.
// Статус не меняется, событие не публикуется.
type UpdatePartnerUseCase struct {
	partners ports.PartnerRepository
	uow      ports.UnitOfWork
}

// NewUpdatePartnerUseCase создаёт новый use case.
func NewUpdatePartnerUseCase(partners ports.PartnerRepository, uow ports.UnitOfWork) *UpdatePartnerUseCase {
	return &UpdatePartnerUseCase{partners: partners, uow: uow}
}

// Execute применяет изменённые поля.
func (uc *UpdatePartnerUseCase) Execute(ctx context.Context, cmd dtos.UpdatePartnerCommand) (*dtos.PartnerDTO, error) {
	id, err := parsePartnerID(cmd.PartnerID)
	if err != nil {
		return nil, err
	}

	var result dtos.PartnerDTO
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		partner, err := uc.partners.FindByID(txCtx, cmd.TenantID, id)
		if err != nil {
			return err
		}

		name, email, category, website := partner.CompanyName(), partner.ContactEmail(), partner.Category(), partner.Website()
		if cmd.CompanyName != nil {
			name = *cmd.CompanyName
		}
		if cmd.ContactEmail != nil {
			email = *cmd.ContactEmail
		}
		if cmd.Category != nil {
			if category, err = entities.ParsePartnerCategory(*cmd.Category); err != nil {
				return err
			}
		}
		if cmd.Website != nil {
			website = *cmd.Website
		}

		if err := partner.UpdateProfile(name, email, category, website); err != nil {
			return err
		}
		if err := uc.partners.Update(txCtx, partner); err != nil {
			return err
		}

		result = dtos.ToPartnerDTO(partner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
