// Package partner содержит use cases онбординга партнёров.
//
// Каждый write use case работает внутри UnitOfWork: изменение партнёра и запись
// события в outbox коммитятся вместе.
package partner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
	"github.com/Haleralex/vowdesk/internal/domain/errors"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// CreatePartnerUseCase - use case для подачи заявки партнёра.
//
// Сценарий:
// 1. Провалидировать категорию и профиль (domain)
// 2. Сохранить партнёра в статусе PENDING
// 3. Записать partner.submitted в outbox
type CreatePartnerUseCase struct {
	partners  ports.PartnerRepository
	publisher ports.EventPublisher
	uow       ports.UnitOfWork
}

// NewCreatePartnerUseCase создаёт новый use case.
func NewCreatePartnerUseCase(partners ports.PartnerRepository, publisher ports.EventPublisher, uow ports.UnitOfWork) *CreatePartnerUseCase {
	return &CreatePartnerUseCase{partners: partners, publisher: publisher, uow: uow}
}

// Execute создаёт партнёра.
func (uc *CreatePartnerUseCase) Execute(ctx context.Context, cmd dtos.CreatePartnerCommand) (*dtos.PartnerDTO, error) {
	category, err := entities.ParsePartnerCategory(cmd.Category)
	if err != nil {
		return nil, err
	}

	partner, err := entities.NewPartner(cmd.TenantID, cmd.CompanyName, cmd.ContactEmail, category, cmd.Website)
	if err != nil {
		return nil, err
	}

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.partners.Create(txCtx, partner); err != nil {
			return err
		}

		event := events.NewPartnerSubmitted(
			partner.ID(), partner.TenantID(), partner.CompanyName(),
			partner.ContactEmail(), string(partner.Category()), cmd.SubmittedBy,
		)
		if err := uc.publisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish partner.submitted: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := dtos.ToPartnerDTO(partner)
	return &dto, nil
}

// parsePartnerID проверяет формат ID из URL.
func parsePartnerID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Validation("id", "partner ID must be a valid UUID")
	}
	return id, nil
}
