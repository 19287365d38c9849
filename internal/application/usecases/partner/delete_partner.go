package partner

import (
	"context"
	"fmt"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// DeletePartnerUseCase - use case для удаления партнёра.
type DeletePartnerUseCase struct {
	partners  ports.PartnerRepository
	publisher ports.EventPublisher
	uow       ports.UnitOfWork
}

// NewDeletePartnerUseCase создаёт новый use case.
func NewDeletePartnerUseCase(partners ports.PartnerRepository, publisher ports.EventPublisher, uow ports.UnitOfWork) *DeletePartnerUseCase {
	return &DeletePartnerUseCase{partners: partners, publisher: publisher, uow: uow}
}

// Execute удаляет партнёра и пишет partner.deleted.
func (uc *DeletePartnerUseCase) Execute(ctx context.Context, cmd dtos.DeletePartnerCommand) error {
	id, err := parsePartnerID(cmd.PartnerID)
	if err != nil {
		return err
	}

	return uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := uc.partners.Delete(txCtx, cmd.TenantID, id); err != nil {
			return err
		}

		event := events.NewPartnerDeleted(id, cmd.TenantID, cmd.DeletedBy)
		if err := uc.publisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish partner.deleted: %w", err)
		}
		return nil
	})
}
