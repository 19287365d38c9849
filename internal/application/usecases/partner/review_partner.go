package partner

import (
	"context"
	"fmt"

	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/application/ports"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// ReviewPartnerUseCase - use case для решений админа (approve/reject/suspend).
//
// Бизнес-правила переходов живут в entities.Partner; здесь только
// загрузка, сохранение и partner.reviewed в outbox.
type ReviewPartnerUseCase struct {
	partners  ports.PartnerRepository
	publisher ports.EventPublisher
	uow       ports.UnitOfWork
}

// NewReviewPartnerUseCase создаёт новый use case.
func NewReviewPartnerUseCase(partners ports.PartnerRepository, publisher ports.EventPublisher, uow ports.UnitOfWork) *ReviewPartnerUseCase {
	return &ReviewPartnerUseCase{partners: partners, publisher: publisher, uow: uow}
}

// Approve одобряет PENDING или восстанавливает SUSPENDED партнёра.
func (uc *ReviewPartnerUseCase) Approve(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	return uc.review(ctx, cmd, events.DecisionApproved, func(p *entities.Partner) error {
		return p.Approve()
	})
}

// Reject отклоняет PENDING партнёра. cmd.Reason обязателен.
func (uc *ReviewPartnerUseCase) Reject(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	return uc.review(ctx, cmd, events.DecisionRejected, func(p *entities.Partner) error {
		return p.Reject(cmd.Reason)
	})
}

// Suspend приостанавливает APPROVED партнёра.
func (uc *ReviewPartnerUseCase) Suspend(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	return uc.review(ctx, cmd, events.DecisionSuspended, func(p *entities.Partner) error {
		return p.Suspend()
	})
}

func (uc *ReviewPartnerUseCase) review(
	ctx context.Context,
	cmd dtos.ReviewPartnerCommand,
	decision string,
	apply func(*entities.Partner) error,
) (*dtos.PartnerDTO, error) {
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

		from := partner.Status()
		if err := apply(partner); err != nil {
			return err
		}

		if err := uc.partners.Update(txCtx, partner); err != nil {
			return err
		}

		event := events.NewPartnerReviewed(
			partner.ID(), partner.TenantID(), decision,
			string(from), string(partner.Status()), partner.RejectionReason(), cmd.ReviewerID,
		)
		if err := uc.publisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish partner.reviewed: %w", err)
		}

		result = dtos.ToPartnerDTO(partner)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}
