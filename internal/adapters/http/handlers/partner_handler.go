// Package handlers - Partner HTTP handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/auth"
	domainerrors "github.com/Haleralex/vowdesk/internal/domain/errors"
	"github.com/Haleralex/vowdesk/internal/domain/events"
)

// ============================================
// Use Case Interfaces
// ============================================

// CreatePartnerUseCase - интерфейс для подачи заявки партнёра.
type CreatePartnerUseCase interface {
	Execute(ctx context.Context, cmd dtos.CreatePartnerCommand) (*dtos.PartnerDTO, error)
}

// GetPartnerUseCase - интерфейс для получения партнёра.
type GetPartnerUseCase interface {
	Execute(ctx context.Context, query dtos.GetPartnerQuery) (*dtos.PartnerDTO, error)
}

// ListPartnersUseCase - интерфейс для получения списка партнёров.
type ListPartnersUseCase interface {
	Execute(ctx context.Context, query dtos.ListPartnersQuery) (*dtos.PartnerPage, error)
}

// UpdatePartnerUseCase - интерфейс для обновления профиля.
type UpdatePartnerUseCase interface {
	Execute(ctx context.Context, cmd dtos.UpdatePartnerCommand) (*dtos.PartnerDTO, error)
}

// ReviewPartnerUseCase - интерфейс для решений админа.
type ReviewPartnerUseCase interface {
	Approve(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
	Reject(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
	Suspend(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
}

// DeletePartnerUseCase - интерфейс для удаления партнёра.
type DeletePartnerUseCase interface {
	Execute(ctx context.Context, cmd dtos.DeletePartnerCommand) error
}

// ============================================
// Partner Handler
// ============================================

// PartnerRoutesConfig - политика маршрутов партнёров.
type PartnerRoutesConfig struct {
	// ListRateLimit ограничивает GET /partners, nil - без лимита
	ListRateLimit *endpoint.RateLimit
	// Timeout для каждой бизнес-функции
	Timeout time.Duration
}

// PartnerHandler обрабатывает HTTP запросы для партнёров.
type PartnerHandler struct {
	wrapper  *endpoint.Wrapper
	cfg      PartnerRoutesConfig
	create   CreatePartnerUseCase
	get      GetPartnerUseCase
	list     ListPartnersUseCase
	update   UpdatePartnerUseCase
	review   ReviewPartnerUseCase
	deletion DeletePartnerUseCase
}

// NewPartnerHandler создаёт новый PartnerHandler.
func NewPartnerHandler(
	wrapper *endpoint.Wrapper,
	cfg PartnerRoutesConfig,
	create CreatePartnerUseCase,
	get GetPartnerUseCase,
	list ListPartnersUseCase,
	update UpdatePartnerUseCase,
	review ReviewPartnerUseCase,
	deletion DeletePartnerUseCase,
) *PartnerHandler {
	return &PartnerHandler{
		wrapper:  wrapper,
		cfg:      cfg,
		create:   create,
		get:      get,
		list:     list,
		update:   update,
		review:   review,
		deletion: deletion,
	}
}

// ============================================
// Request / Response DTOs
// ============================================

// RejectPartnerRequest - тело запроса на отклонение.
type RejectPartnerRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// DeletedResponse - ответ на удаление.
type DeletedResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// ============================================
// Routes
// ============================================

// RegisterRoutes регистрирует маршруты партнёров.
//
// Routes:
// - GET    /partners                      - List (auth, rate limited)
// - POST   /partners                      - Submit application (auth)
// - GET    /partners/:id                  - Get (auth)
// - PATCH  /partners/:id                  - Update profile (auth)
// - POST   /admin/partners/:id/approve    - Approve (admin)
// - POST   /admin/partners/:id/reject     - Reject with reason (admin)
// - POST   /admin/partners/:id/suspend    - Suspend (admin)
// - DELETE /admin/partners/:id            - Delete (admin)
//
// Паникует, если политика маршрута не исполнима с зависимостями wrapper-а.
func (h *PartnerHandler) RegisterRoutes(api *gin.RouterGroup) {
	w := h.wrapper
	authed := endpoint.Config{RequireAuth: true, Timeout: h.cfg.Timeout}
	admin := endpoint.Config{RequireAdmin: true, Timeout: h.cfg.Timeout}

	listCfg := authed
	listCfg.RateLimit = h.cfg.ListRateLimit

	createCfg := authed
	createCfg.ValidateBody = endpoint.Struct[dtos.CreatePartnerCommand]()

	itemCfg := authed
	itemCfg.ValidateBody = endpoint.Struct[dtos.UpdatePartnerCommand]()

	rejectCfg := admin
	rejectCfg.ValidateBody = endpoint.Struct[RejectPartnerRequest]()

	partners := api.Group("/partners")
	{
		partners.GET("", endpoint.GET(w, listCfg, h.ListPartners))
		partners.POST("", endpoint.POST(w, createCfg, h.CreatePartner))
		partners.Any("/:id", endpoint.MultiMethod(w, itemCfg, map[string]endpoint.Func[dtos.PartnerDTO]{
			http.MethodGet:   h.GetPartner,
			http.MethodPatch: h.UpdatePartner,
		}))
	}

	adminPartners := api.Group("/admin/partners")
	{
		adminPartners.POST("/:id/approve", endpoint.POST(w, admin, h.ApprovePartner))
		adminPartners.POST("/:id/reject", endpoint.POST(w, rejectCfg, h.RejectPartner))
		adminPartners.POST("/:id/suspend", endpoint.POST(w, admin, h.SuspendPartner))
		adminPartners.DELETE("/:id", endpoint.DELETE(w, admin, h.DeletePartner))
	}
}

// ============================================
// HTTP Handlers
// ============================================

// ListPartners возвращает партнёров тенанта вызывающего.
//
// @Router /api/v1/partners [get]
// @Param status query string false "Filter by status" Enums(PENDING, APPROVED, REJECTED, SUSPENDED)
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20) maximum(100)
func (h *PartnerHandler) ListPartners(req *endpoint.Request) (envelope.Response[[]dtos.PartnerDTO], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[[]dtos.PartnerDTO]{}, err
	}

	pagination, err := ParsePagination(req)
	if err != nil {
		return envelope.Response[[]dtos.PartnerDTO]{}, err
	}

	result, err := h.list.Execute(req.Context(), dtos.ListPartnersQuery{
		TenantID: p.TenantID,
		Status:   req.Query("status"),
		Category: req.Query("category"),
		Page:     pagination.Page,
		Limit:    pagination.Limit,
	})
	if err != nil {
		return envelope.Response[[]dtos.PartnerDTO]{}, err
	}

	return envelope.Success(result.Items,
		envelope.WithPagination(envelope.NewPagination(result.Page, result.Limit, result.Total)),
	), nil
}

// CreatePartner принимает заявку партнёра. Новый партнёр всегда PENDING.
//
// @Router /api/v1/partners [post]
func (h *PartnerHandler) CreatePartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	var cmd dtos.CreatePartnerCommand
	if err := req.Decode(&cmd); err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}
	cmd.TenantID = p.TenantID
	cmd.SubmittedBy = p.UserID

	result, err := h.create.Execute(req.Context(), cmd)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	return envelope.Success(*result, envelope.WithMessage("Partner application submitted")), nil
}

// GetPartner возвращает партнёра по ID.
//
// @Router /api/v1/partners/{id} [get]
func (h *PartnerHandler) GetPartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	result, err := h.get.Execute(req.Context(), dtos.GetPartnerQuery{
		TenantID:  p.TenantID,
		PartnerID: req.Param("id"),
	})
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	return envelope.Success(*result), nil
}

// UpdatePartner частично обновляет профиль партнёра.
//
// @Router /api/v1/partners/{id} [patch]
func (h *PartnerHandler) UpdatePartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	var cmd dtos.UpdatePartnerCommand
	if err := req.Decode(&cmd); err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}
	cmd.TenantID = p.TenantID
	cmd.PartnerID = req.Param("id")

	result, err := h.update.Execute(req.Context(), cmd)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	return envelope.Success(*result, envelope.WithMessage("Partner updated")), nil
}

// ApprovePartner одобряет партнёра (PENDING или SUSPENDED).
//
// @Router /api/v1/admin/partners/{id}/approve [post]
func (h *PartnerHandler) ApprovePartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	return h.decide(req, events.DecisionApproved, "", h.review.Approve)
}

// RejectPartner отклоняет заявку с обязательной причиной.
//
// @Router /api/v1/admin/partners/{id}/reject [post]
func (h *PartnerHandler) RejectPartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	var body RejectPartnerRequest
	if err := req.Decode(&body); err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}
	return h.decide(req, events.DecisionRejected, body.Reason, h.review.Reject)
}

// SuspendPartner временно скрывает одобренного партнёра.
//
// @Router /api/v1/admin/partners/{id}/suspend [post]
func (h *PartnerHandler) SuspendPartner(req *endpoint.Request) (envelope.Response[dtos.PartnerDTO], error) {
	return h.decide(req, events.DecisionSuspended, "", h.review.Suspend)
}

// DeletePartner удаляет партнёра.
//
// @Router /api/v1/admin/partners/{id} [delete]
func (h *PartnerHandler) DeletePartner(req *endpoint.Request) (envelope.Response[DeletedResponse], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[DeletedResponse]{}, err
	}

	id := req.Param("id")
	err = h.deletion.Execute(req.Context(), dtos.DeletePartnerCommand{
		TenantID:  p.TenantID,
		PartnerID: id,
		DeletedBy: p.UserID,
	})
	if err != nil {
		return envelope.Response[DeletedResponse]{}, err
	}

	return envelope.Success(DeletedResponse{ID: id, Deleted: true}, envelope.WithMessage("Partner deleted")), nil
}

// ============================================
// Helpers
// ============================================

type reviewFunc func(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)

func (h *PartnerHandler) decide(req *endpoint.Request, decision, reason string, apply reviewFunc) (envelope.Response[dtos.PartnerDTO], error) {
	p, err := tenantPrincipal(req)
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	result, err := apply(req.Context(), dtos.ReviewPartnerCommand{
		TenantID:   p.TenantID,
		PartnerID:  req.Param("id"),
		ReviewerID: p.UserID,
		Reason:     reason,
	})
	if err != nil {
		return envelope.Response[dtos.PartnerDTO]{}, err
	}

	middleware.RecordPartnerReview(decision)
	return envelope.Success(*result, envelope.WithMessage("Partner "+decision)), nil
}

// tenantPrincipal возвращает вызывающего; без тенанта доступ к партнёрам закрыт.
func tenantPrincipal(req *endpoint.Request) (*auth.Principal, error) {
	p := req.Principal()
	if p == nil || p.TenantID == "" {
		return nil, domainerrors.Forbidden("access partners without a tenant")
	}
	return p, nil
}
