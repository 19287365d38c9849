// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
// - Принимает endpoint.Request
// - Преобразует в Command/Query DTO
// - Вызывает Use Case
// - Возвращает envelope.Response
//
// Политику маршрута (auth, admin, rate limit, валидация тела) исполняет
// endpoint.Wrapper, handler её только объявляет.
//
// SOLID:
// - SRP: Каждый handler отвечает за один endpoint
// - DIP: Handler зависит от интерфейса Use Case
package handlers

import (
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/application/usecases/partner"
	"github.com/Haleralex/vowdesk/internal/domain/entities"
	domainerrors "github.com/Haleralex/vowdesk/internal/domain/errors"
)

// ============================================
// Custom Validator Setup
// ============================================

var (
	setupOnce sync.Once
	setupErr  error
)

// SetupValidator регистрирует кастомные теги в endpoint валидаторе.
// Идемпотентен, вызывается до регистрации маршрутов.
func SetupValidator() error {
	setupOnce.Do(func() {
		setupErr = endpoint.RegisterValidation("partner_category", validatePartnerCategory,
			"Unknown partner category")
	})
	return setupErr
}

// validatePartnerCategory проверяет категорию без учёта регистра.
func validatePartnerCategory(fl validator.FieldLevel) bool {
	category := entities.PartnerCategory(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	return category.IsValid()
}

// ============================================
// Pagination Helper
// ============================================

// PaginationParams - параметры пагинации из query string.
type PaginationParams struct {
	Page  int
	Limit int
}

// ParsePagination читает page и limit из query.
//
// Отсутствующий параметр получает значение по умолчанию, нечисловой или
// меньше 1 - VALIDATION_ERROR. Limit больше максимума урезается use case-ом.
func ParsePagination(req *endpoint.Request) (PaginationParams, error) {
	params := PaginationParams{Page: 1, Limit: partner.DefaultPageSize}

	if raw := req.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, domainerrors.Validation("page", "page must be a positive integer")
		}
		params.Page = page
	}

	if raw := req.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return params, domainerrors.Validation("limit", "limit must be a positive integer")
		}
		params.Limit = limit
	}

	return params, nil
}
