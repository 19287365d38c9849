package envelope

import "net/http"

// Code - машиночитаемый код ошибки API.
//
// Набор кодов закрыт: клиенты ветвятся по ним, поэтому новый код
// добавляется только вместе со строкой в statusByCode.
type Code string

// ============================================
// Error Codes
// ============================================

const (
	// Auth
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeInvalidToken Code = "INVALID_TOKEN"
	CodeTokenExpired Code = "TOKEN_EXPIRED"

	// Input
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeMissingRequiredField Code = "MISSING_REQUIRED_FIELD"

	// Resources
	CodeNotFound         Code = "NOT_FOUND"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeResourceConflict Code = "RESOURCE_CONFLICT"

	// Storage
	CodeDatabase            Code = "DATABASE_ERROR"
	CodeConstraintViolation Code = "CONSTRAINT_VIOLATION"

	// Platform
	CodeExternalService    Code = "EXTERNAL_SERVICE_ERROR"
	CodeRateLimitExceeded  Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeMaintenanceMode    Code = "MAINTENANCE_MODE"
)

// statusByCode - таблица code -> HTTP status.
var statusByCode = map[Code]int{
	CodeUnauthorized:         http.StatusUnauthorized,
	CodeForbidden:            http.StatusForbidden,
	CodeInvalidToken:         http.StatusUnauthorized,
	CodeTokenExpired:         http.StatusUnauthorized,
	CodeValidation:           http.StatusBadRequest,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeMissingRequiredField: http.StatusBadRequest,
	CodeNotFound:             http.StatusNotFound,
	CodeAlreadyExists:        http.StatusConflict,
	CodeResourceConflict:     http.StatusConflict,
	CodeDatabase:             http.StatusInternalServerError,
	CodeConstraintViolation:  http.StatusBadRequest,
	CodeExternalService:      http.StatusServiceUnavailable,
	CodeRateLimitExceeded:    http.StatusTooManyRequests,
	CodeInternal:             http.StatusInternalServerError,
	CodeServiceUnavailable:   http.StatusServiceUnavailable,
	CodeMaintenanceMode:      http.StatusServiceUnavailable,
}

// HTTPStatus возвращает HTTP статус для кода ошибки.
//
// Неизвестный код всегда даёт 500: новый код не может случайно
// уйти клиенту с 2xx/4xx, пока его не добавили в таблицу.
func HTTPStatus(code Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Codes возвращает все коды таксономии.
func Codes() []Code {
	return []Code{
		CodeUnauthorized,
		CodeForbidden,
		CodeInvalidToken,
		CodeTokenExpired,
		CodeValidation,
		CodeInvalidInput,
		CodeMissingRequiredField,
		CodeNotFound,
		CodeAlreadyExists,
		CodeResourceConflict,
		CodeDatabase,
		CodeConstraintViolation,
		CodeExternalService,
		CodeRateLimitExceeded,
		CodeInternal,
		CodeServiceUnavailable,
		CodeMaintenanceMode,
	}
}

// Known сообщает, входит ли код в таксономию.
func (c Code) Known() bool {
	_, ok := statusByCode[c]
	return ok
}
