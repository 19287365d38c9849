// Package envelope содержит единый формат ответа API.
//
// Каждый ответ - это Response[T]: либо success=true с data, либо
// success=false с error. Оба поля одновременно не заполняются никогда.
// Статус HTTP выводится только из кода ошибки (см. HTTPStatus).
//
// Pattern: Value Object
// - Response создаётся один раз конструктором непосредственно перед
//   сериализацией и после этого не меняется.
package envelope

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ============================================
// Standard API Response Format
// ============================================

// Response - стандартный формат ответа API.
type Response[T any] struct {
	Success bool         `json:"success"`
	Data    *T           `json:"data,omitempty"`
	Error   *ErrorRecord `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Meta    Meta         `json:"meta"`
}

// Meta - мета-информация ответа.
type Meta struct {
	Timestamp  time.Time   `json:"timestamp"`
	RequestID  string      `json:"requestId,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorRecord - структура ошибки API.
//
// Реализует error, поэтому бизнес-логика может вернуть её напрямую:
// обёртка отдаст запись клиенту без изменений.
type ErrorRecord struct {
	Code    Code    `json:"code"`
	Message string  `json:"message"`
	Details Details `json:"details,omitempty"`
	Field   string  `json:"field,omitempty"`
}

// Error implements the error interface.
func (e *ErrorRecord) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Status возвращает HTTP статус для записи.
func (e *ErrorRecord) Status() int {
	return HTTPStatus(e.Code)
}

// ============================================
// Options
// ============================================

// Option дополняет Response при создании.
//
// Опции для timestamp нет: время ставит только конструктор.
type Option func(*options)

type options struct {
	message    string
	requestID  string
	pagination *Pagination
}

// WithMessage добавляет человекочитаемое сообщение.
func WithMessage(message string) Option {
	return func(o *options) { o.message = message }
}

// WithRequestID добавляет correlation id.
func WithRequestID(id string) Option {
	return func(o *options) { o.requestID = id }
}

// WithPagination добавляет блок пагинации.
func WithPagination(p Pagination) Option {
	return func(o *options) { o.pagination = &p }
}

// now подменяется в тестах.
var now = func() time.Time { return time.Now().UTC() }

func build(opts []Option) (string, Meta) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o.message, Meta{
		Timestamp:  now(),
		RequestID:  o.requestID,
		Pagination: o.pagination,
	}
}

// ============================================
// Response Constructors
// ============================================

// Success создаёт успешный ответ.
func Success[T any](data T, opts ...Option) Response[T] {
	message, meta := build(opts)
	return Response[T]{
		Success: true,
		Data:    &data,
		Message: message,
		Meta:    meta,
	}
}

// Failure создаёт ответ с ошибкой из готовой записи.
//
// nil запись превращается в INTERNAL_ERROR, чтобы ответ с success=false
// всегда содержал error.
func Failure[T any](rec *ErrorRecord, opts ...Option) Response[T] {
	if rec == nil {
		rec = &ErrorRecord{Code: CodeInternal, Message: "An unexpected error occurred"}
	}
	message, meta := build(opts)
	return Response[T]{
		Success: false,
		Error:   rec,
		Message: message,
		Meta:    meta,
	}
}

// FailureText создаёт ответ с ошибкой INTERNAL_ERROR и заданным текстом.
func FailureText[T any](text string, opts ...Option) Response[T] {
	return Failure[T](&ErrorRecord{Code: CodeInternal, Message: text}, opts...)
}

// Status возвращает HTTP статус ответа: 200 для успеха, иначе по коду ошибки.
func (r Response[T]) Status() int {
	if r.Success {
		return http.StatusOK
	}
	if r.Error == nil {
		return HTTPStatus(CodeInternal)
	}
	return HTTPStatus(r.Error.Code)
}

// Valid проверяет инвариант: ровно одно из data/error заполнено.
func (r Response[T]) Valid() bool {
	if r.Success {
		return r.Data != nil && r.Error == nil
	}
	return r.Data == nil && r.Error != nil
}

// UnmarshalJSON восстанавливает ответ так, что успешный ответ с
// data=null по-прежнему имеет Data != nil.
func (r *Response[T]) UnmarshalJSON(b []byte) error {
	var wire struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *ErrorRecord    `json:"error"`
		Message string          `json:"message"`
		Meta    Meta            `json:"meta"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}

	*r = Response[T]{
		Success: wire.Success,
		Error:   wire.Error,
		Message: wire.Message,
		Meta:    wire.Meta,
	}
	if len(wire.Data) > 0 {
		r.Data = new(T)
		if err := json.Unmarshal(wire.Data, r.Data); err != nil {
			return fmt.Errorf("envelope: decode data: %w", err)
		}
	}
	return nil
}

// ============================================
// Error Record Helpers
// ============================================

// NewError создаёт запись с произвольным кодом.
func NewError(code Code, message string) *ErrorRecord {
	return &ErrorRecord{Code: code, Message: message}
}

// NewValidationError создаёт ошибку валидации конкретного поля.
func NewValidationError(field, message string, details Details) *ErrorRecord {
	return &ErrorRecord{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
		Details: details,
	}
}

// NewNotFoundError создаёт ошибку 404. Пустой id означает, что ID не указан.
func NewNotFoundError(resource, id string) *ErrorRecord {
	message := resource + " not found"
	if id != "" {
		message = fmt.Sprintf("%s with ID '%s' not found", resource, id)
	}
	return &ErrorRecord{Code: CodeNotFound, Message: message}
}

// NewForbiddenError создаёт ошибку 403 для действия.
func NewForbiddenError(action string) *ErrorRecord {
	return &ErrorRecord{
		Code:    CodeForbidden,
		Message: "Insufficient permissions to " + action,
	}
}

// NewDatabaseError создаёт ошибку БД. Текст исходной ошибки попадает
// в details.originalError, поэтому вызывать только когда его можно показать.
func NewDatabaseError(operation string, original error) *ErrorRecord {
	rec := &ErrorRecord{
		Code:    CodeDatabase,
		Message: fmt.Sprintf("Database %s failed", operation),
	}
	if original != nil {
		rec.Details = Details{"originalError": String(original.Error())}
	}
	return rec
}
