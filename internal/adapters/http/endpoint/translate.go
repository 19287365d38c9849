package endpoint

import (
	"context"
	"errors"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	domainerrors "github.com/Haleralex/vowdesk/internal/domain/errors"
)

const (
	genericMessage           = "An unexpected error occurred"
	genericDatabaseMessage   = "Database operation failed"
	genericValidationMessage = "Request body validation failed"
)

var kindCodes = map[domainerrors.Kind]envelope.Code{
	domainerrors.KindValidation:    envelope.CodeValidation,
	domainerrors.KindInvalidInput:  envelope.CodeInvalidInput,
	domainerrors.KindNotFound:      envelope.CodeNotFound,
	domainerrors.KindAlreadyExists: envelope.CodeAlreadyExists,
	domainerrors.KindConflict:      envelope.CodeResourceConflict,
	domainerrors.KindForbidden:     envelope.CodeForbidden,
	domainerrors.KindUnauthorized:  envelope.CodeUnauthorized,
	domainerrors.KindDatabase:      envelope.CodeDatabase,
	domainerrors.KindConstraint:    envelope.CodeConstraintViolation,
	domainerrors.KindExternal:      envelope.CodeExternalService,
	domainerrors.KindUnavailable:   envelope.CodeServiceUnavailable,
}

// Translate превращает ошибку бизнес-функции в запись envelope.
//
// Порядок:
//   - *envelope.ErrorRecord отдаётся как есть;
//   - *errors.Error отображается по Kind, Err наружу не попадает;
//   - отмена или дедлайн контекста - SERVICE_UNAVAILABLE;
//   - остальное классифицируется по тексту (errors.Sniff). Неизвестные
//     ошибки получают общее сообщение, исходный текст не раскрывается.
func Translate(err error) *envelope.ErrorRecord {
	var rec *envelope.ErrorRecord
	if errors.As(err, &rec) && rec != nil {
		return rec
	}

	if de, ok := domainerrors.As(err); ok {
		code, known := kindCodes[de.Kind]
		if !known {
			return envelope.NewError(envelope.CodeInternal, genericMessage)
		}
		message := de.Message
		if message == "" {
			message = genericMessage
		}
		return &envelope.ErrorRecord{Code: code, Message: message, Field: de.Field}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return envelope.NewError(envelope.CodeServiceUnavailable, "Request timed out or was cancelled")
	}

	switch domainerrors.Sniff(err) {
	case domainerrors.KindDatabase:
		return envelope.NewError(envelope.CodeDatabase, genericDatabaseMessage)
	case domainerrors.KindValidation:
		return envelope.NewValidationError("", err.Error(), nil)
	}
	return envelope.NewError(envelope.CodeInternal, genericMessage)
}

// validationRecord переводит отказ BodyValidator в VALIDATION_ERROR.
func validationRecord(err error) *envelope.ErrorRecord {
	var rec *envelope.ErrorRecord
	if errors.As(err, &rec) && rec != nil {
		return rec
	}

	field := ""
	message := err.Error()
	if de, ok := domainerrors.As(err); ok {
		field, message = de.Field, de.Message
	}
	if message == "" {
		message = genericValidationMessage
	}
	return envelope.NewValidationError(field, message, nil)
}
