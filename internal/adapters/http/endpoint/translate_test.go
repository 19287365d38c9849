package endpoint

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	domainerrors "github.com/Haleralex/vowdesk/internal/domain/errors"
)

func TestTranslate_DomainKinds(t *testing.T) {
	tests := []struct {
		err  *domainerrors.Error
		code envelope.Code
	}{
		{domainerrors.Validation("website", "must be a URL"), envelope.CodeValidation},
		{domainerrors.InvalidInput("bad cursor"), envelope.CodeInvalidInput},
		{domainerrors.NotFound("Partner", "p1"), envelope.CodeNotFound},
		{domainerrors.AlreadyExists("Partner already registered"), envelope.CodeAlreadyExists},
		{domainerrors.Conflict("cannot approve a rejected partner"), envelope.CodeResourceConflict},
		{domainerrors.Forbidden("view other tenants"), envelope.CodeForbidden},
		{domainerrors.Unauthorized("session revoked"), envelope.CodeUnauthorized},
		{domainerrors.Database("update", errors.New("conn closed")), envelope.CodeDatabase},
		{domainerrors.Constraint("category is not allowed", nil), envelope.CodeConstraintViolation},
		{domainerrors.External("mail relay", nil), envelope.CodeExternalService},
		{domainerrors.Unavailable("draining"), envelope.CodeServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			rec := Translate(fmt.Errorf("usecase: %w", tt.err))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.err.Message, rec.Message)
			assert.Equal(t, tt.err.Field, rec.Field)
		})
	}

	t.Run("UnknownKind", func(t *testing.T) {
		rec := Translate(&domainerrors.Error{Kind: domainerrors.KindUnknown, Message: "leaky detail"})
		assert.Equal(t, envelope.CodeInternal, rec.Code)
		assert.Equal(t, "An unexpected error occurred", rec.Message)
	})

	t.Run("CauseNotSurfaced", func(t *testing.T) {
		rec := Translate(domainerrors.Database("select", errors.New("password authentication failed")))
		assert.NotContains(t, rec.Message, "password")
		assert.Nil(t, rec.Details)
	})
}

func TestTranslate_Fallbacks(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    envelope.Code
		message string
	}{
		{"DatabaseSubstring", errors.New("database timeout"), envelope.CodeDatabase, "Database operation failed"},
		{"SQLSubstring", errors.New("bad SQL"), envelope.CodeDatabase, "Database operation failed"},
		{"ValidationSubstring", errors.New("validation of slug"), envelope.CodeValidation, "validation of slug"},
		{"InvalidSubstring", errors.New("invalid state"), envelope.CodeValidation, "invalid state"},
		{"CaseSensitive", errors.New("Invalid state"), envelope.CodeInternal, "An unexpected error occurred"},
		{"Unclassified", errors.New("boom"), envelope.CodeInternal, "An unexpected error occurred"},
		{"Canceled", context.Canceled, envelope.CodeServiceUnavailable, "Request timed out or was cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Translate(tt.err)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, rec.Message)
		})
	}
}

func TestTranslate_RecordVerbatim(t *testing.T) {
	orig := envelope.NewValidationError("slug", "taken", envelope.Details{"suggestion": envelope.String("bloom-co-2")})
	assert.Same(t, orig, Translate(orig))
	assert.Same(t, orig, Translate(fmt.Errorf("wrapped: %w", orig)))
}

func TestTranslate_Deterministic(t *testing.T) {
	errs := []error{errors.New("database x"), errors.New("invalid y"), errors.New("z")}
	for _, err := range errs {
		first := Translate(err)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Translate(err))
		}
	}
}
