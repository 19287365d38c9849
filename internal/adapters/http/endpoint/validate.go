package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/Haleralex/vowdesk/internal/domain/errors"
)

// ============================================
// Struct validation (go-playground/validator)
// ============================================

var (
	validate     = newValidator()
	messagesMu   sync.RWMutex
	tagMessages  = map[string]string{}
	errNotStruct = errors.New("endpoint: Struct validator requires a struct type")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Используем json tag для имён полей в ошибках
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterValidation добавляет кастомный тег и сообщение для него.
// Вызывать при инициализации, до регистрации маршрутов.
func RegisterValidation(tag string, fn validator.Func, message string) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation %q: %w", tag, err)
	}
	messagesMu.Lock()
	tagMessages[tag] = message
	messagesMu.Unlock()
	return nil
}

// Struct создаёт BodyValidator по тегам validate структуры T.
//
// Тело декодируется в T и проверяется; первая ошибка поля становится
// VALIDATION_ERROR с field = json-имя поля.
func Struct[T any]() BodyValidator {
	var zero T
	t := reflect.TypeOf(zero)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		panic(errNotStruct)
	}

	return func(body Body) error {
		raw, err := json.Marshal(body)
		if err != nil {
			return domainerrors.InvalidInput("Invalid JSON in request body")
		}
		var dst T
		if err := json.Unmarshal(raw, &dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return domainerrors.Validation(typeErr.Field, fmt.Sprintf("%s has the wrong type", typeErr.Field))
			}
			return domainerrors.Validation("", "")
		}
		return ValidateStruct(dst)
	}
}

// ValidateStruct проверяет v тегами validate.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domainerrors.Validation(fe.Field(), fe.Field()+": "+validationMessage(fe))
	}
	return domainerrors.Validation("", err.Error())
}

// Required создаёт BodyValidator, требующий непустые поля.
func Required(fields ...string) BodyValidator {
	return func(body Body) error {
		for _, field := range fields {
			v, ok := body[field]
			if !ok || v == nil {
				return domainerrors.Validation(field, field+" is required")
			}
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				return domainerrors.Validation(field, field+" is required")
			}
		}
		return nil
	}
}

// validationMessage возвращает человекочитаемое сообщение об ошибке.
func validationMessage(fe validator.FieldError) string {
	messagesMu.RLock()
	custom, ok := tagMessages[fe.Tag()]
	messagesMu.RUnlock()
	if ok {
		return custom
	}

	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url", "http_url":
		return "Invalid URL format"
	case "uuid", "uuid4":
		return "Invalid UUID format"
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}
