package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/auth"
)

const (
	// AuthPrincipalKey - ключ для хранения auth.Principal в контексте gin
	AuthPrincipalKey = "auth_principal"

	bearerPrefix   = "Bearer "
	minTokenLength = 10
)

// Authenticate проверяет заголовок Authorization.
//
// Схема работы:
// 1. Заголовок обязателен (UNAUTHORIZED)
// 2. Формат "Bearer <token>" (INVALID_TOKEN)
// 3. Токен не короче 10 символов (INVALID_TOKEN)
// 4. Проверка через CredentialVerifier (TOKEN_EXPIRED / INVALID_TOKEN)
//
// Pattern: Bearer Token Authentication
func Authenticate(ctx context.Context, header string, verifier auth.CredentialVerifier) (*auth.Principal, *envelope.ErrorRecord) {
	if header == "" {
		return nil, envelope.NewError(envelope.CodeUnauthorized, "Authorization header is required")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, envelope.NewError(envelope.CodeInvalidToken, "Invalid authorization header format")
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if len(token) < minTokenLength {
		return nil, envelope.NewError(envelope.CodeInvalidToken, "Invalid token format")
	}

	principal, err := verifier.Verify(ctx, token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, envelope.NewError(envelope.CodeTokenExpired, "Token has expired")
	case err != nil || principal == nil:
		return nil, envelope.NewError(envelope.CodeInvalidToken, "Invalid or expired token")
	}
	return principal, nil
}

// SetPrincipal сохраняет вызывающего в контекст gin.
func SetPrincipal(c *gin.Context, p *auth.Principal) {
	c.Set(AuthPrincipalKey, p)
}

// GetPrincipal возвращает вызывающего, если запрос прошёл аутентификацию.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(AuthPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}
