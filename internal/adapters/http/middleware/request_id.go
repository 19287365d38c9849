// Package middleware содержит HTTP middleware для обработки запросов.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: логирование, CORS, tracing.
//
// Pattern: Chain of Responsibility
package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/vowdesk/internal/pkg/logger"
)

const (
	// RequestIDHeader - имя заголовка для Request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey - ключ для хранения Request ID в контексте gin
	RequestIDContextKey = "request_id"

	maxInboundRequestID = 128
)

// NewRequestID генерирует ID вида req_<unix-ms>_<9 символов [0-9a-f]>.
//
// Не криптографически стойкий идентификатор: только для корреляции логов.
func NewRequestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "req_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix
}

// RequestID middleware добавляет ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его (обрезав до 128
// символов), иначе генерируем новый. ID попадает в заголовок ответа,
// в gin-контекст и в context.Context запроса для логгера.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if len(requestID) > maxInboundRequestID {
			requestID = requestID[:maxInboundRequestID]
		}
		if requestID == "" {
			requestID = NewRequestID()
		}

		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDContextKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}
