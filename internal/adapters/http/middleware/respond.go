package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
)

// AbortWithError прерывает цепочку и отдаёт envelope с ошибкой.
//
// Статус берётся из кода ошибки, ошибка учитывается в api_errors_total.
func AbortWithError(c *gin.Context, rec *envelope.ErrorRecord) {
	resp := envelope.Failure[any](rec, envelope.WithRequestID(GetRequestID(c)))
	RecordAPIError(string(resp.Error.Code))
	c.AbortWithStatusJSON(resp.Status(), resp)
}

// NotFound - handler для несуществующих маршрутов (router.NoRoute).
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		AbortWithError(c, envelope.NewNotFoundError("Route "+c.Request.URL.Path, ""))
	}
}

// MethodNotAllowed - handler для router.NoMethod.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		AbortWithError(c, envelope.NewError(envelope.CodeInvalidInput, "Method not allowed"))
	}
}
