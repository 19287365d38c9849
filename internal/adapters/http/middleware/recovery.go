package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
)

// RecoveryConfig - конфигурация для recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // Включать stack trace в логи
}

// DefaultRecoveryConfig - конфигурация по умолчанию.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery middleware перехватывает панику вне endpoint-обёртки
// (в middleware или голых gin handler-ах) и отвечает INTERNAL_ERROR.
//
// Текст паники клиенту не отдаётся, только в лог.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			attrs := []slog.Attr{
				slog.String("panic", fmt.Sprintf("%v", rec)),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("client_ip", c.ClientIP()),
			}
			if config.EnableStackTrace {
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
			}
			config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "Panic recovered", attrs...)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			AbortWithError(c, envelope.NewError(envelope.CodeInternal, "An unexpected error occurred"))
		}()

		c.Next()
	}
}
