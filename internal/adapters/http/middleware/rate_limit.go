package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

// RateLimitConfig - конфигурация глобального rate limiting.
//
// Это общий "потолок" на клиента для всего API. Лимиты конкретных
// маршрутов задаются в endpoint.Config.
type RateLimitConfig struct {
	Limiter ratelimit.Limiter
	// Requests per window
	Limit  int
	Window time.Duration
	// KeyFunc - ключ лимитирования, по умолчанию IP адрес
	KeyFunc   func(*gin.Context) string
	SkipPaths []string
	Logger    *slog.Logger
}

// ServicePaths - служебные маршруты (health checks и /metrics), которые не
// лимитируются и не попадают в access log.
func ServicePaths() []string {
	return []string{"/health", "/health/detailed", "/ready", "/metrics"}
}

// DefaultRateLimitConfig - 300 запросов в минуту с одного IP.
func DefaultRateLimitConfig(limiter ratelimit.Limiter) *RateLimitConfig {
	return &RateLimitConfig{
		Limiter:   limiter,
		Limit:     300,
		Window:    time.Minute,
		KeyFunc:   func(c *gin.Context) string { return c.ClientIP() },
		SkipPaths: ServicePaths(),
		Logger:    slog.Default(),
	}
}

// RateLimit middleware ограничивает количество запросов с одного ключа.
//
// Ошибка хранилища лимитов не блокирует запрос (fail open), но пишется в лог.
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skipMap := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(c *gin.Context) {
		if skipMap[c.Request.URL.Path] {
			c.Next()
			return
		}

		res, err := config.Limiter.Allow(c.Request.Context(), "global:"+config.KeyFunc(c), config.Limit, config.Window)
		if err != nil {
			config.Logger.WarnContext(c.Request.Context(), "Rate limiter unavailable, allowing request",
				slog.String("error", err.Error()))
			c.Next()
			return
		}

		SetRateLimitHeaders(c.Writer.Header(), res)
		if !res.Allowed {
			AbortWithError(c, RateLimitExceeded(res))
			return
		}

		c.Next()
	}
}

// SetRateLimitHeaders выставляет X-RateLimit-* и, при превышении, Retry-After.
func SetRateLimitHeaders(h http.Header, res ratelimit.Result) {
	h.Set("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter(time.Now()).Seconds())))
	}
}

// RateLimitExceeded создаёт запись RATE_LIMIT_EXCEEDED с details limit и resetAt.
func RateLimitExceeded(res ratelimit.Result) *envelope.ErrorRecord {
	rec := envelope.NewError(envelope.CodeRateLimitExceeded, "Too many requests, please try again later")
	rec.Details = envelope.Details{
		"limit":   envelope.Int(res.Limit),
		"resetAt": envelope.String(res.ResetAt.UTC().Format(time.RFC3339)),
	}
	return rec
}
