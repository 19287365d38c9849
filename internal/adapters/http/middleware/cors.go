package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Заголовки CORS по умолчанию.
const (
	DefaultAllowOrigin  = "*"
	DefaultAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	DefaultAllowHeaders = "Content-Type, Authorization"
)

// SetCORSHeaders выставляет permissive CORS заголовки по умолчанию.
//
// Значения совпадают с DefaultCORSConfig. Для обычного http.Handler
// без gin цепочки; production политику (ProductionCORSConfig) не заменяет.
func SetCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", DefaultAllowOrigin)
	h.Set("Access-Control-Allow-Methods", DefaultAllowMethods)
	h.Set("Access-Control-Allow-Headers", DefaultAllowHeaders)
}

// CORSConfig - конфигурация CORS.
type CORSConfig struct {
	// AllowOrigins - разрешённые origins. "*" - разрешить все
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
	// ExposeHeaders - заголовки, доступные клиенту
	ExposeHeaders []string
	// AllowCredentials нельзя сочетать с "*"
	AllowCredentials bool
	// MaxAge - время кеширования preflight (секунды), 0 - не отправлять
	MaxAge int
}

// DefaultCORSConfig - конфигурация по умолчанию (совпадает с SetCORSHeaders).
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowOrigins: []string{DefaultAllowOrigin},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders:  []string{"Content-Type", "Authorization"},
		ExposeHeaders: []string{RequestIDHeader, "Retry-After"},
	}
}

// ProductionCORSConfig - конфигурация для production: только заданные origins.
func ProductionCORSConfig(allowedOrigins []string) *CORSConfig {
	config := DefaultCORSConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowHeaders = append(config.AllowHeaders, RequestIDHeader)
	config.AllowCredentials = true
	config.MaxAge = 600
	return config
}

// CORS middleware для обработки Cross-Origin запросов.
//
// Preflight (OPTIONS) отвечает 204 без вызова handler-а.
func CORS(config *CORSConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultCORSConfig()
	}

	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposeHeaders, ", ")
	allowAll := slices.Contains(config.AllowOrigins, "*")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		var allowedOrigin string
		switch {
		case allowAll:
			allowedOrigin = "*"
		case slices.Contains(config.AllowOrigins, origin):
			allowedOrigin = origin
			c.Header("Vary", "Origin")
		}

		// Чужой origin: без CORS заголовков, браузер сам заблокирует ответ
		if allowedOrigin == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		if exposeHeaders != "" {
			c.Header("Access-Control-Expose-Headers", exposeHeaders)
		}
		if config.MaxAge > 0 {
			c.Header("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
		}
		if config.AllowCredentials && !allowAll {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
