// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
// - Все зависимости собираются здесь
// - Handlers получают только нужные им use cases
// - Политику конкретных маршрутов исполняет endpoint.Wrapper
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/handlers"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Wrapper строит handler-ы маршрутов
	Wrapper *endpoint.Wrapper
	// Limiter для глобального лимита, nil - без глобального лимита
	Limiter ratelimit.Limiter
	// GlobalRateLimit - потолок запросов с одного IP на весь API
	GlobalRateLimit endpoint.RateLimit
	// Database pool для статистики в /health/detailed
	Pool *pgxpool.Pool
	// Checks - зависимости для /ready
	Checks []handlers.Pinger
	// Version приложения
	Version string
	// ServiceName для трейсинга
	ServiceName string
	// Environment (development, staging, production)
	Environment string
	// AllowedOrigins для CORS (production)
	AllowedOrigins []string
	// Partners - политика маршрутов партнёров
	Partners handlers.PartnerRoutesConfig
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:          slog.Default(),
		GlobalRateLimit: endpoint.RateLimit{Max: 300, Window: time.Minute},
		Version:         "dev",
		ServiceName:     "vowdesk",
		Environment:     "development",
		AllowedOrigins:  []string{"*"},
		Partners: handlers.PartnerRoutesConfig{
			ListRateLimit: &endpoint.RateLimit{Max: 60, Window: time.Minute},
			Timeout:       10 * time.Second,
		},
	}
}

// ============================================
// Use Case Providers
// ============================================

// PartnerUseCases - provider для partner use cases.
type PartnerUseCases struct {
	Create handlers.CreatePartnerUseCase
	Get    handlers.GetPartnerUseCase
	List   handlers.ListPartnersUseCase
	Update handlers.UpdatePartnerUseCase
	Review handlers.ReviewPartnerUseCase
	Delete handlers.DeletePartnerUseCase
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
// - Позволяет пошагово настроить роутер
// - Проще тестировать
type RouterBuilder struct {
	config   *RouterConfig
	partners *PartnerUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithPartnerUseCases добавляет partner use cases.
func (b *RouterBuilder) WithPartnerUseCases(useCases *PartnerUseCases) *RouterBuilder {
	b.partners = useCases
	return b
}

// Build создаёт сконфигурированный Gin Engine.
//
// Ошибка конфигурации маршрута (например, RequireAdmin без RoleChecker)
// возвращается здесь, а не на первом запросе.
func (b *RouterBuilder) Build() (router *gin.Engine, err error) {
	if b.config.Wrapper == nil {
		return nil, errors.New("router: endpoint wrapper is required")
	}
	if b.config.Logger == nil {
		b.config.Logger = slog.Default()
	}

	// Настраиваем режим Gin
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Настраиваем кастомные валидаторы
	if err := handlers.SetupValidator(); err != nil {
		return nil, err
	}

	// endpoint паникует на неисполнимой политике маршрута
	defer func() {
		if p := recover(); p != nil {
			router, err = nil, fmt.Errorf("router: invalid route policy: %v", p)
		}
	}()

	// Создаём router без default middleware
	router = gin.New()
	router.HandleMethodNotAllowed = true

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Recovery - должен быть первым
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. Tracing (no-op, пока не установлен TracerProvider)
	router.Use(otelgin.Middleware(b.config.ServiceName, otelgin.WithFilter(skipProbes)))

	// 4. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		SkipPaths: middleware.ServicePaths(),
	}))

	// 5. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// 6. CORS
	if b.config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(b.config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}

	// 7. Rate Limiting (global)
	if b.config.Limiter != nil && b.config.GlobalRateLimit.Max > 0 {
		rl := middleware.DefaultRateLimitConfig(b.config.Limiter)
		rl.Limit = b.config.GlobalRateLimit.Max
		rl.Window = b.config.GlobalRateLimit.Window
		rl.Logger = b.config.Logger
		router.Use(middleware.RateLimit(rl))
	}

	// ============================================
	// Metrics Endpoint (no auth)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ============================================
	// Health Check Routes (no auth)
	// ============================================

	healthHandler := handlers.NewHealthHandler(
		b.config.Wrapper,
		b.config.Version,
		b.config.Pool,
		b.config.Checks...,
	).WithLogger(b.config.Logger)
	healthHandler.RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")

	if b.partners != nil {
		partnerHandler := handlers.NewPartnerHandler(
			b.config.Wrapper,
			b.config.Partners,
			b.partners.Create,
			b.partners.Get,
			b.partners.List,
			b.partners.Update,
			b.partners.Review,
			b.partners.Delete,
		)
		partnerHandler.RegisterRoutes(v1)
	}

	// ============================================
	// 404 / 405 Handlers
	// ============================================

	router.NoRoute(middleware.NotFound())
	router.NoMethod(middleware.MethodNotAllowed())

	return router, nil
}

// NewRouter создаёт роутер (для простых случаев).
func NewRouter(config *RouterConfig, partners *PartnerUseCases) (*gin.Engine, error) {
	return NewRouterBuilder(config).WithPartnerUseCases(partners).Build()
}

// skipProbes исключает probes и /metrics из трейсинга.
func skipProbes(r *http.Request) bool {
	switch {
	case r.URL.Path == "/metrics", r.URL.Path == "/ready":
		return false
	case strings.HasPrefix(r.URL.Path, "/health"):
		return false
	}
	return true
}
