// Package handlers - Health check handlers.
//
// Health checks позволяют оркестраторам (Kubernetes, Docker Swarm)
// проверять состояние приложения.
//
// Два типа health checks:
// - Liveness: Приложение работает? (если нет - restart)
// - Readiness: Приложение готово принимать трафик? (если нет - no traffic)
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
)

// DefaultCheckTimeout - таймаут одной проверки зависимости.
const DefaultCheckTimeout = 2 * time.Second

// Состояния зависимости в ответах health checks.
// Текст ошибки клиенту не отдаётся (хосты, порты, имена БД), только в лог.
const (
	CheckHealthy   = "healthy"
	CheckUnhealthy = "unhealthy"
	CheckTimeout   = "timeout"
)

// Pinger - зависимость, участвующая в readiness (postgres, redis, nats).
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// ============================================
// Health Check Handler
// ============================================

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	wrapper   *endpoint.Wrapper
	logger    *slog.Logger
	pool      *pgxpool.Pool // только для статистики пула, может быть nil
	checks    []Pinger
	version   string
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler создаёт новый HealthHandler.
func NewHealthHandler(wrapper *endpoint.Wrapper, version string, pool *pgxpool.Pool, checks ...Pinger) *HealthHandler {
	return &HealthHandler{
		wrapper:   wrapper,
		logger:    slog.Default(),
		pool:      pool,
		checks:    checks,
		version:   version,
		timeout:   DefaultCheckTimeout,
		startTime: time.Now(),
	}
}

// WithLogger задаёт логгер для причин отказа зависимостей.
func (h *HealthHandler) WithLogger(logger *slog.Logger) *HealthHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// ============================================
// Response Types
// ============================================

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status  string            `json:"status"`           // "healthy" или "unhealthy"
	Version string            `json:"version"`          // Версия приложения
	Uptime  string            `json:"uptime"`           // Время работы
	Checks  map[string]string `json:"checks,omitempty"` // Детали проверок
}

// ReadinessResponse - ответ readiness check.
type ReadinessResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// ============================================
// HTTP Handlers
// ============================================

// Health возвращает базовый health статус (liveness probe).
//
// @Router /health [get]
func (h *HealthHandler) Health(req *endpoint.Request) (envelope.Response[HealthResponse], error) {
	return envelope.Success(HealthResponse{
		Status:  CheckHealthy,
		Version: h.version,
		Uptime:  h.uptime(),
	}), nil
}

// Ready проверяет все зависимости.
//
// Если хотя бы одна недоступна - SERVICE_UNAVAILABLE (503), состояние
// каждой зависимости в error.details.
//
// @Router /ready [get]
func (h *HealthHandler) Ready(req *endpoint.Request) (envelope.Response[ReadinessResponse], error) {
	checks, ready := h.runChecks(req.Context())
	if !ready {
		details := make(envelope.Details, len(checks))
		for name, state := range checks {
			details[name] = envelope.String(state)
		}
		rec := envelope.NewError(envelope.CodeServiceUnavailable, "Service is not ready")
		rec.Details = details
		return envelope.Failure[ReadinessResponse](rec), nil
	}

	return envelope.Success(ReadinessResponse{Ready: true, Checks: checks}), nil
}

// DetailedHealth возвращает состояние зависимостей и статистику пула.
//
// @Router /health/detailed [get]
func (h *HealthHandler) DetailedHealth(req *endpoint.Request) (envelope.Response[HealthResponse], error) {
	checks, ready := h.runChecks(req.Context())

	if h.pool != nil {
		// Добавляем статистику пула соединений
		stats := h.pool.Stat()
		checks["db_total_conns"] = strconv.Itoa(int(stats.TotalConns()))
		checks["db_idle_conns"] = strconv.Itoa(int(stats.IdleConns()))
		checks["db_acquired_conns"] = strconv.Itoa(int(stats.AcquiredConns()))

		middleware.UpdateDBConnections(stats.IdleConns(), stats.AcquiredConns(), stats.MaxConns())
	}

	status := CheckHealthy
	if !ready {
		status = CheckUnhealthy
	}

	return envelope.Success(HealthResponse{
		Status:  status,
		Version: h.version,
		Uptime:  h.uptime(),
		Checks:  checks,
	}), nil
}

// RegisterRoutes регистрирует health check маршруты.
//
// Routes:
// - GET /health          - Basic health check
// - GET /health/detailed - Dependencies and pool stats
// - GET /ready           - Readiness probe
func (h *HealthHandler) RegisterRoutes(router gin.IRoutes) {
	cfg := endpoint.Config{}
	router.GET("/health", endpoint.GET(h.wrapper, cfg, h.Health))
	router.GET("/health/detailed", endpoint.GET(h.wrapper, cfg, h.DetailedHealth))
	router.GET("/ready", endpoint.GET(h.wrapper, cfg, h.Ready))
}

func (h *HealthHandler) runChecks(ctx context.Context) (map[string]string, bool) {
	checks := make(map[string]string, len(h.checks))
	ready := true

	for _, check := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check.Ping(checkCtx)
		cancel()

		if err != nil {
			state := CheckUnhealthy
			if errors.Is(err, context.DeadlineExceeded) {
				state = CheckTimeout
			}
			h.logger.WarnContext(ctx, "Dependency check failed",
				slog.String("dependency", check.Name()),
				slog.String("state", state),
				slog.String("error", err.Error()),
			)
			checks[check.Name()] = state
			ready = false
			continue
		}
		checks[check.Name()] = CheckHealthy
	}

	return checks, ready
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}
