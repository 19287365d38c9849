package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
)

type stubPinger struct {
	name string
	err  error
	wait time.Duration
}

func (p stubPinger) Name() string { return p.name }

func (p stubPinger) Ping(ctx context.Context) error {
	if p.wait > 0 {
		select {
		case <-time.After(p.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func setupHealthTestRouter(checks ...Pinger) *gin.Engine {
	return setupHealthTestRouterWithLogger(logger.Discard(), checks...)
}

func setupHealthTestRouterWithLogger(log *slog.Logger, checks ...Pinger) *gin.Engine {
	handler := NewHealthHandler(newTestWrapper(), "1.2.3", nil, checks...).WithLogger(log)
	handler.timeout = 50 * time.Millisecond

	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

func TestHealthHandler_Health(t *testing.T) {
	router := setupHealthTestRouter(stubPinger{name: "postgres", err: errors.New("down")})

	w, resp := doRequest(t, router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.NotEmpty(t, resp.Meta.RequestID)
}

func TestHealthHandler_Ready(t *testing.T) {
	t.Run("AllHealthy", func(t *testing.T) {
		router := setupHealthTestRouter(stubPinger{name: "postgres"}, stubPinger{name: "redis"}, stubPinger{name: "nats"})

		w, resp := doRequest(t, router, http.MethodGet, "/ready", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		ready := decodeData[ReadinessResponse](t, resp)
		assert.True(t, ready.Ready)
		assert.Equal(t, map[string]string{"postgres": "healthy", "redis": "healthy", "nats": "healthy"}, ready.Checks)
	})

	t.Run("DependencyDown", func(t *testing.T) {
		router := setupHealthTestRouter(stubPinger{name: "postgres"}, stubPinger{name: "redis", err: errors.New("connection refused")})

		w, resp := doRequest(t, router, http.MethodGet, "/ready", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, envelope.CodeServiceUnavailable, resp.Error.Code)

		redis, ok := resp.Error.Details["redis"].Str()
		require.True(t, ok)
		assert.Equal(t, CheckUnhealthy, redis)
		pg, _ := resp.Error.Details["postgres"].Str()
		assert.Equal(t, "healthy", pg)
	})

	t.Run("SlowDependencyTimesOut", func(t *testing.T) {
		router := setupHealthTestRouter(stubPinger{name: "nats", wait: time.Second})

		w, resp := doRequest(t, router, http.MethodGet, "/ready", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		nats, _ := resp.Error.Details["nats"].Str()
		assert.Equal(t, CheckTimeout, nats)
	})

	t.Run("ErrorTextOnlyInLogs", func(t *testing.T) {
		var logs bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logs, nil))
		router := setupHealthTestRouterWithLogger(log,
			stubPinger{name: "postgres", err: errors.New("dial tcp 10.12.0.7:5432: connection refused")})

		w, _ := doRequest(t, router, http.MethodGet, "/ready", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "10.12.0.7")
		assert.NotContains(t, w.Body.String(), "connection refused")
		assert.Contains(t, logs.String(), "10.12.0.7:5432")
		assert.Contains(t, logs.String(), `"dependency":"postgres"`)
	})

	t.Run("NoChecks", func(t *testing.T) {
		router := setupHealthTestRouter()

		w, _ := doRequest(t, router, http.MethodGet, "/ready", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	router := setupHealthTestRouter(stubPinger{name: "postgres", err: errors.New("dial tcp db.internal:5432: connection reset by peer")})

	w, resp := doRequest(t, router, http.MethodGet, "/health/detailed", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, CheckUnhealthy, health.Status)
	assert.Equal(t, CheckUnhealthy, health.Checks["postgres"])
	assert.NotContains(t, w.Body.String(), "db.internal")
}

func TestHealthHandler_PostNotAllowed(t *testing.T) {
	router := setupHealthTestRouter()
	router.HandleMethodNotAllowed = true

	w := doRaw(router, http.MethodPost, "/health")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
