package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/adapters/http/middleware"
	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "router-test-secret-0123456789abcdef"

type stubList struct{}

func (stubList) Execute(_ context.Context, q dtos.ListPartnersQuery) (*dtos.PartnerPage, error) {
	return &dtos.PartnerPage{Items: []dtos.PartnerDTO{}, Page: q.Page, Limit: q.Limit}, nil
}

func testRouterConfig(t *testing.T) *RouterConfig {
	t.Helper()

	verifier, err := auth.NewJWTVerifier(testSecret, "vowdesk-test")
	require.NoError(t, err)

	limiter := ratelimit.NewMemory()
	cfg := DefaultRouterConfig()
	cfg.Logger = logger.Discard()
	cfg.Limiter = limiter
	cfg.Wrapper = endpoint.New(endpoint.Deps{
		Logger:   cfg.Logger,
		Verifier: verifier,
		Roles:    auth.NewClaimsRoleChecker("admin"),
		Limiter:  limiter,
	})
	return cfg
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope.Response[json.RawMessage] {
	t.Helper()
	var resp envelope.Response[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Valid())
	return resp
}

func TestDefaultRouterConfig(t *testing.T) {
	cfg := DefaultRouterConfig()

	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, "dev", cfg.Version)
	assert.Equal(t, "development", cfg.Environment)
	assert.Contains(t, cfg.AllowedOrigins, "*")
	assert.Equal(t, 300, cfg.GlobalRateLimit.Max)
	require.NotNil(t, cfg.Partners.ListRateLimit)
	assert.Nil(t, cfg.Wrapper, "wrapper must be supplied explicitly")
}

func TestNewRouterBuilder_NilConfig(t *testing.T) {
	builder := NewRouterBuilder(nil)

	require.NotNil(t, builder)
	assert.Equal(t, "development", builder.config.Environment)
}

func TestRouterBuilder_Build_RequiresWrapper(t *testing.T) {
	_, err := NewRouterBuilder(DefaultRouterConfig()).Build()

	assert.ErrorContains(t, err, "endpoint wrapper is required")
}

func TestRouterBuilder_Build_InvalidRoutePolicy(t *testing.T) {
	cfg := testRouterConfig(t)
	// Admin маршруты без RoleChecker не должны регистрироваться
	cfg.Wrapper = endpoint.New(endpoint.Deps{Verifier: auth.InsecureAllowAllVerifier{}, Limiter: ratelimit.NewMemory()})

	router, err := NewRouter(cfg, &PartnerUseCases{List: stubList{}})

	assert.Nil(t, router)
	assert.ErrorContains(t, err, "invalid route policy")
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router, err := NewRouter(testRouterConfig(t), nil)
	require.NoError(t, err)

	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		t.Run(path, func(t *testing.T) {
			w := serve(router, http.MethodGet, path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			resp := decodeEnvelope(t, w)
			assert.True(t, resp.Success)
			assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), resp.Meta.RequestID)
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router, err := NewRouter(testRouterConfig(t), nil)
	require.NoError(t, err)

	w := serve(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	router, err := NewRouter(testRouterConfig(t), nil)
	require.NoError(t, err)

	t.Run("NoRoute", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/unknown", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeEnvelope(t, w)
		assert.Equal(t, envelope.CodeNotFound, resp.Error.Code)
	})

	t.Run("NoMethod", func(t *testing.T) {
		w := serve(router, http.MethodDelete, "/health", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		assert.Equal(t, "Method not allowed", resp.Error.Message)
	})
}

func TestRouter_PartnerRoutes(t *testing.T) {
	cfg := testRouterConfig(t)
	router, err := NewRouter(cfg, &PartnerUseCases{List: stubList{}})
	require.NoError(t, err)

	issuer := auth.NewIssuer(testSecret, "vowdesk-test", time.Hour)
	token, err := issuer.Issue(auth.Principal{UserID: "u-1", TenantID: "tenant-1", Roles: []string{"planner"}})
	require.NoError(t, err)

	t.Run("Authorized", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/partners", token)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Meta.Pagination)
		assert.Equal(t, 20, resp.Meta.Pagination.Limit)
	})

	t.Run("ForgedToken", func(t *testing.T) {
		forged, err := auth.NewIssuer("another-secret-0123456789abcdef", "vowdesk-test", time.Hour).
			Issue(auth.Principal{UserID: "u-1", TenantID: "tenant-1"})
		require.NoError(t, err)

		w := serve(router, http.MethodGet, "/api/v1/partners", forged)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, envelope.CodeInvalidToken, decodeEnvelope(t, w).Error.Code)
	})

	t.Run("AdminRouteForPlanner", func(t *testing.T) {
		w := serve(router, http.MethodPost, "/api/v1/admin/partners/p-1/approve", token)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_CORS(t *testing.T) {
	t.Run("Development", func(t *testing.T) {
		router, err := NewRouter(testRouterConfig(t), nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/partners", nil)
		req.Header.Set("Origin", "https://planner.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Production", func(t *testing.T) {
		cfg := testRouterConfig(t)
		cfg.Environment = "production"
		cfg.AllowedOrigins = []string{"https://admin.vowdesk.io"}
		router, err := NewRouter(cfg, nil)
		require.NoError(t, err)
		t.Cleanup(func() { gin.SetMode(gin.TestMode) })

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRouter_GlobalRateLimit(t *testing.T) {
	cfg := testRouterConfig(t)
	cfg.GlobalRateLimit = endpoint.RateLimit{Max: 1, Window: time.Minute}
	router, err := NewRouter(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/v1/nothing", "").Code)

	w := serve(router, http.MethodGet, "/api/v1/nothing", "")

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, envelope.CodeRateLimitExceeded, decodeEnvelope(t, w).Error.Code)

	// probes не лимитируются
	for _, path := range []string{"/health", "/health/detailed", "/ready"} {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path, "").Code, path)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, path, "").Code, path)
	}
}
