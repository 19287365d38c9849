package endpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	validToken = "valid-token-123"
	adminToken = "admin-token-123"
)

// mockVerifier - mock CredentialVerifier.
type mockVerifier struct {
	ExecuteFn func(ctx context.Context, token string) (*auth.Principal, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, token)
	}
	switch token {
	case validToken:
		return &auth.Principal{UserID: "u-1", TenantID: "t-1", Roles: []string{"planner"}}, nil
	case adminToken:
		return &auth.Principal{UserID: "u-admin", TenantID: "t-1", Roles: []string{"admin"}}, nil
	}
	return nil, auth.ErrInvalidToken
}

// mockRoles - mock RoleChecker.
type mockRoles struct {
	ExecuteFn func(ctx context.Context, p *auth.Principal) (bool, error)
}

func (m *mockRoles) IsAdmin(ctx context.Context, p *auth.Principal) (bool, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, p)
	}
	return p.HasRole("admin"), nil
}

type testEnv struct {
	wrapper *Wrapper
	router  *gin.Engine
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()

	var logs bytes.Buffer
	deps := Deps{
		Logger:   logger.New(&logger.Config{Level: "debug", Format: "json", Output: &logs}),
		Verifier: &mockVerifier{},
		Roles:    &mockRoles{},
		Limiter:  ratelimit.NewMemory(),
	}
	for _, m := range mutate {
		m(&deps)
	}

	return &testEnv{wrapper: New(deps), router: gin.New(), logs: &logs}
}

type call struct {
	method string
	path   string
	body   string
	token  string
	header map[string]string
}

func (e *testEnv) do(t *testing.T, c call) (*httptest.ResponseRecorder, envelope.Response[json.RawMessage]) {
	t.Helper()

	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp envelope.Response[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Valid(), "envelope exclusivity violated: %s", w.Body.String())
	return w, resp
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, resp envelope.Response[json.RawMessage], code envelope.Code, status int) {
	t.Helper()
	require.False(t, resp.Success, w.Body.String())
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code, resp.Error.Message)
	require.Equal(t, status, w.Code)
}

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func okFunc(called *bool) Func[item] {
	return func(req *Request) (envelope.Response[item], error) {
		if called != nil {
			*called = true
		}
		return envelope.Success(item{ID: "1", Name: "Velvet Venue"}), nil
	}
}
