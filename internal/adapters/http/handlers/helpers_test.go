package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/vowdesk/internal/adapters/http/endpoint"
	"github.com/Haleralex/vowdesk/internal/adapters/http/envelope"
	"github.com/Haleralex/vowdesk/internal/application/dtos"
	"github.com/Haleralex/vowdesk/internal/auth"
	"github.com/Haleralex/vowdesk/internal/pkg/logger"
	"github.com/Haleralex/vowdesk/internal/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := SetupValidator(); err != nil {
		panic(err)
	}
}

const (
	plannerToken  = "planner-token-123"
	adminToken    = "admin-token-123"
	noTenantToken = "no-tenant-token-123"
)

// ============================================
// Mock Capabilities
// ============================================

type mockVerifier struct{}

func (mockVerifier) Verify(_ context.Context, token string) (*auth.Principal, error) {
	switch token {
	case plannerToken:
		return &auth.Principal{UserID: "u-planner", TenantID: "tenant-1", Roles: []string{"planner"}}, nil
	case adminToken:
		return &auth.Principal{UserID: "u-admin", TenantID: "tenant-1", Roles: []string{"admin"}}, nil
	case noTenantToken:
		return &auth.Principal{UserID: "u-orphan", Roles: []string{"admin"}}, nil
	}
	return nil, auth.ErrInvalidToken
}

// ============================================
// Mock Use Cases
// ============================================

type MockCreatePartnerUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CreatePartnerCommand) (*dtos.PartnerDTO, error)
}

func (m *MockCreatePartnerUseCase) Execute(ctx context.Context, cmd dtos.CreatePartnerCommand) (*dtos.PartnerDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

type MockGetPartnerUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetPartnerQuery) (*dtos.PartnerDTO, error)
}

func (m *MockGetPartnerUseCase) Execute(ctx context.Context, query dtos.GetPartnerQuery) (*dtos.PartnerDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

type MockListPartnersUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListPartnersQuery) (*dtos.PartnerPage, error)
}

func (m *MockListPartnersUseCase) Execute(ctx context.Context, query dtos.ListPartnersQuery) (*dtos.PartnerPage, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

type MockUpdatePartnerUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.UpdatePartnerCommand) (*dtos.PartnerDTO, error)
}

func (m *MockUpdatePartnerUseCase) Execute(ctx context.Context, cmd dtos.UpdatePartnerCommand) (*dtos.PartnerDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

type MockReviewPartnerUseCase struct {
	ApproveFn func(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
	RejectFn  func(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
	SuspendFn func(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error)
}

func (m *MockReviewPartnerUseCase) Approve(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	if m.ApproveFn != nil {
		return m.ApproveFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

func (m *MockReviewPartnerUseCase) Reject(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	if m.RejectFn != nil {
		return m.RejectFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

func (m *MockReviewPartnerUseCase) Suspend(ctx context.Context, cmd dtos.ReviewPartnerCommand) (*dtos.PartnerDTO, error) {
	if m.SuspendFn != nil {
		return m.SuspendFn(ctx, cmd)
	}
	return nil, errors.New("not implemented")
}

type MockDeletePartnerUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.DeletePartnerCommand) error
}

func (m *MockDeletePartnerUseCase) Execute(ctx context.Context, cmd dtos.DeletePartnerCommand) error {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return errors.New("not implemented")
}

// ============================================
// Test Setup
// ============================================

type partnerMocks struct {
	create *MockCreatePartnerUseCase
	get    *MockGetPartnerUseCase
	list   *MockListPartnersUseCase
	update *MockUpdatePartnerUseCase
	review *MockReviewPartnerUseCase
	delete *MockDeletePartnerUseCase
}

func newTestWrapper() *endpoint.Wrapper {
	return endpoint.New(endpoint.Deps{
		Logger:   logger.Discard(),
		Verifier: mockVerifier{},
		Roles:    auth.NewClaimsRoleChecker("admin"),
		Limiter:  ratelimit.NewMemory(),
	})
}

func setupPartnerTestRouter(listLimit *endpoint.RateLimit) (*gin.Engine, *partnerMocks) {
	mocks := &partnerMocks{
		create: &MockCreatePartnerUseCase{},
		get:    &MockGetPartnerUseCase{},
		list:   &MockListPartnersUseCase{},
		update: &MockUpdatePartnerUseCase{},
		review: &MockReviewPartnerUseCase{},
		delete: &MockDeletePartnerUseCase{},
	}

	handler := NewPartnerHandler(newTestWrapper(),
		PartnerRoutesConfig{ListRateLimit: listLimit, Timeout: 5 * time.Second},
		mocks.create, mocks.get, mocks.list, mocks.update, mocks.review, mocks.delete,
	)

	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))
	return router, mocks
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope.Response[json.RawMessage]) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp envelope.Response[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Valid(), w.Body.String())
	return w, resp
}

func doRaw(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeData[T any](t *testing.T, resp envelope.Response[json.RawMessage]) T {
	t.Helper()
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)

	var v T
	require.NoError(t, json.Unmarshal(*resp.Data, &v))
	return v
}

func samplePartnerDTO(status string) *dtos.PartnerDTO {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &dtos.PartnerDTO{
		ID:           "0b9f3a52-3c55-4cf1-9f0e-5bd0f5b0c6a1",
		TenantID:     "tenant-1",
		CompanyName:  "Bloom & Co",
		ContactEmail: "hello@bloom.co",
		Category:     "FLORIST",
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
