// Package auth defines who is calling and what they may do.
//
// The HTTP edge only sees two capabilities: CredentialVerifier turns a bearer
// token into a Principal, RoleChecker answers whether that principal is an
// administrator. Both are injected, so there is no implicit "accept everything"
// path in production wiring.
package auth

import (
	"context"
	"errors"
	"slices"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing or signature checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	TenantID string
	Email    string
	Roles    []string
}

// HasRole reports whether the principal carries role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// CredentialVerifier validates a bearer token.
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// RoleChecker decides whether a principal may use admin resources.
type RoleChecker interface {
	IsAdmin(ctx context.Context, p *Principal) (bool, error)
}

// ClaimsRoleChecker grants admin to principals holding any of AdminRoles.
type ClaimsRoleChecker struct {
	AdminRoles []string
}

// NewClaimsRoleChecker creates a ClaimsRoleChecker. With no roles given,
// "admin" is used.
func NewClaimsRoleChecker(roles ...string) *ClaimsRoleChecker {
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	return &ClaimsRoleChecker{AdminRoles: roles}
}

// IsAdmin implements RoleChecker.
func (c *ClaimsRoleChecker) IsAdmin(_ context.Context, p *Principal) (bool, error) {
	if p == nil {
		return false, nil
	}
	for _, role := range c.AdminRoles {
		if p.HasRole(role) {
			return true, nil
		}
	}
	return false, nil
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
