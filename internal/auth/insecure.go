package auth

import "context"

// ============================================
// Test doubles
// ============================================

// InsecureAllowAllVerifier accepts any token and returns a fixed principal.
//
// ONLY for tests and local development. The container refuses it in production.
type InsecureAllowAllVerifier struct {
	Principal Principal
}

// Verify implements CredentialVerifier.
func (v InsecureAllowAllVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	p := v.Principal
	if p.UserID == "" {
		p.UserID = token
	}
	return &p, nil
}

// InsecureAllowAllRoles treats every principal as admin.
//
// ONLY for tests and local development.
type InsecureAllowAllRoles struct{}

// IsAdmin implements RoleChecker.
func (InsecureAllowAllRoles) IsAdmin(context.Context, *Principal) (bool, error) {
	return true, nil
}
