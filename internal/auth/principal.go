// AngelaMos | 2026
// principal.go

package auth

import (
	"context"
)

// Principal is the identity behind one authenticated request. It is built
// from verified claims and never stored.
type Principal struct {
	UserID string
	Role   Role
	Name   string
	Email  string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.UserID != ""
}
