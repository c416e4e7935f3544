// AngelaMos | 2026
// guard.go

package auth

import (
	"fmt"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Allow decides whether p may act. ADMIN always passes. Any other role must
// be in required and, when ownerID is set, must be the owner.
func Allow(p Principal, required RoleSet, ownerID string) bool {
	if p.Role == RoleAdmin {
		return true
	}
	if !required.Has(p.Role) {
		return false
	}
	return ownerID == "" || ownerID == p.UserID
}

func Authorize(p Principal, required RoleSet, ownerID string) error {
	if !Allow(p, required, ownerID) {
		return fmt.Errorf("authorize %s as %s: %w", p.UserID, p.Role, core.ErrForbidden)
	}
	return nil
}

// RequireOwnerOrAdmin is the self-or-admin rule for any role.
func RequireOwnerOrAdmin(p Principal, ownerID string) error {
	return Authorize(p, AnyRole, ownerID)
}

func RequireAdmin(p Principal) error {
	return Authorize(p, NewRoleSet(RoleAdmin), "")
}
