// AngelaMos | 2026
// guard_test.go

package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

func TestAllow_TruthTable(t *testing.T) {
	owners := []string{"", "u1", "u2"}

	for _, role := range allRoles {
		p := Principal{UserID: "u1", Role: role}

		for set := RoleSet(0); set < RoleSet(1<<len(allRoles)); set++ {
			for _, owner := range owners {
				inSet := false
				for _, r := range set.Roles() {
					if r == role {
						inSet = true
					}
				}
				want := role == RoleAdmin || (inSet && (owner == "" || owner == "u1"))

				name := fmt.Sprintf("%s/%s/owner=%q", role, set, owner)
				assert.Equal(t, want, Allow(p, set, owner), name)
			}
		}
	}
}

func TestAllow_CrossOwnerTherapist(t *testing.T) {
	p := Principal{UserID: "u1", Role: RoleTherapist}

	assert.False(t, Allow(p, NewRoleSet(RoleTherapist), "u2"))

	err := Authorize(p, NewRoleSet(RoleTherapist), "u2")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	admin := Principal{UserID: "a1", Role: RoleAdmin}
	client := Principal{UserID: "c1", Role: RoleClient}

	assert.NoError(t, RequireOwnerOrAdmin(admin, "someone"))
	assert.NoError(t, RequireOwnerOrAdmin(client, "c1"))
	assert.ErrorIs(t, RequireOwnerOrAdmin(client, "c2"), core.ErrForbidden)

	assert.NoError(t, RequireAdmin(admin))
	assert.ErrorIs(t, RequireAdmin(client), core.ErrForbidden)
}
