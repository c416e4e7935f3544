// AngelaMos | 2026
// role.go

package auth

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Role is the single platform role held by a user.
type Role string

const (
	RoleClient      Role = "CLIENT"
	RoleTherapist   Role = "THERAPIST"
	RoleClinicOwner Role = "CLINIC_OWNER"
	RoleAdmin       Role = "ADMIN"
)

var allRoles = [...]Role{RoleClient, RoleTherapist, RoleClinicOwner, RoleAdmin}

// ParseRole accepts only the four known role names. Matching is exact.
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("parse role %q: %w", s, core.ErrValidation)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// OwnsAccount reports whether users with this role get a moderated
// practitioner or clinic account at signup.
func (r Role) OwnsAccount() bool {
	return r == RoleTherapist || r == RoleClinicOwner
}

func (r Role) bit() RoleSet {
	for i, known := range allRoles {
		if known == r {
			return 1 << i
		}
	}
	return 0
}

func (r *Role) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode role: %w", core.ErrValidation)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r *Role) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan role: unsupported type %T", src)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("store role %q: %w", string(r), core.ErrValidation)
	}
	return string(r), nil
}

// RoleSet is an immutable set of roles. The zero value is empty.
type RoleSet uint8

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= r.bit()
	}
	return s
}

// AnyRole contains every known role.
var AnyRole = NewRoleSet(allRoles[:]...)

func (s RoleSet) Has(r Role) bool {
	b := r.bit()
	return b != 0 && s&b != 0
}

func (s RoleSet) Empty() bool {
	return s == 0
}

func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(allRoles))
	for _, r := range allRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	names := make([]string, 0, len(allRoles))
	for _, r := range s.Roles() {
		names = append(names, string(r))
	}
	return "{" + strings.Join(names, ",") + "}"
}
