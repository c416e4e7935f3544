// AngelaMos | 2026
// entity.go

package account

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

// Ref addresses one account.
type Ref struct {
	Type history.TargetType
	ID   string
}

func (r Ref) String() string {
	return string(r.Type) + "/" + r.ID
}

type MembershipInfo struct {
	ApplicationDate   *time.Time `db:"application_date"`
	PaymentReceiptRef string     `db:"payment_receipt_ref"`
	StatusMessage     string     `db:"status_message"`
	RenewalDate       *time.Time `db:"renewal_date"`
	TierName          string     `db:"tier_name"`
}

// Account is a therapist or clinic profile under moderation. OwnerUserID
// is fixed at creation.
type Account struct {
	ID          string             `db:"id"`
	Type        history.TargetType `db:"entity_type"`
	OwnerUserID string             `db:"owner_user_id"`
	Status      Status             `db:"status"`
	IsVerified  bool               `db:"is_verified"`
	AdminNotes  *string            `db:"admin_notes"`
	MembershipInfo
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (a *Account) Ref() Ref {
	return Ref{Type: a.Type, ID: a.ID}
}

func (a *Account) IsListed() bool {
	return a.Status == StatusLive
}

func (a *Account) Clone() *Account {
	c := *a
	c.AdminNotes = clonePtr(a.AdminNotes)
	c.ApplicationDate = clonePtr(a.ApplicationDate)
	c.RenewalDate = clonePtr(a.RenewalDate)
	return &c
}

// differs reports whether any column the moderation workflow may write has
// a different value in b.
func differs(a, b *Account) bool {
	return a.Status != b.Status ||
		a.IsVerified != b.IsVerified ||
		!equalPtr(a.AdminNotes, b.AdminNotes) ||
		!equalTime(a.ApplicationDate, b.ApplicationDate) ||
		a.PaymentReceiptRef != b.PaymentReceiptRef ||
		a.StatusMessage != b.StatusMessage ||
		!equalTime(a.RenewalDate, b.RenewalDate) ||
		a.TierName != b.TierName
}

// TypeForRole maps an account-owning role to its profile type.
func TypeForRole(r auth.Role) (history.TargetType, error) {
	switch r {
	case auth.RoleTherapist:
		return history.TargetTherapist, nil
	case auth.RoleClinicOwner:
		return history.TargetClinic, nil
	default:
		return "", fmt.Errorf("role %s owns no account: %w", r, core.ErrNotFound)
	}
}

func ownerRoleFor(t history.TargetType) auth.Role {
	if t == history.TargetClinic {
		return auth.RoleClinicOwner
	}
	return auth.RoleTherapist
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
