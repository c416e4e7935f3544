// AngelaMos | 2026
// dto.go

package account

import (
	"time"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
)

type ApplyRequest struct {
	PaymentReceiptRef string `json:"payment_receipt_ref" validate:"required,max=255"`
	TierName          string `json:"tier_name"           validate:"required,max=64"`
}

type ModerationRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

type SetStatusRequest struct {
	Status Status `json:"status" validate:"required,oneof=draft pending_approval live rejected"`
	Notes  string `json:"notes"  validate:"max=2000"`
}

type AnnotateRequest struct {
	Notes      *string `json:"notes,omitempty"       validate:"omitempty,max=2000"`
	IsVerified *bool   `json:"is_verified,omitempty"`
}

type RenewRequest struct {
	Until *time.Time `json:"until,omitempty"`
}

type MembershipResponse struct {
	ApplicationDate   *time.Time `json:"application_date,omitempty"`
	PaymentReceiptRef string     `json:"payment_receipt_ref"`
	StatusMessage     string     `json:"status_message"`
	RenewalDate       *time.Time `json:"renewal_date,omitempty"`
	TierName          string     `json:"tier_name"`
}

type AccountResponse struct {
	ID          string             `json:"id"`
	Type        history.TargetType `json:"type"`
	OwnerUserID string             `json:"owner_user_id"`
	Status      Status             `json:"status"`
	IsVerified  bool               `json:"is_verified"`
	IsListed    bool               `json:"is_listed"`
	AdminNotes  *string            `json:"admin_notes,omitempty"`
	Membership  MembershipResponse `json:"membership"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type OutcomeResponse struct {
	Result  Result                 `json:"result"`
	Account AccountResponse        `json:"account"`
	Entry   *history.EntryResponse `json:"history_entry,omitempty"`
}

// ToAccountResponse hides admin notes unless withAdmin is set.
func ToAccountResponse(a *Account, withAdmin bool) AccountResponse {
	resp := AccountResponse{
		ID:          a.ID,
		Type:        a.Type,
		OwnerUserID: a.OwnerUserID,
		Status:      a.Status,
		IsVerified:  a.IsVerified,
		IsListed:    a.IsListed(),
		Membership: MembershipResponse{
			ApplicationDate:   a.ApplicationDate,
			PaymentReceiptRef: a.PaymentReceiptRef,
			StatusMessage:     a.StatusMessage,
			RenewalDate:       a.RenewalDate,
			TierName:          a.TierName,
		},
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if withAdmin {
		resp.AdminNotes = a.AdminNotes
	}
	return resp
}

func ToOutcomeResponse(o *Outcome, withAdmin bool) OutcomeResponse {
	resp := OutcomeResponse{
		Result:  o.Result,
		Account: ToAccountResponse(o.Account, withAdmin),
	}
	if o.Entry != nil {
		entry := history.ToEntryResponse(o.Entry)
		resp.Entry = &entry
	}
	return resp
}
