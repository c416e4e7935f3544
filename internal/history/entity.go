// AngelaMos | 2026
// entity.go

package history

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// TargetType names the kind of moderated profile an entry belongs to.
type TargetType string

const (
	TargetTherapist TargetType = "THERAPIST"
	TargetClinic    TargetType = "CLINIC"
)

func ParseTargetType(s string) (TargetType, error) {
	switch TargetType(s) {
	case TargetTherapist, TargetClinic:
		return TargetType(s), nil
	}
	return "", fmt.Errorf("parse target type %q: %w", s, core.ErrValidation)
}

func (t *TargetType) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("scan target type: unsupported type %T", src)
	}
	parsed, err := ParseTargetType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TargetType) Value() (driver.Value, error) {
	if _, err := ParseTargetType(string(t)); err != nil {
		return nil, err
	}
	return string(t), nil
}

const (
	ActionApplied       = "applied"
	ActionApproved      = "approved"
	ActionRejected      = "rejected"
	ActionStatusChanged = "status_changed"
	ActionRenewed       = "renewed"
)

// Entry is one immutable ledger row.
type Entry struct {
	ID         string          `db:"id"`
	TargetID   string          `db:"target_id"`
	TargetType TargetType      `db:"target_type"`
	Action     string          `db:"action"`
	Details    json.RawMessage `db:"details"`
	ActionDate time.Time       `db:"action_date"`
}

// Details is the payload shape written by the moderation workflow. Fields
// that do not apply to an action are omitted.
type Details struct {
	PreviousStatus string     `json:"previousStatus,omitempty"`
	NewStatus      string     `json:"newStatus,omitempty"`
	AdminID        string     `json:"adminId,omitempty"`
	OwnerID        string     `json:"ownerId,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ReceiptRef     string     `json:"paymentReceiptRef,omitempty"`
	TierName       string     `json:"tierName,omitempty"`
	RenewalDate    *time.Time `json:"renewalDate,omitempty"`
}

func NewEntry(
	targetID string,
	targetType TargetType,
	action string,
	details any,
	at time.Time,
) (*Entry, error) {
	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode history details: %w", err)
	}

	return &Entry{
		ID:         uuid.New().String(),
		TargetID:   targetID,
		TargetType: targetType,
		Action:     action,
		Details:    payload,
		ActionDate: at,
	}, nil
}

func (e *Entry) DecodeDetails() (Details, error) {
	var d Details
	if len(e.Details) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(e.Details, &d); err != nil {
		return d, fmt.Errorf("decode history details: %w", err)
	}
	return d, nil
}
