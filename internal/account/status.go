// AngelaMos | 2026
// status.go

package account

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
)

// Status is the moderation state of an account. Only live accounts are
// publicly visible.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusLive            Status = "live"
	StatusRejected        Status = "rejected"
)

var allStatuses = [...]Status{
	StatusDraft,
	StatusPendingApproval,
	StatusLive,
	StatusRejected,
}

func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("parse status %q: %w", s, core.ErrValidation)
}

func AllStatuses() []Status {
	return allStatuses[:]
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode status: %w", core.ErrValidation)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan status: unsupported type %T", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("store status %q: %w", string(s), core.ErrValidation)
	}
	return string(s), nil
}
